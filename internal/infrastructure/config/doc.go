// Package config loads and validates wifid configuration.
//
// Configuration is read from a YAML file, then overridden by environment
// variables with the WIFID_ prefix (e.g. WIFID_WIFI_BASE_IFNAME,
// WIFID_API_PORT), then validated. See configs/config.yaml for the
// reference file.
package config

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for wifid.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Wifi       WifiConfig       `yaml:"wifi"`
	Supplicant SupplicantConfig `yaml:"supplicant"`
	Hostapd    HostapdConfig    `yaml:"hostapd"`
	Softap     SoftapConfig     `yaml:"softap"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// WifiConfig contains radio and interface selection settings.
type WifiConfig struct {
	// BaseIfname is the interface name used to resolve the physical radio.
	// The radio is re-resolved on every interface creation attempt.
	BaseIfname string `yaml:"base_ifname"`
}

// SupplicantConfig contains wpa_supplicant daemon settings.
type SupplicantConfig struct {
	// Binary is the path to the wpa_supplicant executable.
	Binary string `yaml:"binary"`

	// ConfigFile is the path to the supplicant configuration file.
	ConfigFile string `yaml:"config_file"`

	// ControlDir is the control socket directory passed to the daemon.
	ControlDir string `yaml:"control_dir"`

	// GracefulTimeout is how long to wait (seconds) for the daemon to exit
	// after SIGTERM before it is killed.
	GracefulTimeout int `yaml:"graceful_timeout"`
}

// HostapdConfig contains hostapd daemon settings.
type HostapdConfig struct {
	// Binary is the path to the hostapd executable.
	Binary string `yaml:"binary"`

	// ConfigPath is where generated hostapd configuration is written.
	ConfigPath string `yaml:"config_path"`

	// ControlDir is the hostapd control interface directory.
	ControlDir string `yaml:"control_dir"`

	// GracefulTimeout is how long to wait (seconds) for the daemon to exit
	// after SIGTERM before it is killed.
	GracefulTimeout int `yaml:"graceful_timeout"`
}

// SoftapConfig contains settings for the vendor softap control tool.
// The tool is only exercised through the raw command surface.
type SoftapConfig struct {
	// Enabled gates the raw command dispatcher's vendor operations.
	Enabled bool `yaml:"enabled"`

	// Binary is the path to the vendor softap tool.
	Binary string `yaml:"binary"`
}

// DatabaseConfig contains SQLite settings for the event journal.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for event publishing.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      int    `yaml:"qos"`
}

// InfluxDBConfig contains InfluxDB connection settings for telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP control API settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket event stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// defaultConfig returns a Config populated with defaults.
// YAML values and environment variables override these.
func defaultConfig() *Config {
	return &Config{
		Wifi: WifiConfig{
			BaseIfname: "wlan0",
		},
		Supplicant: SupplicantConfig{
			Binary:          "/usr/sbin/wpa_supplicant",
			ConfigFile:      "/etc/wifid/wpa_supplicant.conf",
			ControlDir:      "/var/run/wpa_supplicant",
			GracefulTimeout: 10,
		},
		Hostapd: HostapdConfig{
			Binary:          "/usr/sbin/hostapd",
			ConfigPath:      "/var/run/wifid/hostapd.conf",
			ControlDir:      "/var/run/hostapd",
			GracefulTimeout: 10,
		},
		Softap: SoftapConfig{
			Enabled: false,
			Binary:  "/vendor/bin/softap_tool",
		},
		Database: DatabaseConfig{
			Path:        "/var/lib/wifid/wifid.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     1883,
			ClientID: "wifid",
			QoS:      1,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			URL:           "http://localhost:8086",
			Bucket:        "wifid",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8732,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/api/v1/ws",
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern WIFID_SECTION_KEY,
// for example WIFID_WIFI_BASE_IFNAME or WIFID_API_PORT.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Only the settings that commonly differ between deployments are overridable.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WIFID_WIFI_BASE_IFNAME"); v != "" {
		cfg.Wifi.BaseIfname = v
	}
	if v := os.Getenv("WIFID_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("WIFID_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("WIFID_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("WIFID_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("WIFID_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("WIFID_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("WIFID_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	if c.Wifi.BaseIfname == "" {
		return fmt.Errorf("wifi.base_ifname is required")
	}
	if strings.ContainsAny(c.Wifi.BaseIfname, " \t/") {
		return fmt.Errorf("wifi.base_ifname %q is not a valid interface name", c.Wifi.BaseIfname)
	}
	if c.Supplicant.Binary == "" {
		return fmt.Errorf("supplicant.binary is required")
	}
	if c.Hostapd.Binary == "" {
		return fmt.Errorf("hostapd.binary is required")
	}
	if c.Hostapd.ConfigPath == "" {
		return fmt.Errorf("hostapd.config_path is required")
	}
	if c.Softap.Enabled && c.Softap.Binary == "" {
		return fmt.Errorf("softap.binary is required when softap.enabled is true")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout must not be negative")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d is out of range", c.API.Port)
	}
	if c.MQTT.Enabled {
		if c.MQTT.Host == "" {
			return fmt.Errorf("mqtt.host is required when mqtt.enabled is true")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos %d is out of range", c.MQTT.QoS)
		}
	}
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			return fmt.Errorf("influxdb.url is required when influxdb.enabled is true")
		}
		if c.InfluxDB.Token == "" {
			return fmt.Errorf("influxdb.token is required when influxdb.enabled is true")
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognised", c.Logging.Level)
	}
	return nil
}

// Package logging provides structured logging for wifid.
//
// It wraps log/slog with the daemon's conventions: JSON output for
// production, text for development, level filtering, and default
// service/version fields on every entry. Component packages take a
// narrow Logger interface and receive sub-loggers created with With.
package logging

package cliconfig

import "time"

// DefaultAddress is the default bind address of the scrape endpoint.
const DefaultAddress = "127.0.0.1:9000"

// DefaultRefresh is the default exposition snapshot interval.
const DefaultRefresh = time.Second

// DefaultLogLevel is the default minimum log level.
const DefaultLogLevel = "warn"

// DefaultLogFormat is the default log output format.
const DefaultLogFormat = "text"

// NewDefault creates a new CLIConfig with default values.
func NewDefault() *CLIConfig {
	cfg := &CLIConfig{
		Address:   DefaultAddress,
		Refresh:   DefaultRefresh,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Sources:   make(map[string]string),
	}

	// Mark all as default source
	cfg.Sources["address"] = SourceDefault
	cfg.Sources["refresh"] = SourceDefault
	cfg.Sources["logLevel"] = SourceDefault
	cfg.Sources["logFormat"] = SourceDefault
	cfg.Sources["logSource"] = SourceDefault
	cfg.Sources["noHistory"] = SourceDefault

	return cfg
}

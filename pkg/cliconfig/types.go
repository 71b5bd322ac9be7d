// Package cliconfig provides configuration types and loading for the pesh CLI.
package cliconfig

import "time"

// CLIConfig represents the complete configuration for the pesh CLI.
// Configuration values can come from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Explicit config file (--config or PESH_CONFIG)
// 4. Local config file (.peshrc.yaml in current directory)
// 5. Global config file (~/.config/pesh/config.yaml)
// 6. Default values (lowest priority)
type CLIConfig struct {
	// Exposition settings
	Address  string        `yaml:"address" json:"address"`
	Refresh  time.Duration `yaml:"refresh" json:"refresh"`
	Graphite string        `yaml:"graphite,omitempty" json:"graphite,omitempty"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`
	LogFile   string `yaml:"logFile,omitempty" json:"logFile,omitempty"`
	LogSource bool   `yaml:"logSource,omitempty" json:"logSource,omitempty"`

	// Shell settings
	HistoryFile string `yaml:"historyFile,omitempty" json:"historyFile,omitempty"`
	NoHistory   bool   `yaml:"noHistory" json:"noHistory"`

	// Source tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields records which keys were present in a loaded file, so that an
	// explicit false can override a true from a lower layer.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault  = "default"
	SourceEnv      = "env"
	SourceGlobal   = "global"
	SourceLocal    = "local"
	SourceExplicit = "file"
	SourceFlag     = "flag"
)

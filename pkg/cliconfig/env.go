package cliconfig

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Environment variable names
const (
	EnvAddress     = "PESH_ADDRESS"
	EnvRefresh     = "PESH_REFRESH"
	EnvGraphite    = "PESH_GRAPHITE"
	EnvLogLevel    = "PESH_LOG_LEVEL"
	EnvLogFormat   = "PESH_LOG_FORMAT"
	EnvLogFile     = "PESH_LOG_FILE"
	EnvLogSource   = "PESH_LOG_SOURCE"
	EnvHistoryFile = "PESH_HISTORY_FILE"
	EnvNoHistory   = "PESH_NO_HISTORY"
	EnvConfig      = "PESH_CONFIG"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present in the environment.
func LoadEnvConfig(cfg *CLIConfig) error {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	strs := []struct {
		env, key string
		dst      *string
	}{
		{EnvAddress, "address", &cfg.Address},
		{EnvGraphite, "graphite", &cfg.Graphite},
		{EnvLogLevel, "logLevel", &cfg.LogLevel},
		{EnvLogFormat, "logFormat", &cfg.LogFormat},
		{EnvLogFile, "logFile", &cfg.LogFile},
		{EnvHistoryFile, "historyFile", &cfg.HistoryFile},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
			cfg.Sources[s.key] = SourceEnv
		}
	}

	// PESH_REFRESH
	if v := os.Getenv(EnvRefresh); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvRefresh)
		}
		cfg.Refresh = d
		cfg.Sources["refresh"] = SourceEnv
	}

	// PESH_LOG_SOURCE
	if v := os.Getenv(EnvLogSource); v != "" {
		cfg.LogSource = parseBool(v)
		cfg.Sources["logSource"] = SourceEnv
	}

	// PESH_NO_HISTORY
	if v := os.Getenv(EnvNoHistory); v != "" {
		cfg.NoHistory = parseBool(v)
		cfg.Sources["noHistory"] = SourceEnv
	}

	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

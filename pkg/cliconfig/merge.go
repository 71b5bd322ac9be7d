package cliconfig

// MergeConfig merges source config into target, updating sources tracking.
// Only non-zero values from source are applied.
func MergeConfig(target, source *CLIConfig, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	if source.Address != "" {
		target.Address = source.Address
		target.Sources["address"] = sourceType
	}
	if source.Refresh != 0 {
		target.Refresh = source.Refresh
		target.Sources["refresh"] = sourceType
	}
	if source.Graphite != "" {
		target.Graphite = source.Graphite
		target.Sources["graphite"] = sourceType
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
		target.Sources["logLevel"] = sourceType
	}
	if source.LogFormat != "" {
		target.LogFormat = source.LogFormat
		target.Sources["logFormat"] = sourceType
	}
	if source.LogFile != "" {
		target.LogFile = source.LogFile
		target.Sources["logFile"] = sourceType
	}
	if source.HistoryFile != "" {
		target.HistoryFile = source.HistoryFile
		target.Sources["historyFile"] = sourceType
	}
	// For booleans, checking `if source.X` cannot detect an explicit false.
	// SetFields (populated during file loading) tells whether the key was
	// present. Without it only true is merged.
	if boolIsSet(source, "logSource") {
		target.LogSource = source.LogSource
		target.Sources["logSource"] = sourceType
	}
	if boolIsSet(source, "noHistory") {
		target.NoHistory = source.NoHistory
		target.Sources["noHistory"] = sourceType
	}
}

// boolIsSet reports whether a boolean field identified by its YAML key was
// explicitly set in the source config.
func boolIsSet(cfg *CLIConfig, yamlKey string) bool {
	if cfg.SetFields != nil {
		return cfg.SetFields[yamlKey]
	}
	switch yamlKey {
	case "logSource":
		return cfg.LogSource
	case "noHistory":
		return cfg.NoHistory
	}
	return false
}

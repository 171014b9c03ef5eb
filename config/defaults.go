package config

// Default returns the default node configuration.
func Default() *Config {
	return &Config{
		Mining: MiningConfig{
			Threads: 1,
			Timeout: 0,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

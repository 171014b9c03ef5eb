package config

import "fmt"

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Mining.Threads < 1 || cfg.Mining.Threads > MaxMiningThreads {
		return fmt.Errorf("mining.threads must be in range [1, %d]", MaxMiningThreads)
	}
	if cfg.Mining.Timeout < 0 {
		return fmt.Errorf("mining.timeout must not be negative")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error")
	}
	return nil
}

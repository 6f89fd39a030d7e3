package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyShutdownTimeoutDefaults(cfg)
	applyServerDefaults(cfg)
	applyStorageDefaults(&cfg.Storage)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyServerDefaults sets blob server defaults.
func applyServerDefaults(cfg *Config) {
	// The blobserver package owns its defaults so servers constructed
	// directly in tests behave the same way.
	cfg.Server.ApplyDefaults()
}

// applyStorageDefaults sets storage driver defaults.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Driver == "" {
		cfg.Driver = DriverMemory
	}
}

// GetDefaultConfig returns a Config struct with all default values
// applied.
//
// This is useful for generating sample configuration files and for
// tests.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

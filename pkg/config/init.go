package config

import (
	"fmt"
	"os"
)

// InitConfig creates a sample configuration file at the default
// location and returns its path.
//
// Fails if a config file already exists unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath creates a sample configuration file at the given
// path.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
	}

	return SaveConfig(sampleConfig(), path)
}

// sampleConfig returns the configuration written by init.
func sampleConfig() *Config {
	cfg := GetDefaultConfig()

	// The memory driver works out of the box for development; a real
	// deployment switches this to badger, s3 or minio.
	cfg.Storage.Driver = DriverMemory

	return cfg
}

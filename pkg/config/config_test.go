package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoblob/internal/bytesize"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 8577, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  format: json
shutdown_timeout: 10s
server:
  port: 9000
  max_blob_bytes: 2Gi
storage:
  driver: badger
  badger:
    in_memory: true
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level should be normalized to uppercase")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2*bytesize.GiB, cfg.Server.MaxBlobBytes)
	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
	assert.True(t, cfg.Storage.Badger.InMemory)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  driver: memory
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, 5*time.Minute, cfg.Server.ReadTimeout)
	assert.Equal(t, bytesize.ByteSize(1<<30), cfg.Server.MaxBlobBytes)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "bad log level",
			content: `
logging:
  level: verbose
`,
		},
		{
			name: "bad driver",
			content: `
storage:
  driver: carrier-pigeon
`,
		},
		{
			name: "s3 without bucket",
			content: `
storage:
  driver: s3
`,
		},
		{
			name: "minio without endpoint",
			content: `
storage:
  driver: minio
  minio:
    bucket: blobs
`,
		},
		{
			name: "badger without path",
			content: `
storage:
  driver: badger
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "DEBUG"
	cfg.Server.Port = 9999
	cfg.Storage.Driver = DriverBadger
	cfg.Storage.Badger.Path = "/var/lib/dittoblob"

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", loaded.Logging.Level)
	assert.Equal(t, 9999, loaded.Server.Port)
	assert.Equal(t, DriverBadger, loaded.Storage.Driver)
	assert.Equal(t, "/var/lib/dittoblob", loaded.Storage.Badger.Path)
}

func TestNewDriver(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := StorageConfig{Driver: DriverMemory}
		drv, err := cfg.NewDriver(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, drv)
	})

	t.Run("badger in memory", func(t *testing.T) {
		cfg := StorageConfig{Driver: DriverBadger}
		cfg.Badger.InMemory = true
		drv, err := cfg.NewDriver(context.Background())
		require.NoError(t, err)
		require.NotNil(t, drv)
		if closer, ok := drv.(io.Closer); ok {
			defer closer.Close()
		}
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := StorageConfig{Driver: "tape"}
		_, err := cfg.NewDriver(context.Background())
		assert.Error(t, err)
	})
}

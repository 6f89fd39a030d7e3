package blobserver

import (
	"time"

	"github.com/marmos91/dittoblob/internal/bytesize"
)

// DefaultMaxBlobBytes caps a single blob at 1 GiB unless configured.
const DefaultMaxBlobBytes = bytesize.GiB

// Config configures the blob service HTTP server.
type Config struct {
	// Port is the HTTP port to listen on.
	// Default: 8577
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire
	// request, including the body. Zero means no timeout.
	// Default: 5m (puts can be large)
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response. Zero means no timeout.
	// Default: 5m
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// MaxBlobBytes is the largest accepted blob size.
	// Supports human-readable formats: "1GB", "512MB", "10Gi"
	// Default: DefaultMaxBlobBytes
	MaxBlobBytes bytesize.ByteSize `mapstructure:"max_blob_bytes" yaml:"max_blob_bytes"`
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 8577
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Minute
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxBlobBytes == 0 {
		c.MaxBlobBytes = DefaultMaxBlobBytes
	}
}

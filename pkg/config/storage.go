package config

import (
	"context"
	"fmt"

	"github.com/marmos91/dittoblob/pkg/blobserver/driver"
	"github.com/marmos91/dittoblob/pkg/blobserver/driver/badger"
	"github.com/marmos91/dittoblob/pkg/blobserver/driver/memory"
	"github.com/marmos91/dittoblob/pkg/blobserver/driver/minio"
	"github.com/marmos91/dittoblob/pkg/blobserver/driver/s3"
)

// Storage driver names accepted in configuration.
const (
	DriverMemory = "memory"
	DriverBadger = "badger"
	DriverS3     = "s3"
	DriverMinio  = "minio"
)

// StorageConfig selects and configures the blob storage driver.
//
// Only the section matching Driver is used; the others are ignored.
type StorageConfig struct {
	// Driver selects the storage backend.
	// Valid values: memory, badger, s3, minio
	Driver string `mapstructure:"driver" validate:"required,oneof=memory badger s3 minio" yaml:"driver"`

	// Badger configures the embedded BadgerDB driver
	Badger badger.Config `mapstructure:"badger" yaml:"badger,omitempty"`

	// S3 configures the AWS S3 driver
	S3 s3.Config `mapstructure:"s3" yaml:"s3,omitempty"`

	// Minio configures the MinIO driver
	Minio minio.Config `mapstructure:"minio" yaml:"minio,omitempty"`
}

// NewDriver constructs the storage driver selected by the
// configuration.
//
// The memory driver is intended for development only; its contents do
// not survive restarts.
func (c *StorageConfig) NewDriver(ctx context.Context) (driver.Driver, error) {
	switch c.Driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverBadger:
		return badger.New(c.Badger)
	case DriverS3:
		return s3.NewFromConfig(ctx, c.S3)
	case DriverMinio:
		return minio.New(c.Minio)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Driver)
	}
}

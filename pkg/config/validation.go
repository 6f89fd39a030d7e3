package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration against the struct validation
// tags and cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			return fmt.Errorf("invalid configuration: %s", formatValidationErrors(errs))
		}
		return err
	}

	// Driver-specific requirements only apply to the selected driver,
	// so they cannot live in struct tags on the driver configs.
	switch cfg.Storage.Driver {
	case DriverBadger:
		if cfg.Storage.Badger.Path == "" && !cfg.Storage.Badger.InMemory {
			return fmt.Errorf("invalid configuration: storage.badger.path is required unless in_memory is set")
		}
	case DriverS3:
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("invalid configuration: storage.s3.bucket is required")
		}
	case DriverMinio:
		if cfg.Storage.Minio.Endpoint == "" || cfg.Storage.Minio.Bucket == "" {
			return fmt.Errorf("invalid configuration: storage.minio.endpoint and storage.minio.bucket are required")
		}
	}

	return nil
}

// formatValidationErrors renders validator errors in a compact,
// readable form.
func formatValidationErrors(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %q", e.Namespace(), e.Tag()))
	}
	return strings.Join(msgs, "; ")
}

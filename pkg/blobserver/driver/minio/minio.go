// Package minio provides a MinIO-native blob driver using the MinIO
// Go client. Prefer this over the generic S3 driver when talking to a
// MinIO cluster directly with static credentials.
package minio

import (
	"context"
	"fmt"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/marmos91/dittoblob/pkg/blobserver/driver"
)

// metadataKey is the user-metadata key holding the encoded payload
// metadata envelope.
const metadataKey = "Payload-Metadata"

// Config holds configuration for the MinIO blob driver.
type Config struct {
	// Endpoint is the MinIO server host:port. Required.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Bucket is the bucket name. Required.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// AccessKeyID and SecretAccessKey are static credentials.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`

	// UseSSL enables TLS.
	UseSSL bool `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// Driver is a MinIO-backed implementation of driver.Driver.
type Driver struct {
	client *miniogo.Client
	bucket string
}

// New creates a MinIO blob driver.
func New(cfg Config) (*Driver, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Driver{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads the blob with its envelope as user metadata.
func (d *Driver) Put(ctx context.Context, r *driver.PutRequest) (*driver.PutResponse, error) {
	opts := miniogo.PutObjectOptions{
		ContentType:  "application/octet-stream",
		UserMetadata: map[string]string{metadataKey: r.Metadata},
	}

	if _, err := d.client.PutObject(ctx, d.bucket, r.Key, r.Data, r.ContentLength, opts); err != nil {
		return nil, fmt.Errorf("minio put object: %w", err)
	}

	return &driver.PutResponse{Key: r.Key}, nil
}

// Get streams the object; size and metadata come from a stat call so
// headers can be written before the body is drained.
func (d *Driver) Get(ctx context.Context, r *driver.GetRequest) (*driver.GetResponse, error) {
	stat, err := d.client.StatObject(ctx, d.bucket, r.Key, miniogo.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("key %q: %w", r.Key, driver.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("minio stat object: %w", err)
	}

	obj, err := d.client.GetObject(ctx, d.bucket, r.Key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object: %w", err)
	}

	return &driver.GetResponse{
		ContentLength: stat.Size,
		Metadata:      stat.UserMetadata[metadataKey],
		Data:          obj,
	}, nil
}

// Exist performs a stat call.
func (d *Driver) Exist(ctx context.Context, r *driver.ExistRequest) (*driver.ExistResponse, error) {
	_, err := d.client.StatObject(ctx, d.bucket, r.Key, miniogo.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return &driver.ExistResponse{Exists: false}, nil
		}
		return nil, fmt.Errorf("minio stat object: %w", err)
	}
	return &driver.ExistResponse{Exists: true}, nil
}

// Delete removes the object. Removing a missing key succeeds.
func (d *Driver) Delete(ctx context.Context, r *driver.DeleteRequest) (*driver.DeleteResponse, error) {
	if err := d.client.RemoveObject(ctx, d.bucket, r.Key, miniogo.RemoveObjectOptions{}); err != nil {
		return nil, fmt.Errorf("minio remove object: %w", err)
	}
	return &driver.DeleteResponse{}, nil
}

// Validate verifies the bucket exists and is reachable.
func (d *Driver) Validate(ctx context.Context) error {
	exists, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio bucket %q does not exist", d.bucket)
	}
	return nil
}

func isNotFound(err error) bool {
	resp := miniogo.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}

var (
	_ driver.Driver      = (*Driver)(nil)
	_ driver.Validatable = (*Driver)(nil)
)

// Package s3 provides an S3-backed blob driver.
package s3

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/dittoblob/pkg/blobserver/driver"
	"github.com/marmos91/dittoblob/pkg/codec/digest"
)

// metadataKey is the S3 user-metadata key holding the encoded payload
// metadata envelope. S3 caps user metadata at 2KB; envelopes beyond
// that fail the put, which surfaces as a server error to the client.
const metadataKey = "payload-metadata"

// Config holds configuration for the S3 blob driver.
type Config struct {
	// Bucket is the S3 bucket name. Required.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible
	// services).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ForcePathStyle forces path-style addressing (required for
	// Localstack/MinIO).
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style"`

	// StorageClass is the storage class for stored blobs.
	// Default: INTELLIGENT_TIERING.
	StorageClass string `mapstructure:"storage_class" yaml:"storage_class"`
}

// Driver is an S3-backed implementation of driver.Driver.
type Driver struct {
	client       *s3.Client
	bucket       string
	storageClass types.StorageClass
}

// New creates an S3 blob driver with an existing client.
func New(client *s3.Client, cfg Config) *Driver {
	storageClass := types.StorageClassIntelligentTiering
	if cfg.StorageClass != "" {
		storageClass = types.StorageClass(cfg.StorageClass)
	}
	return &Driver{
		client:       client,
		bucket:       cfg.Bucket,
		storageClass: storageClass,
	}
}

// NewFromConfig creates an S3 blob driver by building an S3 client
// from config. This is the preferred constructor when you don't have
// an existing client.
func NewFromConfig(ctx context.Context, cfg Config) (*Driver, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return New(s3.NewFromConfig(awsCfg, s3Opts...), cfg), nil
}

// checksumSHA256 converts a sha256:<hex> digest into the base64 form
// the S3 API expects for server-side checksum verification.
func checksumSHA256(d string) (string, error) {
	hexPart, err := digest.Parse(d)
	if err != nil {
		return "", err
	}
	raw, err := hex.DecodeString(hexPart)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// objectKey strips the leading slash; S3 keys are rooted implicitly.
func objectKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

// Put uploads the blob with server-side SHA-256 verification.
func (d *Driver) Put(ctx context.Context, r *driver.PutRequest) (*driver.PutResponse, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(objectKey(r.Key)),
		Body:          r.Data,
		ContentLength: aws.Int64(r.ContentLength),
		StorageClass:  d.storageClass,
		Metadata:      map[string]string{metadataKey: r.Metadata},
	}

	if r.Digest != "" {
		sum, err := checksumSHA256(r.Digest)
		if err != nil {
			return nil, fmt.Errorf("invalid digest for checksum: %w", err)
		}
		input.ChecksumAlgorithm = types.ChecksumAlgorithmSha256
		input.ChecksumSHA256 = aws.String(sum)
	}

	if _, err := d.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("s3 put object: %w", err)
	}

	return &driver.PutResponse{Key: r.Key}, nil
}

// Get streams the blob from S3; the response body is returned directly
// so large objects are never buffered here.
func (d *Driver) Get(ctx context.Context, r *driver.GetRequest) (*driver.GetResponse, error) {
	resp, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(objectKey(r.Key)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("key %q: %w", r.Key, driver.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("s3 get object: %w", err)
	}

	return &driver.GetResponse{
		ContentLength: aws.ToInt64(resp.ContentLength),
		Metadata:      resp.Metadata[metadataKey],
		Data:          resp.Body,
	}, nil
}

// Exist performs a HeadObject call.
func (d *Driver) Exist(ctx context.Context, r *driver.ExistRequest) (*driver.ExistResponse, error) {
	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(objectKey(r.Key)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return &driver.ExistResponse{Exists: false}, nil
		}
		return nil, fmt.Errorf("s3 head object: %w", err)
	}
	return &driver.ExistResponse{Exists: true}, nil
}

// Delete removes the object. S3 delete of a missing key succeeds.
func (d *Driver) Delete(ctx context.Context, r *driver.DeleteRequest) (*driver.DeleteResponse, error) {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(objectKey(r.Key)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 delete object: %w", err)
	}
	return &driver.DeleteResponse{}, nil
}

// Validate verifies the bucket is accessible.
func (d *Driver) Validate(ctx context.Context) error {
	_, err := d.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(d.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 bucket %q is not accessible: %w", d.bucket, err)
	}
	return nil
}

// isNotFoundError checks if an error is an S3 not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "404")
}

var (
	_ driver.Driver      = (*Driver)(nil)
	_ driver.Validatable = (*Driver)(nil)
)

// Package driver defines the storage backend interface for the blob
// service. Backends store opaque blobs under service-computed keys,
// together with the encoded metadata envelope so fetches can restore
// the transport header.
package driver

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound indicates the requested key does not exist in the
// backend. Handlers map it to 404.
var ErrBlobNotFound = errors.New("blob not found")

// Driver is the storage backend contract.
//
// Put is idempotent for a given key: keys are content-addressed by the
// service, so concurrent writers of the same key write identical bytes
// and overwrite is harmless.
type Driver interface {
	Put(ctx context.Context, r *PutRequest) (*PutResponse, error)
	Get(ctx context.Context, r *GetRequest) (*GetResponse, error)
	Exist(ctx context.Context, r *ExistRequest) (*ExistResponse, error)
	Delete(ctx context.Context, r *DeleteRequest) (*DeleteResponse, error)
}

// Validatable is implemented by drivers that can verify their own
// configuration and connectivity (used by health checks and startup).
type Validatable interface {
	Validate(ctx context.Context) error
}

// PutRequest describes one blob write.
type PutRequest struct {
	// Key is the full storage key computed by the service.
	Key string

	// Data is the blob content. Drivers must drain it exactly once.
	Data io.Reader

	// Digest is the content digest in sha256:<hex> form, available to
	// backends that support server-side checksum verification.
	Digest string

	// ContentLength is the exact blob size in bytes.
	ContentLength int64

	// Metadata is the encoded metadata envelope, persisted alongside
	// the blob and returned verbatim on Get.
	Metadata string
}

// PutResponse reports the key the blob was stored under.
type PutResponse struct {
	Key string
}

// GetRequest describes one blob read.
type GetRequest struct {
	Key string
}

// GetResponse carries the blob stream and its stored envelope. The
// caller owns Data and must close it.
type GetResponse struct {
	ContentLength int64
	Metadata      string
	Data          io.ReadCloser
}

// ExistRequest asks whether a key is already stored.
type ExistRequest struct {
	Key string
}

// ExistResponse answers an ExistRequest.
type ExistResponse struct {
	Exists bool
}

// DeleteRequest removes a blob by key.
type DeleteRequest struct {
	Key string
}

// DeleteResponse is empty; deletion of a missing key is not an error.
type DeleteResponse struct{}

// Package memory provides an in-memory blob driver for tests and
// development. Contents do not survive process restarts.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/marmos91/dittoblob/pkg/blobserver/driver"
)

type entry struct {
	data     []byte
	metadata string
}

// Driver is a map-backed implementation of driver.Driver. The zero
// value is ready to use.
type Driver struct {
	mu    sync.RWMutex
	blobs map[string]entry
}

// New creates an empty memory driver.
func New() *Driver {
	return &Driver{blobs: make(map[string]entry)}
}

// Put stores the blob under its key, overwriting any previous value.
func (d *Driver) Put(ctx context.Context, r *driver.PutRequest) (*driver.PutResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r.Data)
	if err != nil {
		return nil, fmt.Errorf("read blob data: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.blobs == nil {
		d.blobs = make(map[string]entry)
	}
	d.blobs[r.Key] = entry{data: data, metadata: r.Metadata}

	return &driver.PutResponse{Key: r.Key}, nil
}

// Get returns the stored blob, or driver.ErrBlobNotFound.
func (d *Driver) Get(ctx context.Context, r *driver.GetRequest) (*driver.GetResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	e, ok := d.blobs[r.Key]
	d.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("key %q: %w", r.Key, driver.ErrBlobNotFound)
	}

	return &driver.GetResponse{
		ContentLength: int64(len(e.data)),
		Metadata:      e.metadata,
		Data:          io.NopCloser(bytes.NewReader(e.data)),
	}, nil
}

// Exist reports whether a key is stored.
func (d *Driver) Exist(ctx context.Context, r *driver.ExistRequest) (*driver.ExistResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	_, ok := d.blobs[r.Key]
	d.mu.RUnlock()

	return &driver.ExistResponse{Exists: ok}, nil
}

// Delete removes a key. Deleting a missing key is a no-op.
func (d *Driver) Delete(ctx context.Context, r *driver.DeleteRequest) (*driver.DeleteResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	delete(d.blobs, r.Key)
	d.mu.Unlock()

	return &driver.DeleteResponse{}, nil
}

// Len returns the number of stored blobs. Intended for tests.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.blobs)
}

var _ driver.Driver = (*Driver)(nil)

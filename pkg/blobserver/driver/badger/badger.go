// Package badger provides a BadgerDB-backed blob driver for
// single-node deployments that want durability without an object
// store dependency.
package badger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/dittoblob/internal/logger"
	"github.com/marmos91/dittoblob/pkg/blobserver/driver"
)

// Key prefixes separate blob content from its metadata envelope.
var (
	prefixBlob = []byte("blob/")
	prefixMeta = []byte("meta/")
)

// Config holds configuration for the Badger blob driver.
type Config struct {
	// Path is the directory for the Badger value log and LSM tree.
	// Required unless InMemory is set.
	Path string `mapstructure:"path" yaml:"path"`

	// InMemory runs the database without persistence. Useful for tests.
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory"`
}

// Driver is a BadgerDB-backed implementation of driver.Driver.
type Driver struct {
	db     *badgerdb.DB
	closed bool
	mu     sync.RWMutex
}

// New opens the database and returns a ready driver.
func New(cfg Config) (*Driver, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger driver requires a path")
	}

	opts := badgerdb.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	logger.Info("badger blob driver opened", "path", cfg.Path, "in_memory", cfg.InMemory)

	return &Driver{db: db}, nil
}

func blobKey(key string) []byte {
	return append(append([]byte(nil), prefixBlob...), key...)
}

func metaKey(key string) []byte {
	return append(append([]byte(nil), prefixMeta...), key...)
}

func (d *Driver) checkOpen() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return fmt.Errorf("badger driver is closed")
	}
	return nil
}

// Put stores blob bytes and envelope in one transaction.
func (d *Driver) Put(ctx context.Context, r *driver.PutRequest) (*driver.PutResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r.Data)
	if err != nil {
		return nil, fmt.Errorf("read blob data: %w", err)
	}

	err = d.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set(blobKey(r.Key), data); err != nil {
			return fmt.Errorf("store blob: %w", err)
		}
		if err := txn.Set(metaKey(r.Key), []byte(r.Metadata)); err != nil {
			return fmt.Errorf("store blob metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &driver.PutResponse{Key: r.Key}, nil
}

// Get returns the stored blob, or driver.ErrBlobNotFound.
func (d *Driver) Get(ctx context.Context, r *driver.GetRequest) (*driver.GetResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	var (
		data     []byte
		metadata string
	)

	err := d.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(blobKey(r.Key))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("key %q: %w", r.Key, driver.ErrBlobNotFound)
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}

		metaItem, err := txn.Get(metaKey(r.Key))
		if err == badgerdb.ErrKeyNotFound {
			return nil // blob without envelope is legal
		}
		if err != nil {
			return err
		}
		metaBytes, err := metaItem.ValueCopy(nil)
		if err != nil {
			return err
		}
		metadata = string(metaBytes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &driver.GetResponse{
		ContentLength: int64(len(data)),
		Metadata:      metadata,
		Data:          io.NopCloser(bytes.NewReader(data)),
	}, nil
}

// Exist reports whether a key is stored.
func (d *Driver) Exist(ctx context.Context, r *driver.ExistRequest) (*driver.ExistResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	var exists bool
	err := d.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(blobKey(r.Key))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &driver.ExistResponse{Exists: exists}, nil
}

// Delete removes a key and its envelope. Missing keys are a no-op.
func (d *Driver) Delete(ctx context.Context, r *driver.DeleteRequest) (*driver.DeleteResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	err := d.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Delete(blobKey(r.Key)); err != nil {
			return err
		}
		return txn.Delete(metaKey(r.Key))
	})
	if err != nil {
		return nil, err
	}

	return &driver.DeleteResponse{}, nil
}

// Validate verifies the database is usable.
func (d *Driver) Validate(ctx context.Context) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.db.View(func(txn *badgerdb.Txn) error {
		return nil
	})
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

var (
	_ driver.Driver      = (*Driver)(nil)
	_ driver.Validatable = (*Driver)(nil)
)

package badger

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoblob/pkg/blobserver/driver"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()

	d, err := New(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestPutGetRoundTrip(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	_, err := d.Put(ctx, &driver.PutRequest{
		Key:           "/blobs/ns/common/abc/def",
		Data:          bytes.NewReader([]byte("persistent bytes")),
		ContentLength: 16,
		Metadata:      "ZW52ZWxvcGU=",
	})
	require.NoError(t, err)

	resp, err := d.Get(ctx, &driver.GetRequest{Key: "/blobs/ns/common/abc/def"})
	require.NoError(t, err)
	defer resp.Data.Close()

	data, err := io.ReadAll(resp.Data)
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent bytes"), data)
	assert.Equal(t, "ZW52ZWxvcGU=", resp.Metadata)
}

func TestGetMissingKey(t *testing.T) {
	d := newTestDriver(t)

	_, err := d.Get(context.Background(), &driver.GetRequest{Key: "missing"})
	assert.ErrorIs(t, err, driver.ErrBlobNotFound)
}

func TestExistAndDelete(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	_, err := d.Put(ctx, &driver.PutRequest{Key: "k", Data: bytes.NewReader([]byte("x"))})
	require.NoError(t, err)

	exists, err := d.Exist(ctx, &driver.ExistRequest{Key: "k"})
	require.NoError(t, err)
	assert.True(t, exists.Exists)

	_, err = d.Delete(ctx, &driver.DeleteRequest{Key: "k"})
	require.NoError(t, err)

	exists, err = d.Exist(ctx, &driver.ExistRequest{Key: "k"})
	require.NoError(t, err)
	assert.False(t, exists.Exists)
}

func TestValidate(t *testing.T) {
	d := newTestDriver(t)
	require.NoError(t, d.Validate(context.Background()))

	require.NoError(t, d.Close())
	assert.Error(t, d.Validate(context.Background()))
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

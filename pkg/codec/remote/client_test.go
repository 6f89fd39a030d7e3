package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoblob/pkg/codec/digest"
	"github.com/marmos91/dittoblob/pkg/codec/envelope"
)

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	data := []byte("some blob content")
	dgst := digest.FromBytes(data)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v2/blobs/put", r.URL.Path)
		assert.Equal(t, dgst, r.URL.Query().Get("digest"))
		assert.Equal(t, "ns1", r.URL.Query().Get("namespace"))
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))

		md, err := envelope.Decode(r.Header.Get(envelope.Header))
		require.NoError(t, err)
		assert.Equal(t, []byte("bar"), md["foo"])

		body := new(bytes.Buffer)
		_, err = body.ReadFrom(r.Body)
		require.NoError(t, err)
		assert.Equal(t, data, body.Bytes())

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"key": "/blobs/ns1/common/x/y"})
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	key, err := c.Store(context.Background(), StoreRequest{
		Data:      bytes.NewReader(data),
		Size:      int64(len(data)),
		Digest:    dgst,
		Namespace: "ns1",
		Metadata:  map[string][]byte{"foo": []byte("bar")},
	})
	require.NoError(t, err)
	assert.Equal(t, "/blobs/ns1/common/x/y", key)
}

func TestStoreTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.Store(context.Background(), StoreRequest{
		Data: bytes.NewReader([]byte("x")), Size: 1,
		Digest: digest.FromBytes([]byte("x")), Namespace: "ns1",
	})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
}

func TestFetch(t *testing.T) {
	data := []byte("fetched content")
	md, err := envelope.Encode(map[string][]byte{"foo": []byte("bar")})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/blobs/get", r.URL.Path)
		assert.Equal(t, "the-key", r.URL.Query().Get("key"))
		assert.Equal(t, "15", r.Header.Get(ExpectedLengthHeader))

		w.Header().Set(envelope.Header, md)
		w.Write(data)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	res, err := c.Fetch(context.Background(), "the-key", int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, res.Data)
	assert.Equal(t, digest.FromBytes(data), res.Digest)
	assert.Equal(t, []byte("bar"), res.Metadata["foo"])
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such blob", http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "missing", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckHealth(t *testing.T) {
	var sawHead bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/v2/health/head" {
			sawHead = true
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	require.NoError(t, c.CheckHealth(context.Background()))
	assert.True(t, sawHead)
}

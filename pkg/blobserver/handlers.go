package blobserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/marmos91/dittoblob/internal/logger"
	"github.com/marmos91/dittoblob/pkg/blobserver/driver"
	"github.com/marmos91/dittoblob/pkg/codec/digest"
	"github.com/marmos91/dittoblob/pkg/codec/envelope"
	"github.com/marmos91/dittoblob/pkg/codec/remote"
)

// BlobMetrics observes blob traffic. A nil BlobMetrics disables
// observation with zero overhead.
type BlobMetrics interface {
	// RecordBlobStored records one accepted put and its size.
	RecordBlobStored(bytes int64)

	// RecordBlobFetched records one served get and its size.
	RecordBlobFetched(bytes int64)

	// RecordChecksumMismatch records a put rejected because the body
	// did not match the claimed digest.
	RecordChecksumMismatch()
}

// blobHandler serves the /v2/blobs endpoints.
type blobHandler struct {
	driver       driver.Driver
	maxBlobBytes int64
	metrics      BlobMetrics
}

// putBlob handles PUT /v2/blobs/put.
//
// The body is hashed while it streams into the driver; a mismatch
// against the claimed digest rejects the blob and removes the partial
// object, so a corrupted upload can never be fetched later.
func (b *blobHandler) putBlob(w http.ResponseWriter, r *http.Request) {
	if contentType := r.Header.Get("Content-Type"); contentType != "application/octet-stream" {
		b.handleError(w, fmt.Errorf("missing or incorrect Content-Type header"), http.StatusBadRequest)
		return
	}

	if r.ContentLength < 0 {
		b.handleError(w, nil, http.StatusLengthRequired)
		return
	}
	if r.ContentLength > b.maxBlobBytes {
		b.handleError(w, fmt.Errorf("blob exceeds max size of %d bytes", b.maxBlobBytes), http.StatusRequestEntityTooLarge)
		return
	}

	namespace := r.URL.Query().Get("namespace")
	if namespace == "" {
		b.handleError(w, errors.New("namespace query parameter is required"), http.StatusBadRequest)
		return
	}

	dgst := r.URL.Query().Get("digest")
	if dgst == "" {
		b.handleError(w, errors.New("digest query parameter is required"), http.StatusBadRequest)
		return
	}
	if _, err := digest.Parse(dgst); err != nil {
		b.handleError(w, err, http.StatusBadRequest)
		return
	}

	rawMetadata := r.Header.Get(envelope.Header)
	metadata, err := envelope.Decode(rawMetadata)
	if err != nil {
		b.handleError(w, err, http.StatusBadRequest)
		return
	}

	key, err := computeKey(namespace, dgst, metadata)
	if err != nil {
		b.handleError(w, err, http.StatusBadRequest)
		return
	}

	exists, err := b.driver.Exist(r.Context(), &driver.ExistRequest{Key: key})
	if err != nil {
		b.handleError(w, err, http.StatusInternalServerError)
		return
	}
	if exists.Exists {
		// Content-addressed dedup: same namespace, digest and metadata
		// always map to the same key, so the stored bytes are identical.
		writeJSON(w, http.StatusOK, keyResponse{Key: key})
		return
	}

	body := digest.NewReader(r.Body)
	result, err := b.driver.Put(r.Context(), &driver.PutRequest{
		Key:           key,
		Data:          body,
		Digest:        dgst,
		ContentLength: r.ContentLength,
		Metadata:      rawMetadata,
	})
	if err != nil {
		b.handleError(w, err, http.StatusInternalServerError)
		return
	}

	if body.Digest() != dgst {
		if b.metrics != nil {
			b.metrics.RecordChecksumMismatch()
		}
		// Best effort: don't leave unverifiable bytes behind.
		if _, derr := b.driver.Delete(r.Context(), &driver.DeleteRequest{Key: key}); derr != nil {
			logger.Warn("failed to remove blob after checksum mismatch", "key", key, "error", derr)
		}
		b.handleError(w, fmt.Errorf("checksum mismatch: claimed %s, got %s", dgst, body.Digest()), http.StatusBadRequest)
		return
	}

	if b.metrics != nil {
		b.metrics.RecordBlobStored(body.Count())
	}

	logger.Info("blob stored",
		"namespace", namespace,
		"key", result.Key,
		"size", body.Count(),
	)

	writeJSON(w, http.StatusCreated, keyResponse{Key: result.Key})
}

// keyResponse is the put response body.
type keyResponse struct {
	Key string `json:"key"`
}

// getBlob handles GET /v2/blobs/get.
func (b *blobHandler) getBlob(w http.ResponseWriter, r *http.Request) {
	if contentType := r.Header.Get("Content-Type"); contentType != "application/octet-stream" {
		b.handleError(w, fmt.Errorf("missing or incorrect Content-Type header"), http.StatusBadRequest)
		return
	}

	expectedLengthHeader := r.Header.Get(remote.ExpectedLengthHeader)
	if expectedLengthHeader == "" {
		b.handleError(w, fmt.Errorf("%s header is required", remote.ExpectedLengthHeader), http.StatusBadRequest)
		return
	}
	if _, err := strconv.ParseUint(expectedLengthHeader, 10, 64); err != nil {
		b.handleError(w, fmt.Errorf("%s header %q is invalid: %w", remote.ExpectedLengthHeader, expectedLengthHeader, err), http.StatusBadRequest)
		return
	}

	keyParam := r.URL.Query().Get("key")
	if keyParam == "" {
		b.handleError(w, errors.New("key query parameter is required"), http.StatusBadRequest)
		return
	}
	key, err := url.QueryUnescape(keyParam)
	if err != nil {
		b.handleError(w, fmt.Errorf("key query parameter %q cannot be unescaped: %w", keyParam, err), http.StatusBadRequest)
		return
	}

	resp, err := b.driver.Get(r.Context(), &driver.GetRequest{Key: key})
	if err != nil {
		if errors.Is(err, driver.ErrBlobNotFound) {
			b.handleError(w, err, http.StatusNotFound)
		} else {
			b.handleError(w, err, http.StatusInternalServerError)
		}
		return
	}
	defer resp.Data.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set(envelope.Header, resp.Metadata)
	if resp.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}

	n, err := io.Copy(w, resp.Data)
	if err != nil {
		// Headers are gone; nothing to do but log.
		logger.Error("failed to stream blob", "key", key, "error", err)
		return
	}

	if b.metrics != nil {
		b.metrics.RecordBlobFetched(n)
	}

	logger.Debug("blob served", "key", key, "size", n)
}

func (b *blobHandler) handleError(w http.ResponseWriter, err error, statusCode int) {
	if err != nil {
		logger.Error("blob request failed", "status", statusCode, "error", err)
	}
	w.WriteHeader(statusCode)
	if err != nil {
		_, _ = w.Write([]byte(err.Error()))
	}
}

// healthHandler serves liveness and readiness endpoints.
type healthHandler struct {
	driver driver.Driver
}

// head handles HEAD /v2/health/head, the probe codec clients use at
// startup.
func (h *healthHandler) head(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// health handles GET /health with a JSON body, validating the storage
// driver when it supports validation.
func (h *healthHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if v, ok := h.driver.(driver.Validatable); ok {
		if err := v.Validate(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
			return
		}
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{"storage": "ok"}))
}

// Package remote implements the HTTP client for the blob service: the
// two physical operations (store by digest, fetch by key) plus the
// health probe. It owns the transport-level error taxonomy; integrity
// decisions belong to the codec layer on top.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/marmos91/dittoblob/pkg/codec/digest"
	"github.com/marmos91/dittoblob/pkg/codec/envelope"
)

// Version is the wire protocol version this client speaks.
const Version = "v2"

// ExpectedLengthHeader communicates the expected blob size on fetch.
// The service uses it to set Content-Length before streaming.
const ExpectedLengthHeader = "X-Payload-Expected-Content-Length"

// ErrNotFound is returned by Fetch when the service reports no blob
// under the requested key. It is distinct from transport failures so
// callers can diagnose "never stored or expired" separately.
var ErrNotFound = errors.New("blob not found")

// TransportError is a non-success response from the blob service.
// It is not retried here; retry policy belongs to the caller's
// http.Client (both operations are idempotent under the same
// digest/key, so retrying is safe).
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("blob service returned status %d: %s", e.StatusCode, e.Body)
}

// Config holds configuration for the blob service client.
type Config struct {
	// BaseURL is the root URL of the blob service. Required.
	BaseURL string

	// HTTPClient is the client used for all requests. Optional;
	// http.DefaultClient is used when nil. Authentication, tracing and
	// retries are configured here via a custom Transport.
	HTTPClient *http.Client
}

// Client talks to the blob service.
type Client struct {
	client *http.Client
	base   *url.URL
}

// NewClient creates a Client from config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("a blob service base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid blob service URL %q: %w", cfg.BaseURL, err)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{client: client, base: base}, nil
}

// CheckHealth probes the service liveness endpoint.
func (c *Client) CheckHealth(ctx context.Context) error {
	u := c.base.JoinPath(Version, "health", "head")
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{StatusCode: resp.StatusCode}
	}
	return nil
}

// StoreRequest describes one blob upload.
type StoreRequest struct {
	// Data is the blob content. It is streamed as the request body.
	Data io.Reader

	// Size is the exact content length in bytes.
	Size int64

	// Digest is the content digest in sha256:<hex> form. The service
	// recomputes and rejects mismatches.
	Digest string

	// Namespace scopes the stored object to one logical tenant.
	Namespace string

	// Metadata is the original payload metadata, carried in the
	// transport header so the service can persist it with the blob.
	Metadata map[string][]byte
}

// keyResponse is the service's answer to a successful put.
type keyResponse struct {
	Key string `json:"key"`
}

// Store uploads a blob under its content address and returns the
// service-assigned key. Idempotent: storing the same digest and
// metadata again yields the same key.
func (c *Client) Store(ctx context.Context, r StoreRequest) (string, error) {
	u := c.base.JoinPath(Version, "blobs", "put")
	q := u.Query()
	q.Set("digest", r.Digest)
	q.Set("namespace", r.Namespace)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), r.Data)
	if err != nil {
		return "", err
	}
	req.ContentLength = r.Size
	req.Header.Set("Content-Type", "application/octet-stream")

	md, err := envelope.Encode(r.Metadata)
	if err != nil {
		return "", err
	}
	req.Header.Set(envelope.Header, md)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read put response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var kr keyResponse
	if err := json.Unmarshal(body, &kr); err != nil {
		return "", fmt.Errorf("unmarshal put response: %w", err)
	}
	if kr.Key == "" {
		return "", errors.New("blob service returned an empty key")
	}

	return kr.Key, nil
}

// FetchResult is a downloaded blob plus what came back alongside it.
type FetchResult struct {
	// Data is the drained blob content.
	Data []byte

	// Metadata is the envelope recovered from the response header.
	Metadata map[string][]byte

	// Digest is the digest of the drained bytes, computed while
	// streaming. Callers compare it against the recorded digest.
	Digest string
}

// Fetch downloads a blob by key. The body is hashed as it is drained
// so integrity verification needs no second pass over the data.
func (c *Client) Fetch(ctx context.Context, key string, expectedSize int64) (*FetchResult, error) {
	u := c.base.JoinPath(Version, "blobs", "get")
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(ExpectedLengthHeader, strconv.FormatInt(expectedSize, 10))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	md, err := envelope.Decode(resp.Header.Get(envelope.Header))
	if err != nil {
		return nil, err
	}

	dr := digest.NewReader(resp.Body)
	data, err := io.ReadAll(dr)
	if err != nil {
		return nil, fmt.Errorf("read blob body: %w", err)
	}

	return &FetchResult{
		Data:     data,
		Metadata: md,
		Digest:   dr.Digest(),
	}, nil
}

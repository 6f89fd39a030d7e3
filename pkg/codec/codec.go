// Package codec implements the offload dispatcher: a payload codec
// that replaces oversized payloads with compact references to content-
// addressed remote storage, and transparently rehydrates them on
// decode, verifying integrity against the recorded digest.
package codec

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/dittoblob/internal/logger"
	"github.com/marmos91/dittoblob/pkg/codec/digest"
	"github.com/marmos91/dittoblob/pkg/codec/remote"
	"github.com/marmos91/dittoblob/pkg/payload"
)

// DefaultMinBytes is the offload threshold when none is configured.
// 128KB happens to be the lower bound for blobs eligible for AWS S3
// Intelligent-Tiering.
const DefaultMinBytes = 128_000

// DefaultMaxConcurrency bounds per-batch parallel transformations.
const DefaultMaxConcurrency = 8

// Metrics observes codec operations. Implementations must tolerate
// being called from concurrent batch workers. A nil Metrics disables
// observation with zero overhead.
type Metrics interface {
	// ObserveOffload records one payload stored remotely.
	ObserveOffload(bytes int64, duration time.Duration, err error)

	// ObserveRehydrate records one payload recovered from remote storage.
	ObserveRehydrate(bytes int64, duration time.Duration, err error)

	// RecordIntegrityFailure records a digest or size mismatch on decode.
	RecordIntegrityFailure()
}

// Config holds codec configuration.
type Config struct {
	// Namespace scopes stored objects to one logical tenant. It is
	// fixed per codec instance and never derived from payload content.
	// Required.
	Namespace string `validate:"required"`

	// BaseURL is the root URL of the blob service. Required.
	BaseURL string `validate:"required"`

	// MinBytes is the minimum encoded payload size that triggers
	// offloading. Payloads at or below this size pass through
	// untouched. Default: DefaultMinBytes.
	//
	// Setting this too low degrades performance: decoding costs one
	// network round trip per offloaded payload, which adds up quickly
	// when replaying long histories.
	MinBytes int `validate:"omitempty,min=1"`

	// MaxConcurrency bounds how many payloads of one batch are
	// transformed in parallel. Default: DefaultMaxConcurrency.
	MaxConcurrency int `validate:"omitempty,min=1"`

	// HTTPClient overrides the transport used for blob service calls.
	// Authentication, tracing and retry policy belong here.
	HTTPClient *http.Client

	// Inband overrides the in-band encoding used to serialize
	// reference records. Defaults to plain JSON.
	Inband InbandCodec

	// Metrics receives operation observations. Optional.
	Metrics Metrics

	// SkipHealthCheck disables the connectivity probe performed by New.
	SkipHealthCheck bool
}

var validate = validator.New()

// Codec offloads large payloads to a remote content-addressed blob
// store and rehydrates them on decode. It is safe for concurrent use.
type Codec struct {
	client         *remote.Client
	inband         InbandCodec
	metrics        Metrics
	namespace      string
	minBytes       int
	maxConcurrency int
}

// New creates a Codec. Namespace and BaseURL are required; unless
// SkipHealthCheck is set, New verifies the blob service is reachable
// before returning.
func New(cfg Config) (*Codec, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid codec config: %w", err)
	}

	if cfg.MinBytes == 0 {
		cfg.MinBytes = DefaultMinBytes
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Inband == nil {
		cfg.Inband = jsonInband{}
	}

	client, err := remote.NewClient(remote.Config{
		BaseURL:    cfg.BaseURL,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}

	c := &Codec{
		client:         client,
		inband:         cfg.Inband,
		metrics:        cfg.Metrics,
		namespace:      cfg.Namespace,
		minBytes:       cfg.MinBytes,
		maxConcurrency: cfg.MaxConcurrency,
	}

	if !cfg.SkipHealthCheck {
		if err := client.CheckHealth(context.Background()); err != nil {
			return nil, fmt.Errorf("blob service health check failed: %w", err)
		}
	}

	return c, nil
}

// Encode transforms a batch of payloads, offloading each one whose
// encoded size exceeds the threshold. The result has the same length
// and order as the input; payloads at or below the threshold are
// returned unchanged with no network calls. The first failure aborts
// the whole batch.
func (c *Codec) Encode(ctx context.Context, payloads []*payload.Payload) ([]*payload.Payload, error) {
	return c.transform(ctx, payloads, c.encodePayload)
}

// Decode reverses Encode: payloads carrying the remote codec marker
// are rehydrated from remote storage and verified against the recorded
// digest; all others pass through unchanged. Order and cardinality are
// preserved, and the first failure aborts the whole batch.
func (c *Codec) Decode(ctx context.Context, payloads []*payload.Payload) ([]*payload.Payload, error) {
	return c.transform(ctx, payloads, c.decodePayload)
}

// transform runs the per-payload transformation over a batch with
// bounded concurrency, reassembling results in input order.
func (c *Codec) transform(
	ctx context.Context,
	payloads []*payload.Payload,
	fn func(context.Context, *payload.Payload) (*payload.Payload, error),
) ([]*payload.Payload, error) {
	result := make([]*payload.Payload, len(payloads))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrency)

	for i, p := range payloads {
		i, p := i, p
		g.Go(func() error {
			out, err := fn(ctx, p)
			if err != nil {
				return err
			}
			result[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// encodePayload offloads a single payload if it is over the threshold.
func (c *Codec) encodePayload(ctx context.Context, p *payload.Payload) (*payload.Payload, error) {
	if p.Size() <= c.minBytes {
		return p, nil
	}

	start := time.Now()
	encoded, err := c.offload(ctx, p)
	if c.metrics != nil {
		c.metrics.ObserveOffload(int64(len(p.Data)), time.Since(start), err)
	}
	return encoded, err
}

func (c *Codec) offload(ctx context.Context, p *payload.Payload) (*payload.Payload, error) {
	dgst := digest.FromBytes(p.Data)

	key, err := c.client.Store(ctx, remote.StoreRequest{
		Data:      bytes.NewReader(p.Data),
		Size:      int64(len(p.Data)),
		Digest:    dgst,
		Namespace: c.namespace,
		Metadata:  p.Metadata,
	})
	if err != nil {
		return nil, err
	}

	ref := Reference{
		Metadata: p.Metadata,
		Size:     int64(len(p.Data)),
		Digest:   dgst,
		Key:      key,
	}

	result, err := c.inband.ToPayload(ref)
	if err != nil {
		return nil, fmt.Errorf("serialize reference record: %w", err)
	}
	if result.Metadata == nil {
		result.Metadata = make(map[string][]byte, 1)
	}
	result.Metadata[payload.RemoteCodecKey] = []byte(remote.Version)

	logger.Debug("payload offloaded",
		"namespace", c.namespace,
		"key", key,
		"digest", dgst,
		"size", len(p.Data),
	)

	return result, nil
}

// decodePayload rehydrates a single payload if it carries the marker.
func (c *Codec) decodePayload(ctx context.Context, p *payload.Payload) (*payload.Payload, error) {
	version, ok := p.Metadata[payload.RemoteCodecKey]
	if !ok {
		return p, nil
	}
	if string(version) != remote.Version {
		return nil, &MalformedReferenceError{
			Reason: fmt.Sprintf("unknown %s version %q", payload.RemoteCodecKey, version),
		}
	}

	start := time.Now()
	decoded, err := c.rehydrate(ctx, p)

	var size int64
	if decoded != nil {
		size = int64(len(decoded.Data))
	}
	if c.metrics != nil {
		c.metrics.ObserveRehydrate(size, time.Since(start), err)
	}
	return decoded, err
}

func (c *Codec) rehydrate(ctx context.Context, p *payload.Payload) (*payload.Payload, error) {
	var ref Reference
	if err := c.inband.FromPayload(p, &ref); err != nil {
		return nil, &MalformedReferenceError{Reason: "undecodable reference record", Err: err}
	}
	if err := ref.validate(); err != nil {
		return nil, err
	}

	res, err := c.client.Fetch(ctx, ref.Key, ref.Size)
	if err != nil {
		return nil, err
	}

	if int64(len(res.Data)) != ref.Size || res.Digest != ref.Digest {
		if c.metrics != nil {
			c.metrics.RecordIntegrityFailure()
		}
		return nil, &IntegrityError{
			Key:        ref.Key,
			WantDigest: ref.Digest,
			GotDigest:  res.Digest,
			WantSize:   ref.Size,
			GotSize:    int64(len(res.Data)),
		}
	}

	logger.Debug("payload rehydrated",
		"namespace", c.namespace,
		"key", ref.Key,
		"size", len(res.Data),
	)

	// The record's metadata copy is authoritative for reconstruction;
	// the transport header is diagnostic only.
	return &payload.Payload{
		Metadata: payload.CloneMetadata(ref.Metadata),
		Data:     res.Data,
	}, nil
}

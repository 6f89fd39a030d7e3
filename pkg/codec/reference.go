package codec

import (
	"encoding/json"

	"github.com/marmos91/dittoblob/pkg/codec/digest"
	"github.com/marmos91/dittoblob/pkg/payload"
)

// Reference is the record that replaces an offloaded payload's content.
// It is ephemeral: built during encode, carried inline, consumed during
// decode, then discarded once the original bytes are recovered.
type Reference struct {
	// Metadata is a copy of the original payload's metadata.
	Metadata map[string][]byte `json:"metadata"`

	// Size is the number of bytes in the original payload data.
	Size int64 `json:"size"`

	// Digest is the content digest of the original data, in
	// sha256:<hex> form.
	Digest string `json:"digest"`

	// Key locates the blob in remote storage. Opaque, assigned by the
	// service.
	Key string `json:"key"`
}

// validate checks the fields decode depends on.
func (r *Reference) validate() error {
	if r.Key == "" {
		return &MalformedReferenceError{Reason: "empty storage key"}
	}
	if r.Size < 0 {
		return &MalformedReferenceError{Reason: "negative size"}
	}
	if _, err := digest.Parse(r.Digest); err != nil {
		return &MalformedReferenceError{Reason: "invalid digest", Err: err}
	}
	return nil
}

// InbandCodec turns values into in-band payloads and back. It stands in
// for the host runtime's default application-data encoding; reference
// records pass through it so they look like any other payload on the
// wire.
type InbandCodec interface {
	ToPayload(v any) (*payload.Payload, error)
	FromPayload(p *payload.Payload, v any) error
}

// jsonInband is the default in-band encoding: plain JSON with an
// "encoding" metadata entry, mirroring what host runtimes do for
// untyped values.
type jsonInband struct{}

func (jsonInband) ToPayload(v any) (*payload.Payload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &payload.Payload{
		Metadata: map[string][]byte{"encoding": []byte("json/plain")},
		Data:     data,
	}, nil
}

func (jsonInband) FromPayload(p *payload.Payload, v any) error {
	return json.Unmarshal(p.Data, v)
}

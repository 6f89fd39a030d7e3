// Package payload defines the message unit the codec operates on: an
// opaque byte sequence with string-keyed, byte-valued metadata.
package payload

// RemoteCodecKey is the reserved metadata key marking a payload whose
// Data is a serialized reference record rather than application data.
// Its value carries the wire protocol version (e.g. "v2").
const RemoteCodecKey = "temporal.io/remote-codec"

// Kind discriminates the two meanings a payload can have. A payload
// either carries application data or a reference record, never both.
type Kind int

const (
	// KindApplication means Data is application data.
	KindApplication Kind = iota

	// KindReference means Data is a serialized reference record
	// pointing at remotely stored bytes.
	KindReference
)

// Payload is a unit of byte data with attached key/value metadata.
//
// Payloads are treated as immutable once constructed: the codec never
// mutates an input payload, it returns replacements.
type Payload struct {
	Metadata map[string][]byte `json:"metadata,omitempty"`
	Data     []byte            `json:"data,omitempty"`
}

// Kind reports whether the payload carries application data or a
// reference record, based on the presence of the remote codec marker.
func (p *Payload) Kind() Kind {
	if p == nil {
		return KindApplication
	}
	if _, ok := p.Metadata[RemoteCodecKey]; ok {
		return KindReference
	}
	return KindApplication
}

// Size returns the encoded byte length of the payload: data plus
// metadata keys and values. Offload threshold comparisons use this
// rather than len(Data) alone so metadata overhead is accounted for.
func (p *Payload) Size() int {
	if p == nil {
		return 0
	}
	n := len(p.Data)
	for k, v := range p.Metadata {
		n += len(k) + len(v)
	}
	return n
}

// Clone returns a deep copy of the payload.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	out := &Payload{
		Data: append([]byte(nil), p.Data...),
	}
	if p.Metadata != nil {
		out.Metadata = CloneMetadata(p.Metadata)
	}
	return out
}

// CloneMetadata returns a deep copy of a metadata map.
func CloneMetadata(md map[string][]byte) map[string][]byte {
	if md == nil {
		return nil
	}
	out := make(map[string][]byte, len(md))
	for k, v := range md {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

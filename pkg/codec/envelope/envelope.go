// Package envelope encodes payload metadata into the transport-safe
// form carried by the X-Temporal-Metadata header: base64 of the JSON
// object mapping metadata keys to their (base64-encoded) byte values.
package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Header is the HTTP header carrying the metadata envelope.
const Header = "X-Temporal-Metadata"

// Encode serializes a metadata map into a header-safe string.
// A nil or empty map encodes to the empty object, never an error.
func Encode(md map[string][]byte) (string, error) {
	if md == nil {
		md = map[string][]byte{}
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode reverses Encode. The empty string decodes to an empty map so
// callers never need to special-case a missing header.
func Decode(s string) (map[string][]byte, error) {
	if s == "" {
		return map[string][]byte{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode metadata envelope: %w", err)
	}
	var md map[string][]byte
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("unmarshal metadata envelope: %w", err)
	}
	if md == nil {
		md = map[string][]byte{}
	}
	return md, nil
}

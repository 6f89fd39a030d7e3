// Package digest computes content digests in the canonical
// "sha256:<64 lowercase hex>" form used throughout the wire protocol.
//
// Hashing is incremental: large payloads are fed in chunks, and the
// same stream that is hashed can be the one transmitted or received,
// so no second in-memory copy is needed just for integrity checking.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// Prefix identifies the hash algorithm in rendered digests.
const Prefix = "sha256:"

// hexLength is the length of a rendered SHA-256 hex string.
const hexLength = sha256.Size * 2

// FromBytes returns the digest of a byte slice.
func FromBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return Prefix + hex.EncodeToString(sum[:])
}

// Hasher accumulates bytes incrementally. Identical byte sequences
// yield identical digests regardless of how writes are chunked.
type Hasher struct {
	h hash.Hash
	n int64
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Write feeds bytes into the hash. It never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	n, err := h.h.Write(p)
	h.n += int64(n)
	return n, err
}

// Digest renders the digest of everything written so far.
func (h *Hasher) Digest() string {
	return Prefix + hex.EncodeToString(h.h.Sum(nil))
}

// Count returns the number of bytes written so far.
func (h *Hasher) Count() int64 {
	return h.n
}

// Reader wraps an io.Reader and hashes bytes as they are drained.
// The digest reflects exactly the bytes the caller has consumed,
// never the stream handle itself.
type Reader struct {
	r io.Reader
	h *Hasher
}

// NewReader returns a Reader hashing everything read through it.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, h: NewHasher()}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		// hash.Hash.Write never fails
		r.h.Write(p[:n])
	}
	return n, err
}

// Digest renders the digest of the bytes read so far. Call after the
// stream is fully drained to get the digest of the whole body.
func (r *Reader) Digest() string {
	return r.h.Digest()
}

// Count returns the number of bytes read so far.
func (r *Reader) Count() int64 {
	return r.h.Count()
}

// Parse validates a rendered digest and returns its hex portion.
func Parse(s string) (string, error) {
	rest, ok := strings.CutPrefix(s, Prefix)
	if !ok {
		return "", fmt.Errorf("digest %q does not start with %q", s, Prefix)
	}
	if len(rest) != hexLength {
		return "", fmt.Errorf("digest %q: want %d hex chars, got %d", s, hexLength, len(rest))
	}
	if _, err := hex.DecodeString(rest); err != nil {
		return "", fmt.Errorf("digest %q is not valid hex: %w", s, err)
	}
	if strings.ToLower(rest) != rest {
		return "", fmt.Errorf("digest %q must be lowercase hex", s)
	}
	return rest, nil
}

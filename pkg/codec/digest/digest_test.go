package digest

import (
	"bytes"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytesKnownValue(t *testing.T) {
	// sha256("hello world")
	want := "sha256:b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	assert.Equal(t, want, FromBytes([]byte("hello world")))
}

func TestHasherMatchesFromBytes(t *testing.T) {
	data := make([]byte, 1<<16)
	_, err := rand.Read(data)
	require.NoError(t, err)

	h := NewHasher()
	rest := data
	// Feed in uneven chunks
	for _, n := range []int{1, 7, 1024, 3000} {
		h.Write(rest[:n])
		rest = rest[n:]
	}
	h.Write(rest)

	assert.Equal(t, FromBytes(data), h.Digest())
}

func TestChunkSizeIndependence(t *testing.T) {
	data := []byte(strings.Repeat("abcdefgh", 1000))

	whole := FromBytes(data)

	h := NewHasher()
	for i := 0; i < len(data); i += 13 {
		end := i + 13
		if end > len(data) {
			end = len(data)
		}
		h.Write(data[i:end])
	}

	assert.Equal(t, whole, h.Digest())
	assert.Equal(t, int64(len(data)), h.Count())
}

func TestReaderHashesDrainedBytes(t *testing.T) {
	data := []byte("stream me through the hasher")
	r := NewReader(bytes.NewReader(data))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, FromBytes(data), r.Digest())
	assert.Equal(t, int64(len(data)), r.Count())
}

func TestParse(t *testing.T) {
	valid := FromBytes([]byte("x"))
	hexPart, err := Parse(valid)
	require.NoError(t, err)
	assert.Len(t, hexPart, 64)

	cases := []string{
		"md5:abc",
		"sha256:tooshort",
		"sha256:" + strings.Repeat("Z", 64),
		"sha256:" + strings.ToUpper(hexPart),
		strings.TrimPrefix(valid, "sha256:"),
	}
	for _, c := range cases {
		_, err := Parse(c)
		assert.Error(t, err, "expected %q to be rejected", c)
	}
}

func TestDigestDeterminism(t *testing.T) {
	data := []byte("determinism")
	assert.Equal(t, FromBytes(data), FromBytes(data))
}

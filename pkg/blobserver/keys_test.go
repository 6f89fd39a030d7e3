package blobserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoblob/pkg/codec/digest"
)

func TestComputeKeyCommon(t *testing.T) {
	dgst := digest.FromBytes([]byte("payload"))

	key, err := computeKey("default", dgst, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "/blobs/default/common/"+dgst+"/"))
}

func TestComputeKeyCustomPrefix(t *testing.T) {
	dgst := digest.FromBytes([]byte("payload"))
	metadata := map[string][]byte{
		KeyPrefixName: []byte("tenant-a/archive"),
	}

	key, err := computeKey("default", dgst, metadata)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "/blobs/default/custom/tenant-a/archive/"+dgst+"/"))
}

func TestComputeKeyInvalidPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{name: "spaces", prefix: "has spaces"},
		{name: "dots", prefix: "../escape"},
		{name: "unicode", prefix: "préfixe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metadata := map[string][]byte{KeyPrefixName: []byte(tt.prefix)}
			_, err := computeKey("default", digest.FromBytes([]byte("x")), metadata)
			assert.Error(t, err)
		})
	}
}

func TestComputeKeyDeterministic(t *testing.T) {
	dgst := digest.FromBytes([]byte("payload"))
	a := map[string][]byte{"encoding": []byte("json/plain"), "trace": []byte("abc")}
	b := map[string][]byte{"trace": []byte("abc"), "encoding": []byte("json/plain")}

	keyA, err := computeKey("ns", dgst, a)
	require.NoError(t, err)
	keyB, err := computeKey("ns", dgst, b)
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB)
}

func TestComputeKeyMetadataChangesKey(t *testing.T) {
	dgst := digest.FromBytes([]byte("payload"))

	keyA, err := computeKey("ns", dgst, map[string][]byte{"encoding": []byte("json/plain")})
	require.NoError(t, err)
	keyB, err := computeKey("ns", dgst, map[string][]byte{"encoding": []byte("binary/plain")})
	require.NoError(t, err)

	assert.NotEqual(t, keyA, keyB)
}

func TestComputeKeyNamespaceChangesKey(t *testing.T) {
	dgst := digest.FromBytes([]byte("payload"))

	keyA, err := computeKey("ns1", dgst, nil)
	require.NoError(t, err)
	keyB, err := computeKey("ns2", dgst, nil)
	require.NoError(t, err)

	assert.NotEqual(t, keyA, keyB)
}

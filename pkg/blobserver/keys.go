package blobserver

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/marmos91/dittoblob/pkg/codec/digest"
)

// KeyPrefixName is the metadata key a client can set to group its
// blobs under a custom storage prefix (for lifecycle rules etc.).
const KeyPrefixName = "remote-codec/key-prefix"

var validPrefix = regexp.MustCompile(`^[0-9a-zA-Z_\-/]+$`).MatchString

// computeKey derives the storage key for a blob. The key couples
// namespace, content digest and a hash of the metadata, so identical
// content with identical metadata dedups to the same key while
// different tenants or metadata never collide.
func computeKey(namespace, dataDigest string, metadata map[string][]byte) (string, error) {
	metadataHash := hashMetadata(metadata)

	prefix := string(metadata[KeyPrefixName])
	if prefix == "" {
		return fmt.Sprintf("/blobs/%s/common/%s/%s", namespace, dataDigest, metadataHash), nil
	}
	if !validPrefix(prefix) {
		return "", fmt.Errorf("%q is not a valid key prefix", prefix)
	}
	return fmt.Sprintf("/blobs/%s/custom/%s/%s/%s", namespace, prefix, dataDigest, metadataHash), nil
}

// hashMetadata digests the metadata map in sorted key order so the
// result is independent of map iteration order.
func hashMetadata(metadata map[string][]byte) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := digest.NewHasher()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write(metadata[k])
	}
	return h.Digest()
}

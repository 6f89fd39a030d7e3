package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	app := &Payload{
		Metadata: map[string][]byte{"encoding": []byte("json/plain")},
		Data:     []byte("hello"),
	}
	assert.Equal(t, KindApplication, app.Kind())

	ref := &Payload{
		Metadata: map[string][]byte{RemoteCodecKey: []byte("v2")},
		Data:     []byte(`{"key":"/blobs/ns/common/x/y"}`),
	}
	assert.Equal(t, KindReference, ref.Kind())

	var nilPayload *Payload
	assert.Equal(t, KindApplication, nilPayload.Kind())
}

func TestSizeIncludesMetadata(t *testing.T) {
	p := &Payload{
		Metadata: map[string][]byte{"foo": []byte("bar")},
		Data:     []byte("0123456789"),
	}
	// 10 data bytes + 3 key bytes + 3 value bytes
	assert.Equal(t, 16, p.Size())

	empty := &Payload{}
	assert.Equal(t, 0, empty.Size())
}

func TestCloneIsDeep(t *testing.T) {
	p := &Payload{
		Metadata: map[string][]byte{"foo": []byte("bar")},
		Data:     []byte("data"),
	}

	c := p.Clone()
	c.Data[0] = 'X'
	c.Metadata["foo"][0] = 'X'

	assert.Equal(t, []byte("data"), p.Data)
	assert.Equal(t, []byte("bar"), p.Metadata["foo"])
}

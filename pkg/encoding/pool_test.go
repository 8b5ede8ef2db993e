package encoding

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBuffer_ReturnsEmptyBuffer(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("leftover")
	PutBuffer(buf)

	again := GetBuffer()
	assert.Equal(t, 0, again.Len())
	PutBuffer(again)
}

func TestPutBuffer_DropsLargeBuffers(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.Grow(128 * 1024)

	// Must not panic and must not retain the large buffer contents
	PutBuffer(buf)
}

func TestEncode(t *testing.T) {
	out, err := Encode(func(buf *bytes.Buffer) error {
		buf.WriteString("<OpenPayU/>")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "<OpenPayU/>", string(out))

	// The returned slice is a copy and survives buffer reuse
	_, err = Encode(func(buf *bytes.Buffer) error {
		buf.WriteString(strings.Repeat("x", 32))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "<OpenPayU/>", string(out))
}

func TestEncode_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	out, err := Encode(func(buf *bytes.Buffer) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, out)
}

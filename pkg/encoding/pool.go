package encoding

import (
	"bytes"
	"sync"
)

var (
	// BufferPool pools bytes.Buffer for XML document encoding
	// Used for every OpenPayU request document and notification acknowledgement
	BufferPool = sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	}
)

// GetBuffer retrieves a bytes.Buffer from the pool
func GetBuffer() *bytes.Buffer {
	buf := BufferPool.Get().(*bytes.Buffer)
	buf.Reset() // Ensure buffer is empty
	return buf
}

// PutBuffer returns a bytes.Buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	// Don't pool buffers that grew too large (>64KB)
	// This prevents memory bloat from outlier large shopping carts
	if buf.Cap() > 64*1024 {
		return
	}
	buf.Reset()
	BufferPool.Put(buf)
}

// Encode runs fn against a pooled buffer and returns a copy of what it wrote
func Encode(fn func(buf *bytes.Buffer) error) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := fn(buf); err != nil {
		return nil, err
	}

	// Copy the buffer contents since we're returning the buffer to the pool
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

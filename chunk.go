package byteflow

import "fmt"

// Chunk is an immutable contiguous byte sequence, the unit of data moved
// between a transport and a Handler. The zero value is the empty chunk,
// which is the identity for Concat.
type Chunk struct {
	data []byte
}

// NewChunk copies b into a new Chunk, so later mutation of b does not
// leak into the stream.
func NewChunk(b []byte) Chunk {
	if len(b) == 0 {
		return Chunk{}
	}
	d := make([]byte, len(b))
	copy(d, b)
	return Chunk{data: d}
}

// ChunkOfString builds a Chunk from the bytes of s.
func ChunkOfString(s string) Chunk {
	return Chunk{data: []byte(s)}
}

// Bytes returns the underlying byte slice. Callers must not modify it.
func (c Chunk) Bytes() []byte {
	return c.data
}

// Len returns the number of bytes in the chunk.
func (c Chunk) Len() int {
	return len(c.data)
}

func (c Chunk) String() string {
	return string(c.data)
}

// GoString formats the chunk for debug logs.
func (c Chunk) GoString() string {
	return fmt.Sprintf("Chunk(%d)[%q]", len(c.data), string(c.data))
}

// Concat joins chunks in order into a single Chunk.
// Concat() and Concat(c) are the identity cases.
func Concat(chunks ...Chunk) Chunk {
	switch len(chunks) {
	case 0:
		return Chunk{}
	case 1:
		return chunks[0]
	}
	total := 0
	for _, c := range chunks {
		total += len(c.data)
	}
	d := make([]byte, 0, total)
	for _, c := range chunks {
		d = append(d, c.data...)
	}
	return Chunk{data: d}
}

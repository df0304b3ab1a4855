package byteflow

import "io"

// StreamFunc adapts a closure to the Stream interface.
type StreamFunc func() (Chunk, error)

func (f StreamFunc) Next() (Chunk, error) {
	return f()
}

// Chunks returns a finite Stream yielding the given chunks in order.
func Chunks(chunks ...Chunk) Stream {
	i := 0
	return StreamFunc(func() (Chunk, error) {
		if i >= len(chunks) {
			return Chunk{}, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	})
}

// Drain consumes a stream to exhaustion and returns all chunks observed.
// It stops on the first error; io.EOF is not reported as an error.
func Drain(s Stream) ([]Chunk, error) {
	var out []Chunk
	for {
		c, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
}

// Identity returns the echo handler: every received chunk is written
// back unchanged, in order. The run lasts until the remote closes.
func Identity() Handler {
	return func(in Stream) Stream { return in }
}

// Strict returns a handler for one-shot request/response exchanges:
// the entire inbound stream is buffered, concatenated into a single
// chunk once the remote has finished sending, f is applied to it, and
// the single result chunk is the whole outbound stream.
//
// The inbound stream only ends when the remote closes its side, so on
// transports without half-close Strict fits half-duplex exchanges where
// the remote disconnects after sending one complete request.
func Strict(f func(Chunk) (Chunk, error)) Handler {
	return func(in Stream) Stream {
		done := false
		return StreamFunc(func() (Chunk, error) {
			if done {
				return Chunk{}, io.EOF
			}
			parts, err := Drain(in)
			if err != nil {
				return Chunk{}, err
			}
			done = true
			return f(Concat(parts...))
		})
	}
}

package byteflow

// Stream represents a lazily produced sequence of chunks.
// Next returns the next chunk, blocking until one is available; it
// returns io.EOF when the sequence is exhausted and any other error
// when production fails. After a non-nil error the stream yields no
// further chunks.
type Stream interface {
	Next() (Chunk, error)
}

// Handler transforms the inbound byte stream of one connection into
// the outbound byte stream to write back. The inbound stream delivers
// chunks in network-arrival order and ends (io.EOF) when the remote
// side closes. Exhaustion of the returned stream means "nothing more
// to say" and triggers a server-initiated close of the connection.
//
// A Handler owns no connection state: the same Handler is invoked
// once per connection and every invocation is an independent run.
type Handler func(in Stream) Stream

// ConnWriter is the command handle a transport exposes for one accepted
// connection. Write sends bytes to the remote side; calls for the same
// connection are serialized by the caller. Close requests connection
// termination and is issued at most once per connection.
type ConnWriter interface {
	Write(b []byte) error
	Close() error
}

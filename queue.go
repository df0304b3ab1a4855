package byteflow

import (
	"io"
	"sync"
)

// OverflowPolicy selects what a bounded Queue does when a chunk arrives
// while the buffer is already full. Enqueue runs on transport threads
// and must never block them, so every policy is non-blocking.
type OverflowPolicy int

const (
	// OverflowDrop discards the incoming chunk and counts it.
	OverflowDrop OverflowPolicy = iota
	// OverflowClose closes the queue; the connection is then torn down
	// through the normal server-initiated close path.
	OverflowClose
)

// Queue bridges push-style transport callbacks to pull-style handler
// consumption. It is a closable FIFO with one producer (the transport
// receive callback) and one consumer (the handler's inbound stream).
//
// Chunks dequeue in exact enqueue order. Once closed, enqueues become
// no-ops and dequeues drain the remaining chunks before returning
// io.EOF deterministically. Close is idempotent.
type Queue struct {
	mu      sync.Mutex
	pending *sync.Cond
	chunks  []Chunk
	closed  bool
	limit   int
	policy  OverflowPolicy
	dropped uint64
}

// NewQueue creates a queue holding at most limit pending chunks with the
// given overflow policy. limit <= 0 means unbounded: the buffer grows
// with whatever the remote sends, no flow control back to the producer.
func NewQueue(limit int, policy OverflowPolicy) *Queue {
	q := &Queue{limit: limit, policy: policy}
	q.pending = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends c to the tail without ever blocking the caller.
// It reports whether the chunk was accepted: false after close and
// false when a bounded queue overflows (the chunk is dropped, or the
// queue is closed, depending on the policy).
func (q *Queue) Enqueue(c Chunk) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if q.limit > 0 && len(q.chunks) >= q.limit {
		switch q.policy {
		case OverflowClose:
			q.closeLocked()
		default:
			q.dropped++
		}
		return false
	}
	q.chunks = append(q.chunks, c)
	q.pending.Signal()
	return true
}

// Dequeue removes and returns the head chunk, blocking until one is
// available or the queue is closed. After close it drains any buffered
// chunks and then returns io.EOF on this and every subsequent call.
func (q *Queue) Dequeue() (Chunk, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.chunks) == 0 && !q.closed {
		q.pending.Wait()
	}
	if len(q.chunks) == 0 {
		return Chunk{}, io.EOF
	}
	c := q.chunks[0]
	q.chunks = q.chunks[1:]
	return c, nil
}

// Next makes *Queue usable directly as a handler's inbound Stream.
func (q *Queue) Next() (Chunk, error) {
	return q.Dequeue()
}

// Close marks the queue closed and wakes any blocked consumer.
// Repeated calls are no-ops.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closeLocked()
}

func (q *Queue) closeLocked() {
	if q.closed {
		return
	}
	q.closed = true
	q.pending.Broadcast()
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of buffered chunks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.chunks)
}

// Dropped returns how many chunks a bounded queue discarded on overflow.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

package byteflow

import (
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	uuid "github.com/satori/go.uuid"
)

// ConnState is the lifecycle state of one accepted connection.
type ConnState int

const (
	// StateOpen: wired and exchanging data.
	StateOpen ConnState = iota
	// StateClosingByClient: remote disconnect observed, tearing down.
	StateClosingByClient
	// StateClosingByServer: handler output exhausted, closing the transport.
	StateClosingByServer
	// StateClosed: terminal, all resources released.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosingByClient:
		return "closing-by-client"
	case StateClosingByServer:
		return "closing-by-server"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn drives one accepted connection: it owns the queue bridging the
// transport's receive callbacks to the handler's inbound stream, the
// single handler invocation and the goroutine draining its output to
// the transport, and it arbitrates closing between the two sides.
//
// Exactly one of the close paths issues a transport Close command per
// connection: the server-initiated one, and only while the remote is
// still connected. A remote disconnect never produces a Close command.
type Conn struct {
	id string
	tr ConnWriter
	q  *Queue

	// mu guards state and alive; both close paths race on them.
	mu    sync.Mutex
	state ConnState
	alive bool

	done     chan struct{}
	detachFn func(*Conn)
	detach   sync.Once

	log Logger
}

func newConn(tr ConnWriter, h Handler, q *Queue, log Logger, detach func(*Conn)) *Conn {
	c := &Conn{
		id:       uuid.NewV1().String(),
		tr:       tr,
		q:        q,
		state:    StateOpen,
		alive:    true,
		done:     make(chan struct{}),
		detachFn: detach,
		log:      log,
	}
	go c.run(h)
	return c
}

// ID returns the unique identifier assigned to this connection.
func (c *Conn) ID() string {
	return c.id
}

// State returns the current lifecycle state.
func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Alive reports whether the remote side is still considered connected.
func (c *Conn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// Done is closed once the handler run has fully wound down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// OnData delivers bytes received by the transport. It never blocks, so
// it is safe to call from transport callbacks and event loops. Data
// arriving after close is discarded.
func (c *Conn) OnData(b []byte) {
	if len(b) == 0 {
		return
	}
	if !c.q.Enqueue(NewChunk(b)) {
		chunksDropped.Inc()
		c.log.Debugf("conn %s: discarded %d inbound bytes (queue closed or full)", c.id, len(b))
		return
	}
	chunksReceived.Inc()
	bytesReceived.Add(float64(len(b)))
}

// OnClosed records a remote disconnect. The queue is closed so a
// blocked handler observes end-of-stream, and no Close command is ever
// sent back: the remote already terminated the connection. The handler
// is not interrupted, it winds down cooperatively and the connection
// reaches Closed once its output is exhausted. Repeated calls, calls
// racing the server-side close, and transports echoing a close the
// server itself issued are all no-ops.
func (c *Conn) OnClosed() {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.alive = false
	c.state = StateClosingByClient
	c.q.Close()
	c.mu.Unlock()

	closesTotal.WithLabelValues("client").Inc()
	c.log.Debugf("conn %s: closed by remote", c.id)
}

// Shutdown starts a server-side teardown by closing the inbound queue.
// The handler observes end-of-stream, its output exhausts and the
// normal server-initiated close follows. Idempotent.
func (c *Conn) Shutdown() {
	c.q.Close()
}

// run is the per-connection unit of work: invoke the handler on the
// inbound queue and drain its output to the transport in production
// order. Writes are serialized by being issued only from here.
func (c *Conn) run(h Handler) {
	defer close(c.done)

	out := c.invoke(h)
	if out == nil {
		c.finishServerSide()
		return
	}
	for {
		chunk, err := c.pull(out)
		if err == io.EOF {
			c.finishServerSide()
			return
		}
		if err != nil {
			handlerErrors.Inc()
			c.log.Errorf("conn %s: handler output failed: %s", c.id, err.Error())
			c.finishServerSide()
			return
		}
		if err := c.tr.Write(chunk.Bytes()); err != nil {
			c.log.Errorf("conn %s: transport write failed: %s", c.id, err.Error())
			c.onWriteFailure()
			return
		}
		chunksWritten.Inc()
		bytesWritten.Add(float64(chunk.Len()))
	}
}

// invoke applies the handler to the inbound queue. A panic here is a
// production error: reported, never propagated to the transport.
func (c *Conn) invoke(h Handler) (out Stream) {
	defer func() {
		if r := recover(); r != nil {
			handlerErrors.Inc()
			c.log.Criticalf("conn %s: handler panic: %v\n%s", c.id, r, debug.Stack())
			out = nil
		}
	}()
	return h(c.q)
}

// pull fetches the next outbound chunk, converting panics inside the
// handler's production logic into ordinary production errors.
func (c *Conn) pull(out Stream) (chunk Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Criticalf("conn %s: handler panic: %v\n%s", c.id, r, debug.Stack())
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return out.Next()
}

// finishServerSide completes the lifecycle once the handler has nothing
// more to say (output exhausted or failed). The transport Close command
// is issued only if the remote has not closed first. The state and the
// alive flag move under one lock, so a racing remote disconnect can
// never cause a second Close command.
func (c *Conn) finishServerSide() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		c.detached()
		return
	}
	c.q.Close()
	issueClose := c.alive
	c.alive = false
	if issueClose {
		c.state = StateClosingByServer
	}
	c.mu.Unlock()

	if issueClose {
		// outside the lock: transports may report the close back
		// synchronously through OnClosed
		if err := c.tr.Close(); err != nil {
			c.log.Warningf("conn %s: transport close failed: %s", c.id, err.Error())
		}
		closesTotal.WithLabelValues("server").Inc()
		c.log.Debugf("conn %s: closed by server", c.id)
	}

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	c.detached()
}

// onWriteFailure handles a broken transport write: equivalent to a
// remote disconnect, so no Close command follows.
func (c *Conn) onWriteFailure() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		c.detached()
		return
	}
	c.alive = false
	c.q.Close()
	c.state = StateClosed
	c.mu.Unlock()
	c.detached()
}

func (c *Conn) detached() {
	c.detach.Do(func() {
		activeConnections.Dec()
		if c.detachFn != nil {
			c.detachFn(c)
		}
	})
}

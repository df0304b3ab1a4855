package byteflow

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ClosedServerError = fmt.Errorf("server is closed")
	RateLimitedError  = fmt.Errorf("connection rate limit exceeded")
)

type serverOptions struct {
	queueLimit  int
	overflow    OverflowPolicy
	acceptRPS   float64
	acceptBurst int
}

func defaultServerOptions() *serverOptions {
	// unbounded queues, no accept limit
	return &serverOptions{}
}

type Option func(*serverOptions)

// WithQueueLimit bounds every connection's inbound queue to limit
// pending chunks, applying policy on overflow. limit <= 0 keeps the
// queue unbounded.
func WithQueueLimit(limit int, policy OverflowPolicy) Option {
	return func(o *serverOptions) {
		o.queueLimit = limit
		o.overflow = policy
	}
}

// WithAcceptRate limits how many new connections per second the server
// accepts; connections over the limit are refused at Attach.
func WithAcceptRate(rps float64, burst int) Option {
	return func(o *serverOptions) {
		o.acceptRPS = rps
		o.acceptBurst = burst
	}
}

// Server turns one Handler into per-connection adapters installable
// into a transport's accept path. Each accepted connection gets its own
// queue, handler invocation and lifecycle state, so failures stay
// isolated per connection.
type Server struct {
	handler Handler
	opts    *serverOptions
	limiter *rate.Limiter

	mu     sync.Mutex
	conns  map[string]*Conn
	closed bool

	log Logger
}

// NewServer creates a server driving every accepted connection with h.
// A nil log discards all reporting.
func NewServer(h Handler, log Logger, opts ...Option) *Server {
	if log == nil {
		log = nopLogger{}
	}
	o := defaultServerOptions()
	for _, opt := range opts {
		opt(o)
	}
	s := &Server{
		handler: h,
		opts:    o,
		conns:   make(map[string]*Conn),
		log:     log,
	}
	if o.acceptRPS > 0 {
		burst := o.acceptBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(o.acceptRPS), burst)
	}
	return s
}

// Attach wires a newly accepted connection: it allocates the inbound
// queue, invokes the handler on it and starts draining output to w.
// The returned Conn is the adapter the transport feeds with OnData and
// OnClosed events.
func (s *Server) Attach(w ConnWriter) (*Conn, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		rejectedConnections.Inc()
		return nil, ClosedServerError
	}
	if s.limiter != nil && !s.limiter.AllowN(time.Now(), 1) {
		s.mu.Unlock()
		rejectedConnections.Inc()
		return nil, RateLimitedError
	}
	q := NewQueue(s.opts.queueLimit, s.opts.overflow)
	c := newConn(w, s.handler, q, s.log, s.detach)
	s.conns[c.id] = c
	s.mu.Unlock()

	connectionsTotal.Inc()
	activeConnections.Inc()
	s.log.Debugf("conn %s: new connection established", c.id)
	return c, nil
}

func (s *Server) detach(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
}

// Active returns the number of live connections.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close rejects further attaches and tears down every live connection.
// Teardown goes through each connection's queue, so handlers observe
// end-of-stream and the usual server-initiated close follows. Close
// returns once all handler runs have wound down.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Shutdown()
	}
	for _, c := range conns {
		<-c.Done()
	}
}

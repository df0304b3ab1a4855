package byteflow

import (
	"context"

	"github.com/panjf2000/gnet/v2"
)

// gnetEvents implements gnet.EventHandler, bridging the event loop's
// push callbacks into per-connection adapters. Receive and close
// callbacks run on event-loop goroutines, so everything delivered to a
// Conn from here must be non-blocking (OnData/OnClosed are).
type gnetEvents struct {
	gnet.BuiltinEventEngine
	srv  *Server
	addr string
	eng  gnet.Engine
	log  Logger
}

func (e *gnetEvents) OnBoot(eng gnet.Engine) gnet.Action {
	e.eng = eng
	e.log.Infof("listening on %s", e.addr)
	return gnet.None
}

func (e *gnetEvents) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	conn, err := e.srv.Attach(&gnetWriter{c: c})
	if err != nil {
		e.log.Warningf("connection refused: %s", err.Error())
		return nil, gnet.Close
	}
	c.SetContext(conn)
	return nil, gnet.None
}

func (e *gnetEvents) OnTraffic(c gnet.Conn) gnet.Action {
	conn, ok := c.Context().(*Conn)
	if !ok {
		return gnet.Close
	}
	// buf is only valid inside this callback; OnData copies it
	buf, err := c.Next(-1)
	if err != nil {
		return gnet.Close
	}
	conn.OnData(buf)
	return gnet.None
}

func (e *gnetEvents) OnClose(c gnet.Conn, err error) gnet.Action {
	// fires for server-initiated closes too; OnClosed is a no-op then
	if conn, ok := c.Context().(*Conn); ok {
		conn.OnClosed()
	}
	return gnet.None
}

// gnetWriter adapts gnet.Conn to ConnWriter. The drain goroutine is not
// the event loop, so writes go through AsyncWrite.
type gnetWriter struct {
	c gnet.Conn
}

func (w *gnetWriter) Write(b []byte) error {
	return w.c.AsyncWrite(b, nil)
}

func (w *gnetWriter) Close() error {
	return w.c.Close()
}

// ServeTCP serves handler over plain TCP connections on addr using the
// gnet event engine. It blocks until the engine stops (see StopTCP).
func ServeTCP(handler Handler, addr string, multicore bool, log Logger, opts ...Option) error {
	if log == nil {
		log = nopLogger{}
	}
	srv := NewServer(handler, log, opts...)
	defer srv.Close()

	ev := &gnetEvents{srv: srv, addr: addr, log: log}
	return gnet.Run(ev, "tcp://"+addr,
		gnet.WithMulticore(multicore),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
	)
}

// StopTCP stops a running ServeTCP engine listening on addr.
func StopTCP(ctx context.Context, addr string) error {
	return gnet.Stop(ctx, "tcp://"+addr)
}

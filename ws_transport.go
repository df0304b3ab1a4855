package byteflow

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ClosedConnError = fmt.Errorf("closed connection")

const (
	wsPongWait  = 60 * time.Second
	wsWriteWait = 10 * time.Second
)

// WsTransport adapts one websocket connection: it implements the
// ConnWriter command handle (each chunk is one binary message) and
// pushes received-data and disconnect events into a Conn.
type WsTransport struct {
	conn       *websocket.Conn
	wlock      sync.Mutex
	pingTicker *time.Ticker
}

func NewWsTransport(c *websocket.Conn) *WsTransport {
	return &WsTransport{
		conn:       c,
		pingTicker: time.NewTicker(wsPongWait * 9 / 10),
	}
}

func (t *WsTransport) Write(b []byte) error {
	t.wlock.Lock()
	t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	err := t.conn.WriteMessage(websocket.BinaryMessage, b)
	t.wlock.Unlock()

	if err != nil {
		if err == websocket.ErrCloseSent {
			t.conn.Close()
			return ClosedConnError
		}
		return err
	}
	return nil
}

func (t *WsTransport) Close() error {
	t.wlock.Lock()
	t.conn.WriteMessage(websocket.CloseMessage, []byte{})
	t.wlock.Unlock()

	return t.conn.Close()
}

// Run starts the read and keepalive loops delivering events to c.
func (t *WsTransport) Run(c *Conn) {
	go t.readLoop(c)
	go t.pingLoop()
}

func (t *WsTransport) readLoop(c *Conn) {
	pongHandler := func(string) error {
		t.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	}
	t.conn.SetPongHandler(pongHandler)
	t.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	defer func() {
		t.conn.Close()
		t.pingTicker.Stop()
	}()

	for {
		_, raw, err := t.conn.ReadMessage()
		if err != nil {
			c.OnClosed()
			return
		}
		c.OnData(raw)
	}
}

func (t *WsTransport) pingLoop() {
	for range t.pingTicker.C {
		t.wlock.Lock()
		t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		err := t.conn.WriteMessage(websocket.PingMessage, []byte{})
		t.wlock.Unlock()
		if err != nil {
			t.conn.Close()
			return
		}
	}
}

// WsHandler upgrades HTTP requests and attaches every accepted
// websocket connection to the server.
type WsHandler struct {
	srv      *Server
	upgrader websocket.Upgrader
	log      Logger
}

func NewWsHandler(srv *Server, log Logger) *WsHandler {
	return &WsHandler{
		srv: srv,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log,
	}
}

func (h *WsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade failed: %s", err.Error())
		return
	}
	t := NewWsTransport(conn)
	c, err := h.srv.Attach(t)
	if err != nil {
		h.log.Warningf("connection refused: %s", err.Error())
		t.pingTicker.Stop()
		t.Close()
		return
	}
	t.Run(c)
}

// ServeWS serves handler over websocket connections at addr/path until
// closeCh is closed.
func ServeWS(handler Handler, addr string, path string, log Logger, closeCh chan struct{}, opts ...Option) {
	srv := NewServer(handler, log, opts...)
	wsh := NewWsHandler(srv, log)

	mux := http.NewServeMux()
	mux.Handle(path, wsh)
	s := http.Server{Handler: mux, Addr: addr}
	go s.ListenAndServe()

	<-closeCh

	s.Close()
	srv.Close()
}

// WsClient is the dialer side, used by tests and the example harness.
type WsClient struct {
	conn  *websocket.Conn
	wlock sync.Mutex
}

func NewWsClient(url string) (*WsClient, error) {
	dialer := &websocket.Dialer{}
	conn, _, err := dialer.Dial(url, http.Header{})
	if err != nil {
		return nil, err
	}
	return &WsClient{conn: conn}, nil
}

func (c *WsClient) Send(b []byte) error {
	c.wlock.Lock()
	defer c.wlock.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, b)
}

func (c *WsClient) Recv() ([]byte, error) {
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *WsClient) Close() error {
	c.wlock.Lock()
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
	c.wlock.Unlock()

	return c.conn.Close()
}

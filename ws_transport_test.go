package byteflow

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
)

func startWsServer(t testing.TB, handler Handler, opts ...Option) (*Server, string, func()) {
	t.Helper()
	srv := NewServer(handler, &DummyLogger{}, opts...)
	ts := httptest.NewServer(NewWsHandler(srv, &DummyLogger{}))
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	return srv, url, func() {
		srv.Close()
		ts.Close()
	}
}

func TestWsEchoRoundTrip(t *testing.T) {
	srv, url, stop := startWsServer(t, Identity())
	defer stop()

	cli, err := NewWsClient(url)
	if err != nil {
		t.Fatal(err)
	}

	for _, msg := range []string{"ping", "pong", "payload"} {
		if err := cli.Send([]byte(msg)); err != nil {
			t.Fatal(err)
		}
		raw, err := cli.Recv()
		if err != nil {
			t.Fatal(err)
		}
		if string(raw) != msg {
			t.Fatalf("echoed %q, want %q", string(raw), msg)
		}
	}

	cli.Close()
	waitFor(t, func() bool { return srv.Active() == 0 }, "server kept the connection after client close")
}

func TestWsServerInitiatedClose(t *testing.T) {
	oneShot := func(in Stream) Stream {
		return Chunks(ChunkOfString("goodbye"))
	}
	_, url, stop := startWsServer(t, oneShot)
	defer stop()

	cli, err := NewWsClient(url)
	if err != nil {
		t.Fatal(err)
	}
	defer cli.Close()

	raw, err := cli.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "goodbye" {
		t.Fatalf("got %q, want %q", string(raw), "goodbye")
	}
	// output exhausted: the server closes the websocket
	if _, err := cli.Recv(); err == nil {
		t.Fatal("expected the server to close the connection")
	}
}

func TestWsStrictUppercase(t *testing.T) {
	srv, url, stop := startWsServer(t, Strict(func(c Chunk) (Chunk, error) {
		return NewChunk(bytes.ToUpper(c.Bytes())), nil
	}))
	defer stop()

	cli, err := NewWsClient(url)
	if err != nil {
		t.Fatal(err)
	}
	if err := cli.Send([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	// strict buffers until the remote closes; tear the server side down
	// to flush the single response through the lifecycle
	waitFor(t, func() bool { return srv.Active() == 1 }, "connection never attached")
	srv.Close()

	raw, err := cli.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "ABC" {
		t.Fatalf("got %q, want %q", string(raw), "ABC")
	}
	cli.Close()
}

func BenchmarkWsEcho(b *testing.B) {
	_, url, stop := startWsServer(b, Identity())
	defer stop()

	cli, err := NewWsClient(url)
	if err != nil {
		b.Fatal(err)
	}
	payload := []byte("benchmark payload")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := cli.Send(payload); err != nil {
			b.Fatal(err)
		}
		if _, err := cli.Recv(); err != nil {
			b.Fatal(err)
		}
	}
	b.StopTimer()
	cli.Close()
}

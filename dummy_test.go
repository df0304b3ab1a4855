package byteflow

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// --------------------------------------------
// fake transport implementation

// FakeWriter records Write/Close commands issued by a Conn.
type FakeWriter struct {
	mu       sync.Mutex
	writes   [][]byte
	closes   int
	writeErr error
}

func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

func (w *FakeWriter) Write(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return w.writeErr
	}
	d := make([]byte, len(b))
	copy(d, b)
	w.writes = append(w.writes, d)
	return nil
}

func (w *FakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closes++
	return nil
}

func (w *FakeWriter) FailWrites(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writeErr = err
}

func (w *FakeWriter) Writes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.writes))
	for i, b := range w.writes {
		out[i] = string(b)
	}
	return out
}

func (w *FakeWriter) Closes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closes
}

// waitWrites blocks until the fake transport has seen n writes.
func (w *FakeWriter) waitWrites(t *testing.T, n int) {
	t.Helper()
	waitFor(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.writes) >= n
	}, fmt.Sprintf("timed out waiting for %d writes", n))
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func waitDone(t *testing.T, c *Conn) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("connection did not wind down")
	}
}

// --------------------------------------------
// dummy logger implementation
const (
	LL_CRITICAL = iota
	LL_ERROR
	LL_WARNING
	LL_INFO
	LL_DEBUG
)

type DummyLogger struct {
	ll int
}

func (l *DummyLogger) Critical(args ...interface{}) {
	if l.ll < LL_CRITICAL {
		return
	}
	fmt.Printf("[CRITICAL] ")
	fmt.Println(args...)
}
func (l *DummyLogger) Criticalf(format string, args ...interface{}) {
	if l.ll < LL_CRITICAL {
		return
	}
	fmt.Printf("[CRITICAL] "+format+"\n", args...)
}

func (l *DummyLogger) Error(args ...interface{}) {
	if l.ll < LL_ERROR {
		return
	}
	fmt.Printf("[ERROR] ")
	fmt.Println(args...)
}
func (l *DummyLogger) Errorf(format string, args ...interface{}) {
	if l.ll < LL_ERROR {
		return
	}
	fmt.Printf("[ERROR] "+format+"\n", args...)
}
func (l *DummyLogger) Warning(args ...interface{}) {
	if l.ll < LL_WARNING {
		return
	}
	fmt.Printf("[WARNING] ")
	fmt.Println(args...)
}
func (l *DummyLogger) Warningf(format string, args ...interface{}) {
	if l.ll < LL_WARNING {
		return
	}
	fmt.Printf("[WARNING] "+format+"\n", args...)
}
func (l *DummyLogger) Info(args ...interface{}) {
	if l.ll < LL_INFO {
		return
	}
	fmt.Printf("[INFO] ")
	fmt.Println(args...)
}
func (l *DummyLogger) Infof(format string, args ...interface{}) {
	if l.ll < LL_INFO {
		return
	}
	fmt.Printf("[INFO] "+format+"\n", args...)
}
func (l *DummyLogger) Debug(args ...interface{}) {
	if l.ll < LL_DEBUG {
		return
	}
	fmt.Printf("[DEBUG] ")
	fmt.Println(args...)
}
func (l *DummyLogger) Debugf(format string, args ...interface{}) {
	if l.ll < LL_DEBUG {
		return
	}
	fmt.Printf("[DEBUG] "+format+"\n", args...)
}

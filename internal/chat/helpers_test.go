package chat

import (
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeConn is an in-memory Conn. Tests push client lines into in and read
// what the server wrote from out.
type fakeConn struct {
	in     chan string
	out    chan string
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan string, 16),
		out:    make(chan string, 1024),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadLine() (string, error) {
	select {
	case line := <-c.in:
		return line, nil
	case <-c.closed:
		return "", io.EOF
	}
}

func (c *fakeConn) WriteLine(line string) error {
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}
	c.out <- line
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "fake" }

func (c *fakeConn) send(line string) { c.in <- line }

func newOutbound(t *testing.T) (*Outbound, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	out := StartOutbound(conn, 64, nil)
	t.Cleanup(func() {
		out.Close()
		_ = conn.Close()
	})
	return out, conn
}

func expectLine(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func waitForPrefix(t *testing.T, ch <-chan string, prefix string) string {
	t.Helper()
	deadline := time.NewTimer(1 * time.Second)
	defer deadline.Stop()
	for {
		select {
		case s := <-ch:
			if strings.HasPrefix(s, prefix) {
				return s
			}
			// ignore other lines (MESSAGE, USERLIST, etc.)
		case <-deadline.C:
			t.Fatalf("timeout waiting for prefix %q", prefix)
		}
	}
}

// expectSilence fails if anything arrives on ch within a short window.
func expectSilence(t *testing.T, ch <-chan string) {
	t.Helper()
	select {
	case got := <-ch:
		t.Fatalf("expected no line, got %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

package chat

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeConn 内存连接：in 提供读取的行，关闭 in 表示对端 EOF
type fakeConn struct {
	addr string
	in   chan string

	mu        sync.Mutex
	written   []string
	failWrite bool
	closed    bool

	closeOnce sync.Once
	closeCh   chan struct{}
}

func newFakeConn(addr string) *fakeConn {
	return &fakeConn{addr: addr, in: make(chan string, 16), closeCh: make(chan struct{})}
}

func (c *fakeConn) ReadLine() (string, error) {
	select {
	case l, ok := <-c.in:
		if !ok {
			return "", io.EOF
		}
		return l, nil
	case <-c.closeCh:
		return "", ErrConnClosed
	}
}

func (c *fakeConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.failWrite {
		return errBrokenPipe
	}
	c.written = append(c.written, line)
	return nil
}

func (c *fakeConn) RemoteAddr() string { return c.addr }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.closeCh)
	})
	return nil
}

func (c *fakeConn) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// waitFor 轮询直到 cond 成立或超时
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

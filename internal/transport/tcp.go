package transport

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hongjun500/chat-relay/internal/chat"
)

// LineConn 在 net.Conn 上提供按行读写，实现 chat.Conn
type LineConn struct {
	conn         net.Conn
	framing      string
	buf          []byte
	r            *bufio.Reader
	writeTimeout time.Duration

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

func NewLineConn(c net.Conn, opt Options) *LineConn {
	lc := &LineConn{conn: c, framing: opt.Framing, writeTimeout: opt.WriteTimeout}
	if opt.Framing == FramingLine {
		lc.r = bufio.NewReaderSize(c, opt.readBuffer())
	} else {
		lc.buf = make([]byte, opt.readBuffer())
	}
	return lc
}

// ReadLine 读取下一行。read 模式下一次 Read 的内容即一行，并删除其中所有 CR/LF；
// line 模式按 '\n' 切分，超过缓冲区长度的行按缓冲区大小分段返回。
func (t *LineConn) ReadLine() (string, error) {
	if t.r != nil {
		return t.readDelimited()
	}
	return t.readChunk()
}

func (t *LineConn) readChunk() (string, error) {
	for {
		n, err := t.conn.Read(t.buf)
		if n > 0 {
			return stripCRLF(string(t.buf[:n])), nil
		}
		if err != nil {
			return "", err
		}
	}
}

func (t *LineConn) readDelimited() (string, error) {
	b, err := t.r.ReadSlice('\n')
	switch {
	case err == nil, errors.Is(err, bufio.ErrBufferFull):
		return strings.TrimRight(string(b), "\r\n"), nil
	case errors.Is(err, io.EOF) && len(b) > 0:
		// 对端关闭前的最后一行没有换行符
		return strings.TrimRight(string(b), "\r\n"), nil
	default:
		return "", err
	}
}

func (t *LineConn) WriteLine(s string) error {
	if t.closed.Load() {
		return chat.ErrConnClosed
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.writeTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	}
	_, err := io.WriteString(t.conn, s+"\n")
	return err
}

func (t *LineConn) RemoteAddr() string {
	if t.conn == nil || t.conn.RemoteAddr() == nil {
		return ""
	}
	return t.conn.RemoteAddr().String()
}

func (t *LineConn) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

func stripCRLF(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

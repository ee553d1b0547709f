package chat

import (
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// SessionState 会话状态
type SessionState int

const (
	StateAwaitingName SessionState = iota
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingName:
		return "awaiting_name"
	case StateActive:
		return "active"
	default:
		return "closed"
	}
}

// Session 一个连接的读循环：第一行确定昵称，之后每一行都转发给其它连接
type Session struct {
	hub    *Hub
	handle Handle
	conn   Conn
	addr   string

	mu    sync.RWMutex
	state SessionState
	name  string

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(h *Hub, id Handle, conn Conn) *Session {
	return &Session{
		hub:    h,
		handle: id,
		conn:   conn,
		addr:   conn.RemoteAddr(),
		state:  StateAwaitingName,
		done:   make(chan struct{}),
	}
}

func (s *Session) Handle() Handle { return s.handle }

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Name 返回昵称，未设置时返回空串
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Done 在会话进入 Closed 后关闭
func (s *Session) Done() <-chan struct{} { return s.done }

// Run 阻塞直到读出错或对端关闭
func (s *Session) Run() {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			s.close(err)
			return
		}
		s.handleLine(line)
	}
}

func (s *Session) handleLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	switch s.State() {
	case StateAwaitingName:
		name, body := ParseBootstrap(line)
		if name == "" {
			name = UnknownName
		}
		s.mu.Lock()
		s.name = name
		s.state = StateActive
		s.mu.Unlock()
		s.hub.reg.SetName(s.handle, name)
		s.hub.Emit(&ClientEvent{When: time.Now(), Kind: EventClientJoined, Handle: s.handle, Addr: s.addr, Name: name})
		if strings.TrimSpace(body) != "" {
			s.hub.Relay(s.handle, NewMessage(name, body))
		}
	case StateActive:
		name := s.Name()
		body := StripPrefix(s.hub.policy, name, line)
		if strings.TrimSpace(body) == "" {
			return
		}
		s.hub.Relay(s.handle, NewMessage(name, body))
	}
}

func (s *Session) close(cause error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		name := s.name
		s.mu.Unlock()

		_, removed := s.hub.reg.Remove(s.handle)
		_ = s.conn.Close()
		if errors.Is(cause, io.EOF) {
			cause = nil
		}
		s.hub.Emit(&ClientEvent{
			When:    time.Now(),
			Kind:    EventClientDisconnected,
			Handle:  s.handle,
			Addr:    s.addr,
			Name:    name,
			Removed: removed,
			Err:     cause,
		})
		close(s.done)
	})
}

// ParseBootstrap 解析连接的第一行："<name>:<body>" 或只有 "<name>"。
// body 最多去掉一个前导空格。
func ParseBootstrap(line string) (name, body string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	return line[:idx], trimOneSpace(line[idx+1:])
}

// StripPrefix 按策略去掉客户端在每行前附带的 "<name>:" 前缀
func StripPrefix(p PrefixPolicy, name, line string) string {
	switch p {
	case PrefixColon:
		if idx := strings.IndexByte(line, ':'); idx >= 0 {
			return trimOneSpace(line[idx+1:])
		}
	case PrefixName:
		if rest, ok := strings.CutPrefix(line, name+":"); ok {
			return trimOneSpace(rest)
		}
	}
	return line
}

func trimOneSpace(s string) string {
	return strings.TrimPrefix(s, " ")
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/hongjun500/chat-relay/internal/chat"
	"github.com/hongjun500/chat-relay/internal/observe"
	"github.com/hongjun500/chat-relay/pkg/logger"
)

// TCPServer 接受 TCP 连接，每个连接注册到 Hub 后由独立 goroutine 运行会话
type TCPServer struct {
	Hub     *chat.Hub
	Options Options

	sessions *SessionManager
}

func NewTCPServer(hub *chat.Hub, opt Options) *TCPServer {
	return &TCPServer{Hub: hub, Options: opt, sessions: NewSessionManager()}
}

func (s *TCPServer) Name() string { return Tcp }

func (s *TCPServer) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("tcp listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve 在已有的 listener 上运行接受循环。单次 Accept 失败只记录日志；
// ctx 取消后关闭 listener 与全部会话连接，并等待会话 goroutine 退出。
func (s *TCPServer) Serve(ctx context.Context, ln net.Listener) error {
	if s.sessions == nil {
		s.sessions = NewSessionManager()
	}
	logger.S().Infow("tcp_listen", "addr", ln.Addr().String())
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer func() {
		logger.S().Infow("tcp_shutdown", "addr", ln.Addr().String(), "sessions", s.ActiveSessions())
		s.sessions.CloseAll()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			logger.S().Warnw("tcp_accept_error", "err", err)
			observe.IncAcceptError()
			time.Sleep(10 * time.Millisecond)
			continue
		}
		s.serveConn(conn)
	}
}

func (s *TCPServer) serveConn(conn net.Conn) {
	id := chat.Handle(uuid.NewString())
	lc := NewLineConn(conn, s.Options)
	sess, err := s.Hub.Admit(id, lc)
	if err != nil {
		// 句柄由 uuid 生成，重复说明存在逻辑错误
		logger.S().Panicw("registry_duplicate_handle", "handle", id, "addr", lc.RemoteAddr(), "err", err)
	}
	s.sessions.Go(sess, lc)
}

// ActiveSessions 当前由该服务器运行的会话数量
func (s *TCPServer) ActiveSessions() int {
	if s.sessions == nil {
		return 0
	}
	return s.sessions.Count()
}

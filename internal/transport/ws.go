package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hongjun500/chat-relay/internal/chat"
	"github.com/hongjun500/chat-relay/pkg/logger"
)

const maxWSMessage = 1 << 16

// wsConn 把一个 WebSocket 连接适配成 chat.Conn，每个文本帧即一行
type wsConn struct {
	conn         *websocket.Conn
	addr         string
	writeTimeout time.Duration

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

func newWSConn(c *websocket.Conn, opt Options) *wsConn {
	c.SetReadLimit(maxWSMessage)
	return &wsConn{conn: c, addr: c.RemoteAddr().String(), writeTimeout: opt.WriteTimeout}
}

func (w *wsConn) ReadLine() (string, error) {
	for {
		mt, data, err := w.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (w *wsConn) WriteLine(line string) error {
	if w.closed.Load() {
		return chat.ErrConnClosed
	}
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	return w.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (w *wsConn) RemoteAddr() string { return w.addr }

func (w *wsConn) Close() error {
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		w.closeErr = w.conn.Close()
	})
	return w.closeErr
}

// WebSocketServer 让浏览器客户端加入同一个聊天室
type WebSocketServer struct {
	Hub     *chat.Hub
	Options Options
	Path    string // WebSocket endpoint path, defaults to "/ws"

	upgrader websocket.Upgrader
	sessions *SessionManager
}

func NewWebSocketServer(hub *chat.Hub, opt Options) *WebSocketServer {
	return &WebSocketServer{
		Hub:     hub,
		Options: opt,
		Path:    "/ws",
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: NewSessionManager(),
	}
}

func (ws *WebSocketServer) Name() string {
	return WebSocket
}

// Handler 返回挂载了 WebSocket 路径的 mux
func (ws *WebSocketServer) Handler() http.Handler {
	path := ws.Path
	if path == "" {
		path = "/ws"
	}
	mux := http.NewServeMux()
	mux.Handle(path, ws)
	return mux
}

func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.S().Debugw("ws_upgrade_error", "remote", r.RemoteAddr, "err", err)
		return
	}
	id := chat.Handle(uuid.NewString())
	conn := newWSConn(c, ws.Options)
	sess, err := ws.Hub.Admit(id, conn)
	if err != nil {
		logger.S().Panicw("registry_duplicate_handle", "handle", id, "addr", conn.RemoteAddr(), "err", err)
	}
	ws.sessions.Run(sess, conn)
}

// Start 阻塞直到 ctx 取消或监听失败；被劫持的连接不受 http.Server.Shutdown 管理，需要单独关闭
func (ws *WebSocketServer) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: ws.Handler(),
	}
	logger.S().Infow("ws_listen", "addr", addr, "path", ws.Path)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	ws.sessions.CloseAll()
	return ctx.Err()
}

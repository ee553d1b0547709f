package transport

import (
	"context"
)

const (
	Tcp       = "tcp"
	WebSocket = "websocket"
)

// Transport 统一的传输层接口，TCP 与 WebSocket 都把连接交给同一个 chat.Hub
type Transport interface {
	Name() string
	// Start 阻塞直到 ctx 取消或监听失败
	Start(ctx context.Context, addr string) error
}

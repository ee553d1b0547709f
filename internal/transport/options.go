package transport

import "time"

const (
	FramingRead = "read" // 一次 Read 即一行（参考客户端不发送换行符）
	FramingLine = "line" // 按 '\n' 切分

	defaultReadBuffer = 1024
)

// Options configures transports (shared across TCP/WS where applicable)
type Options struct {
	Framing      string        // read: one Read is one line; line: split on '\n'
	ReadBuffer   int           // bytes per Read / max line chunk, default 1024
	WriteTimeout time.Duration // per-write deadline; 0 to disable
}

func (o Options) readBuffer() int {
	if o.ReadBuffer <= 0 {
		return defaultReadBuffer
	}
	return o.ReadBuffer
}

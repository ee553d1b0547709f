package chat

// Conn 面向行的双向连接，TCP 与 WebSocket 传输各自实现
type Conn interface {
	// ReadLine 阻塞读取一行，已去掉行终止符；EOF 或出错时返回 error
	ReadLine() (string, error)
	// WriteLine 完整写出一行并追加 "\n"，实现需保证并发调用不交错
	WriteLine(line string) error
	RemoteAddr() string
	// Close 可重复调用
	Close() error
}

// Handle 一个已接受连接的唯一标识
type Handle string

// UnknownName 连接从未设置昵称时使用的占位名
const UnknownName = "Unknown"

// Entry 注册表中的一个客户端
type Entry struct {
	Handle Handle
	Addr   string
	Name   string // 为空表示尚未设置
	Conn   Conn

	seq uint64
}

// DisplayName 返回昵称，未设置时返回占位名
func (e Entry) DisplayName() string {
	if e.Name == "" {
		return UnknownName
	}
	return e.Name
}

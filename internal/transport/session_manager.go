package transport

import (
	"sync"

	"github.com/hongjun500/chat-relay/internal/chat"
)

// SessionManager 跟踪某个传输上正在运行的会话，用于有序关闭
type SessionManager struct {
	mu     sync.Mutex
	conns  map[chat.Handle]chat.Conn
	wg     sync.WaitGroup
	closed bool
}

func NewSessionManager() *SessionManager {
	return &SessionManager{conns: make(map[chat.Handle]chat.Conn)}
}

// Go 在新的 goroutine 中运行会话。CloseAll 之后到达的会话立即关闭连接，
// 由 Run 自行完成注销，不再计入等待。
func (sm *SessionManager) Go(sess *chat.Session, conn chat.Conn) {
	if !sm.track(sess.Handle(), conn) {
		_ = conn.Close()
		go sess.Run()
		return
	}
	go func() {
		defer sm.untrack(sess.Handle())
		sess.Run()
	}()
}

// Run 在当前 goroutine 中运行会话直到结束
func (sm *SessionManager) Run(sess *chat.Session, conn chat.Conn) {
	if !sm.track(sess.Handle(), conn) {
		_ = conn.Close()
		sess.Run()
		return
	}
	defer sm.untrack(sess.Handle())
	sess.Run()
}

// track 在 mu 内登记并 Add，与 CloseAll 的快照互斥；已关闭时返回 false
func (sm *SessionManager) track(id chat.Handle, conn chat.Conn) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.closed {
		return false
	}
	sm.conns[id] = conn
	sm.wg.Add(1)
	return true
}

func (sm *SessionManager) untrack(id chat.Handle) {
	sm.mu.Lock()
	delete(sm.conns, id)
	sm.mu.Unlock()
	sm.wg.Done()
}

// Count 当前运行中的会话数量
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.conns)
}

// CloseAll 关闭全部连接并等待会话退出，之后登记的会话会被直接关闭
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	sm.closed = true
	conns := make([]chat.Conn, 0, len(sm.conns))
	for _, c := range sm.conns {
		conns = append(conns, c)
	}
	sm.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
	sm.wg.Wait()
}

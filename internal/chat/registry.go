package chat

import (
	"sort"
	"sync"
)

// Registry 在线客户端注册表，所有操作互斥，网络写出永远不在锁内进行
type Registry struct {
	mu      sync.RWMutex
	entries map[Handle]*Entry
	nextSeq uint64
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Handle]*Entry),
	}
}

// Register 添加一个尚未设置昵称的客户端，句柄重复时返回 ErrDuplicateHandle
func (r *Registry) Register(h Handle, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[h]; exists {
		return ErrDuplicateHandle.WithContext(string(h))
	}
	r.nextSeq++
	e := &Entry{Handle: h, Conn: conn, seq: r.nextSeq}
	if conn != nil {
		e.Addr = conn.RemoteAddr()
	}
	r.entries[h] = e
	return nil
}

// SetName 设置昵称，后写覆盖前写；句柄不存在时返回 false
func (r *Registry) SetName(h Handle, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	if !ok {
		return false
	}
	e.Name = name
	return true
}

// Remove 移除客户端并返回被移除的条目。
// 断开与广播失败两条路径可能竞争移除同一句柄，已不存在时只返回 false。
func (r *Registry) Remove(h Handle) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	if !ok {
		return Entry{}, false
	}
	delete(r.entries, h)
	return *e, true
}

func (r *Registry) Get(h Handle) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[h]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot 按注册顺序返回除 exclude 外的所有条目副本，只在复制期间持锁
func (r *Registry) Snapshot(exclude Handle) []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for h, e := range r.entries {
		if h == exclude {
			continue
		}
		out = append(out, *e)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Names 返回已设置昵称的在线用户
func (r *Registry) Names() []string {
	var names []string
	for _, e := range r.Snapshot("") {
		if e.Name != "" {
			names = append(names, e.Name)
		}
	}
	return names
}

// CloseAll 清空注册表并关闭全部连接，返回被关闭的数量
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[Handle]*Entry)
	r.mu.Unlock()
	for _, e := range entries {
		if e.Conn != nil {
			_ = e.Conn.Close()
		}
	}
	return len(entries)
}

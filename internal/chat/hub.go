package chat

import (
	"sync"
	"time"
)

type EventHandler func(Event)

type handlerEntry struct {
	id uint64
	fn EventHandler
}

// Hub 持有注册表、广播器与事件订阅，TCP 与 WebSocket 传输共用同一个 Hub
type Hub struct {
	reg *Registry
	bc  *Broadcaster

	policy PrefixPolicy
	node   string

	// 按 EventType 注册的处理器
	handlersMu sync.RWMutex
	handlers   map[EventType][]handlerEntry
	nextHID    uint64
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		reg:      NewRegistry(),
		handlers: make(map[EventType][]handlerEntry),
	}
	h.bc = NewBroadcaster(h.reg, h.pruned)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Registry() *Registry { return h.reg }

func (h *Hub) Node() string { return h.node }

// Subscribe 注册事件处理器
func (h *Hub) Subscribe(t EventType, fn EventHandler) { _ = h.SubscribeCancelable(t, fn) }

// SubscribeCancelable 注册并返回一个取消函数，用于移除该处理器
func (h *Hub) SubscribeCancelable(t EventType, fn EventHandler) (cancel func()) {
	h.handlersMu.Lock()
	h.nextHID++
	id := h.nextHID
	h.handlers[t] = append(h.handlers[t], handlerEntry{id: id, fn: fn})
	h.handlersMu.Unlock()

	return func() {
		h.handlersMu.Lock()
		entries := h.handlers[t]
		if len(entries) > 0 {
			filtered := entries[:0]
			for _, e := range entries {
				if e.id != id {
					filtered = append(filtered, e)
				}
			}
			if len(filtered) == 0 {
				delete(h.handlers, t)
			} else {
				h.handlers[t] = append([]handlerEntry(nil), filtered...)
			}
		}
		h.handlersMu.Unlock()
	}
}

// Emit 在当前 goroutine 上依次调用处理器，处理器 panic 不会影响会话
func (h *Hub) Emit(e Event) {
	h.handlersMu.RLock()
	entries, ok := h.handlers[e.Type()]
	// 拷贝切片以避免并发修改影响
	var copied []handlerEntry
	if ok && len(entries) > 0 {
		copied = append(copied, entries...)
	}
	h.handlersMu.RUnlock()
	for _, entry := range copied {
		func(f EventHandler) {
			defer func() { _ = recover() }()
			f(e)
		}(entry.fn)
	}
}

// Admit 注册新连接并返回其会话，调用方负责在独立 goroutine 中执行 Session.Run
func (h *Hub) Admit(id Handle, conn Conn) (*Session, error) {
	if err := h.reg.Register(id, conn); err != nil {
		return nil, err
	}
	h.Emit(&ClientEvent{When: time.Now(), Kind: EventClientConnected, Handle: id, Addr: conn.RemoteAddr()})
	return newSession(h, id, conn), nil
}

// Relay 转发本地会话产生的消息，发送者自己不会收到
func (h *Hub) Relay(sender Handle, msg Message) Result {
	if msg.Origin == "" {
		msg.Origin = h.node
	}
	res := h.bc.Broadcast(msg.String(), sender)
	h.Emit(&MessageEvent{When: msg.When, Sender: sender, Message: msg, Delivered: res.Delivered, Local: true})
	return res
}

// DeliverRemote 把其它节点的消息投递给本节点全部连接
func (h *Hub) DeliverRemote(msg Message) Result {
	res := h.bc.Broadcast(msg.String(), "")
	h.Emit(&MessageEvent{When: msg.When, Message: msg, Delivered: res.Delivered, Local: false})
	return res
}

func (h *Hub) pruned(e Entry, removed bool, err error) {
	h.Emit(&ClientEvent{
		When:    time.Now(),
		Kind:    EventClientPruned,
		Handle:  e.Handle,
		Addr:    e.Addr,
		Name:    e.Name,
		Removed: removed,
		Err:     err,
	})
}

package chat

import "time"

// ClientEvent 客户端生命周期事件：连接、加入、断开、被剔除
type ClientEvent struct {
	When   time.Time
	Kind   EventType
	Handle Handle
	Addr   string
	Name   string
	// Removed 为 true 表示本次事件把句柄移出了注册表
	Removed bool
	Err     error
}

func (e *ClientEvent) Type() EventType { return e.Kind }

func (e *ClientEvent) Time() time.Time { return e.When }

// Label 日志中使用的名字，未设置昵称时退回到地址
func (e *ClientEvent) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Addr
}

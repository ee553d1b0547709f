package chat

import "time"

// MessageEvent 一条被转发的聊天消息
type MessageEvent struct {
	When      time.Time
	Sender    Handle // 远端消息为空
	Message   Message
	Delivered int // 本节点成功写出的连接数
	Local     bool
}

func (e *MessageEvent) Type() EventType {
	if e.Local {
		return EventMessageLocal
	}
	return EventMessageRemote
}

func (e *MessageEvent) Time() time.Time { return e.When }

package chat

import "time"

// Message 一条待转发的聊天消息，只在内存中短暂存在
type Message struct {
	From   string
	Body   string
	When   time.Time
	Origin string // 产生该消息的节点标识
}

func NewMessage(from, body string) Message {
	return Message{From: from, Body: body, When: time.Now()}
}

// String 线上格式 "<From>: <Body>"，不含行终止符
func (m Message) String() string {
	return m.From + ": " + m.Body
}

package chat

import "time"

// EventType 事件类型标识
type EventType string

const (
	EventClientConnected    EventType = "client.connected"
	EventClientJoined       EventType = "client.joined"
	EventClientDisconnected EventType = "client.disconnected"
	EventClientPruned       EventType = "client.pruned"
	EventMessageLocal       EventType = "message.local"
	EventMessageRemote      EventType = "message.remote" // 来自其它节点
)

type Event interface {
	Type() EventType
	Time() time.Time
}

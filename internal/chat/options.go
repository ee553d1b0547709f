package chat

import (
	"fmt"
	"strings"
)

// PrefixPolicy 决定 Active 状态下如何去掉客户端自带的 "<name>:" 前缀
type PrefixPolicy int

const (
	// PrefixName 只去掉与当前昵称相同的前缀
	PrefixName PrefixPolicy = iota
	// PrefixColon 去掉第一个 ':' 及之前的内容，与参考客户端/服务端的行为一致
	PrefixColon
	// PrefixNone 不做任何去除
	PrefixNone
)

func (p PrefixPolicy) String() string {
	switch p {
	case PrefixColon:
		return "colon"
	case PrefixNone:
		return "none"
	default:
		return "name"
	}
}

func ParsePrefixPolicy(s string) (PrefixPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return PrefixName, nil
	case "colon":
		return PrefixColon, nil
	case "none":
		return PrefixNone, nil
	default:
		return PrefixName, fmt.Errorf("unknown prefix policy: %s", s)
	}
}

type Option func(*Hub)

func WithPrefixPolicy(p PrefixPolicy) Option {
	return func(h *Hub) { h.policy = p }
}

// WithNode 设置本节点标识，写入本地消息的 Origin
func WithNode(id string) Option {
	return func(h *Hub) { h.node = id }
}

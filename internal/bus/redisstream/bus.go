package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	TypeChat = "chat"

	defaultMaxLen = 1000
)

// Bus 通过 Redis Stream 在多个节点之间转发聊天消息。
// 每个节点使用自己的消费组，因此所有节点都能收到每一条消息。
type Bus struct {
	cli    *redis.Client
	stream string
	group  string
	node   string
	maxLen int64
}

type Message struct {
	Type   string    `json:"type"`
	When   time.Time `json:"when"`
	From   string    `json:"from,omitempty"`
	Text   string    `json:"text,omitempty"`
	Origin string    `json:"origin"`
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Node     string
	MaxLen   int64 // 近似裁剪长度，0 使用默认值
}

func New(opt Options) *Bus {
	cli := redis.NewClient(&redis.Options{Addr: opt.Addr, Password: opt.Password, DB: opt.DB})
	return NewWithClient(cli, opt.Stream, opt.Node, opt.MaxLen)
}

func NewWithClient(cli *redis.Client, stream, node string, maxLen int64) *Bus {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &Bus{cli: cli, stream: stream, group: stream + "-" + node, node: node, maxLen: maxLen}
}

func (b *Bus) Node() string { return b.node }

func (b *Bus) Ping(ctx context.Context) error { return b.cli.Ping(ctx).Err() }

// EnsureGroup 创建本节点的消费组（流不存在时一并创建），只读取之后的新消息
func (b *Bus) EnsureGroup(ctx context.Context) error {
	err := b.cli.XGroupCreateMkStream(ctx, b.stream, b.group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (b *Bus) Publish(ctx context.Context, m *Message) error {
	if m.Origin == "" {
		m.Origin = b.node
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return b.cli.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]any{"data": payload},
	}).Err()
}

type Handler func(ctx context.Context, m *Message) error

// Consume blocks and delivers messages from other nodes to handler; cancel ctx to stop
func (b *Bus) Consume(ctx context.Context, consumer string, handler Handler) error {
	for {
		res, err := b.cli.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: consumer,
			Streams:  []string{b.stream, ">"},
			Count:    100,
			Block:    time.Second,
		}).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// transient errors: back off and retry
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		for _, str := range res {
			for _, xmsg := range str.Messages {
				if m, ok := decode(xmsg); ok && m.Origin != b.node {
					_ = handler(ctx, m)
				}
				// Acknowledge
				_ = b.cli.XAck(ctx, b.stream, b.group, xmsg.ID).Err()
			}
		}
	}
}

func (b *Bus) Close() error { return b.cli.Close() }

func decode(xmsg redis.XMessage) (*Message, bool) {
	raw, _ := xmsg.Values["data"].(string)
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, false
	}
	return &m, true
}

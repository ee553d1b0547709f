package subscriber

import (
	"context"
	"time"

	"github.com/hongjun500/chat-relay/internal/bus/redisstream"
	"github.com/hongjun500/chat-relay/internal/chat"
	"github.com/hongjun500/chat-relay/internal/observe"
	"github.com/hongjun500/chat-relay/pkg/logger"
)

// Publisher 把本地消息发布到集群总线
type Publisher interface {
	Publish(ctx context.Context, m *redisstream.Message) error
}

const publishTimeout = 2 * time.Second

// RegisterAll 把所有内置订阅者注册到 Hub。业务可按需拆分不同订阅集。
func RegisterAll(hub *chat.Hub) {
	registerConsole(hub)
	registerMetrics(hub)
}

// registerConsole 控制台通知：连接、加入、消息转发、断开、剔除
func registerConsole(hub *chat.Hub) {
	hub.Subscribe(chat.EventClientConnected, func(e chat.Event) {
		ce := e.(*chat.ClientEvent)
		logger.S().Infow(ce.Addr+" connected", "event", "client_connected", "handle", ce.Handle)
	})
	hub.Subscribe(chat.EventClientJoined, func(e chat.Event) {
		ce := e.(*chat.ClientEvent)
		logger.S().Infow(ce.Name+" joined the chat", "event", "client_joined", "addr", ce.Addr)
	})
	hub.Subscribe(chat.EventMessageLocal, func(e chat.Event) {
		me := e.(*chat.MessageEvent)
		logger.S().Infow(me.Message.String(), "event", "message_relayed", "delivered", me.Delivered)
	})
	hub.Subscribe(chat.EventMessageRemote, func(e chat.Event) {
		me := e.(*chat.MessageEvent)
		logger.S().Infow(me.Message.String(), "event", "message_remote", "origin", me.Message.Origin, "delivered", me.Delivered)
	})
	hub.Subscribe(chat.EventClientDisconnected, func(e chat.Event) {
		ce := e.(*chat.ClientEvent)
		kv := []any{"event", "client_disconnected", "handle", ce.Handle}
		if ce.Err != nil {
			kv = append(kv, "err", ce.Err)
		}
		logger.S().Infow(ce.Label()+" ("+ce.Addr+") disconnected", kv...)
	})
	hub.Subscribe(chat.EventClientPruned, func(e chat.Event) {
		ce := e.(*chat.ClientEvent)
		logger.S().Warnw("client_pruned", "name", ce.Label(), "addr", ce.Addr, "err", ce.Err)
	})
}

func registerMetrics(hub *chat.Hub) {
	online := func(chat.Event) { observe.SetOnline(hub.Registry().Len()) }
	hub.Subscribe(chat.EventClientConnected, online)
	hub.Subscribe(chat.EventClientDisconnected, online)
	hub.Subscribe(chat.EventClientPruned, func(e chat.Event) {
		observe.IncPruned()
		online(e)
	})
	hub.Subscribe(chat.EventMessageLocal, func(e chat.Event) {
		observe.IncMessage("local")
		observe.AddDeliveries(e.(*chat.MessageEvent).Delivered)
	})
	hub.Subscribe(chat.EventMessageRemote, func(e chat.Event) {
		observe.IncMessage("remote")
		observe.AddDeliveries(e.(*chat.MessageEvent).Delivered)
	})
}

// RegisterBus 把本地产生的消息发布到集群总线，远端消息不会被再次发布
func RegisterBus(hub *chat.Hub, pub Publisher) {
	hub.Subscribe(chat.EventMessageLocal, func(e chat.Event) {
		me := e.(*chat.MessageEvent)
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		err := pub.Publish(ctx, &redisstream.Message{
			Type:   redisstream.TypeChat,
			When:   me.Message.When,
			From:   me.Message.From,
			Text:   me.Message.Body,
			Origin: me.Message.Origin,
		})
		if err != nil {
			logger.S().Warnw("bus_publish_error", "err", err)
			observe.IncBusError("publish")
		}
	})
}

// RemoteHandler 返回总线消费回调：把其它节点的消息投递给本节点全部连接
func RemoteHandler(hub *chat.Hub) redisstream.Handler {
	return func(_ context.Context, m *redisstream.Message) error {
		if m.Type != redisstream.TypeChat {
			return nil
		}
		hub.DeliverRemote(chat.Message{From: m.From, Body: m.Text, When: m.When, Origin: m.Origin})
		return nil
	}
}

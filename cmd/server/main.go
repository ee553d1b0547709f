package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hongjun500/chat-relay/internal/bus/redisstream"
	"github.com/hongjun500/chat-relay/internal/chat"
	"github.com/hongjun500/chat-relay/internal/config"
	"github.com/hongjun500/chat-relay/internal/observe"
	"github.com/hongjun500/chat-relay/internal/subscriber"
	"github.com/hongjun500/chat-relay/internal/transport"
	"github.com/hongjun500/chat-relay/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run 返回进程退出码；所有退出路径都经过 defer，保证总线与日志被释放
func run(args []string) int {
	cfg := config.Load()
	fs := flag.NewFlagSet("chat-relay", flag.ContinueOnError)
	fs.StringVar(&cfg.TCPAddr, "addr", cfg.TCPAddr, "tcp listen address")
	fs.IntVar(&cfg.ReadBuffer, "read-buffer", cfg.ReadBuffer, "bytes per read / max line chunk")
	fs.StringVar(&cfg.Framing, "framing", cfg.Framing, "line framing: read|line")
	fs.StringVar(&cfg.PrefixPolicy, "prefix-policy", cfg.PrefixPolicy, "sender prefix stripping: name|colon|none")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "per-write deadline, 0 for none")
	fs.StringVar(&cfg.WSAddr, "ws-addr", cfg.WSAddr, "websocket listen address, empty to disable")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "metrics/health listen address, empty to disable")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address for the cluster bus, empty to disable")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	fs.StringVar(&cfg.LogEncoding, "log-encoding", cfg.LogEncoding, "console|json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger.SetEncoding(cfg.LogEncoding)
	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()
	log := logger.S()

	if err := cfg.Validate(); err != nil {
		log.Errorw("invalid_config", "err", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := chat.NewHub(chat.WithPrefixPolicy(cfg.Policy()), chat.WithNode(cfg.NodeID))
	subscriber.RegisterAll(hub)

	opt := transport.Options{
		Framing:      cfg.Framing,
		ReadBuffer:   cfg.ReadBuffer,
		WriteTimeout: cfg.WriteTimeout,
	}

	var wg sync.WaitGroup
	if cfg.RedisAddr != "" {
		bus := redisstream.New(redisstream.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Node:     cfg.NodeID,
		})
		defer bus.Close()
		if err := bus.Ping(ctx); err != nil {
			log.Errorw("redis_connect_error", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		if err := bus.EnsureGroup(ctx); err != nil {
			log.Errorw("redis_group_error", "stream", cfg.RedisStream, "err", err)
			return 1
		}
		subscriber.RegisterBus(hub, bus)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bus.Consume(ctx, "relay-"+cfg.NodeID, subscriber.RemoteHandler(hub)); err != nil && !errors.Is(err, context.Canceled) {
				log.Warnw("bus_consume_exit", "err", err)
				observe.IncBusError("consume")
			}
		}()
		log.Infow("bus_enabled", "addr", cfg.RedisAddr, "stream", cfg.RedisStream, "node", bus.Node())
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := observe.StartHTTP(cfg.MetricsAddr); err != nil {
				log.Warnw("metrics_http_exit", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
	}

	transports := map[string]transport.Transport{cfg.TCPAddr: transport.NewTCPServer(hub, opt)}
	if cfg.WSAddr != "" {
		transports[cfg.WSAddr] = transport.NewWebSocketServer(hub, opt)
	}
	errCh := make(chan error, len(transports))
	for addr, tp := range transports {
		wg.Add(1)
		go func(addr string, tp transport.Transport) {
			defer wg.Done()
			if err := tp.Start(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}(addr, tp)
	}
	log.Infow("chat-relay server started", "node", hub.Node(), "tcp", cfg.TCPAddr, "framing", cfg.Framing, "prefix_policy", cfg.PrefixPolicy)

	code := 0
	select {
	case <-ctx.Done():
		log.Infow("shutting_down")
	case err := <-errCh:
		// 任一传输退出即停止其余传输，再以非零码退出
		log.Errorw("transport_exit", "err", err)
		code = 1
		stop()
	}
	wg.Wait()
	if n := hub.Registry().CloseAll(); n > 0 {
		log.Infow("closed_remaining_clients", "count", n)
	}
	return code
}

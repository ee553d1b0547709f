package main

import (
	"net"
	"testing"
	"time"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func runAsync(args ...string) <-chan int {
	ch := make(chan int, 1)
	go func() { ch <- run(args) }()
	return ch
}

func waitCode(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case code := <-ch:
		return code
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return")
		return -1
	}
}

func TestRunInvalidConfig(t *testing.T) {
	if code := waitCode(t, runAsync("-framing", "frames")); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRunTransportFailureStopsOthers(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()
	wsAddr := freeAddr(t)

	code := waitCode(t, runAsync("-addr", busy.Addr().String(), "-ws-addr", wsAddr))
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	// websocket 监听应随之关闭，端口可以重新绑定
	ln, err := net.Listen("tcp", wsAddr)
	if err != nil {
		t.Fatalf("ws listener still bound after exit: %v", err)
	}
	_ = ln.Close()
}

func TestRunRedisUnavailable(t *testing.T) {
	code := waitCode(t, runAsync("-addr", freeAddr(t), "-redis-addr", freeAddr(t)))
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

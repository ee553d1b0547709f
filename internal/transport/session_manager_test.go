package transport

import (
	"net"
	"testing"
	"time"

	"github.com/hongjun500/chat-relay/internal/chat"
)

func admitPipe(t *testing.T, hub *chat.Hub, id chat.Handle) (*chat.Session, *LineConn, net.Conn) {
	t.Helper()
	lc, client := pipe(t, Options{})
	sess, err := hub.Admit(id, lc)
	if err != nil {
		t.Fatalf("admit %s: %v", id, err)
	}
	return sess, lc, client
}

func TestSessionManagerCloseAllWaitsForSessions(t *testing.T) {
	hub := chat.NewHub()
	sm := NewSessionManager()
	sess, lc, _ := admitPipe(t, hub, "a")
	sm.Go(sess, lc)
	eventually(t, "session tracked", func() bool { return sm.Count() == 1 })

	sm.CloseAll()
	if n := sm.Count(); n != 0 {
		t.Fatalf("expected no tracked sessions, got %d", n)
	}
	if n := hub.Registry().Len(); n != 0 {
		t.Fatalf("expected empty registry, got %d", n)
	}
}

func TestSessionManagerRunAfterCloseAll(t *testing.T) {
	hub := chat.NewHub()
	sm := NewSessionManager()
	sm.CloseAll()

	sess, lc, client := admitPipe(t, hub, "late")
	done := make(chan struct{})
	go func() {
		sm.Run(sess, lc)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("session admitted after CloseAll kept running")
	}
	if n := sm.Count(); n != 0 {
		t.Fatalf("late session should not be tracked, got %d", n)
	}
	if n := hub.Registry().Len(); n != 0 {
		t.Fatalf("late session should be unregistered, got %d", n)
	}
	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := client.Read(make([]byte, 1)); err == nil {
		t.Fatalf("late session connection should be closed")
	}
}

func TestSessionManagerGoAfterCloseAll(t *testing.T) {
	hub := chat.NewHub()
	sm := NewSessionManager()
	sm.CloseAll()

	sess, lc, _ := admitPipe(t, hub, "late")
	sm.Go(sess, lc)
	eventually(t, "late session unregistered", func() bool { return hub.Registry().Len() == 0 })
	if n := sm.Count(); n != 0 {
		t.Fatalf("late session should not be tracked, got %d", n)
	}
	if err := lc.WriteLine("x"); err == nil {
		t.Fatalf("late session connection should be closed")
	}
}

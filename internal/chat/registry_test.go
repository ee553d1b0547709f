package chat

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestRegistryRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("h1", newFakeConn("1.1.1.1:1")); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := reg.Register("h1", newFakeConn("1.1.1.1:2"))
	if !errors.Is(err, ErrDuplicateHandle) {
		t.Fatalf("expected ErrDuplicateHandle, got %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", reg.Len())
	}
	e, _ := reg.Get("h1")
	if e.Addr != "1.1.1.1:1" {
		t.Fatalf("duplicate register must not replace entry, addr=%s", e.Addr)
	}
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("h1", newFakeConn("a"))
	if _, ok := reg.Remove("h1"); !ok {
		t.Fatalf("first remove should report removal")
	}
	if _, ok := reg.Remove("h1"); ok {
		t.Fatalf("second remove should be a no-op")
	}
	if _, ok := reg.Remove("missing"); ok {
		t.Fatalf("removing unknown handle should be a no-op")
	}
}

func TestRegistrySetName(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("h1", newFakeConn("a"))
	if e, _ := reg.Get("h1"); e.Name != "" || e.DisplayName() != UnknownName {
		t.Fatalf("new entry must have unset name, got %q", e.Name)
	}
	reg.SetName("h1", "alice")
	reg.SetName("h1", "alice2")
	if e, _ := reg.Get("h1"); e.Name != "alice2" {
		t.Fatalf("last write should win, got %q", e.Name)
	}
	if reg.SetName("missing", "x") {
		t.Fatalf("SetName on unknown handle should return false")
	}
}

func TestRegistrySnapshotOrderAndExclude(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 5; i++ {
		_ = reg.Register(Handle(fmt.Sprintf("h%d", i)), newFakeConn(fmt.Sprintf("addr%d", i)))
	}
	snap := reg.Snapshot("h2")
	want := []Handle{"h0", "h1", "h3", "h4"}
	if len(snap) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(snap))
	}
	for i, e := range snap {
		if e.Handle != want[i] {
			t.Fatalf("snapshot[%d]=%s, want %s", i, e.Handle, want[i])
		}
	}
	// 快照是副本，之后的修改不影响它
	reg.Remove("h0")
	if snap[0].Handle != "h0" {
		t.Fatalf("snapshot must not change after registry mutation")
	}
}

func TestRegistryConcurrentMembership(t *testing.T) {
	reg := NewRegistry()
	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := Handle(fmt.Sprintf("h%d", i))
			if err := reg.Register(h, newFakeConn(string(h))); err != nil {
				t.Errorf("register %s: %v", h, err)
				return
			}
			_ = reg.Snapshot(h)
			if i%2 == 0 {
				reg.Remove(h)
				// 断开与剔除竞争移除同一句柄
				reg.Remove(h)
			}
		}(i)
	}
	wg.Wait()
	if got := reg.Len(); got != n/2 {
		t.Fatalf("expected %d live entries, got %d", n/2, got)
	}
}

func TestRegistryCloseAll(t *testing.T) {
	reg := NewRegistry()
	a, b := newFakeConn("a"), newFakeConn("b")
	_ = reg.Register("a", a)
	_ = reg.Register("b", b)
	if n := reg.CloseAll(); n != 2 {
		t.Fatalf("expected 2 closed, got %d", n)
	}
	if !a.IsClosed() || !b.IsClosed() || reg.Len() != 0 {
		t.Fatalf("CloseAll should close and drop every entry")
	}
}

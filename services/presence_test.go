package services

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestClient(userID, connID string) *Client {
	return &Client{
		Send:     make(chan []byte, sendQueueSize),
		UserID:   userID,
		ConnID:   connID,
		LastPong: time.Now(),
	}
}

func TestRegisterUnregister(t *testing.T) {
	reg := NewPresenceRegistry()

	c1 := newTestClient("u1", "conn-1")
	c2 := newTestClient("u1", "conn-2")

	reg.Register(c1)
	reg.Register(c2)

	if !reg.IsOnline("u1") {
		t.Fatal("expected u1 online after register")
	}
	if got := len(reg.ClientsFor("u1")); got != 2 {
		t.Fatalf("expected 2 clients for u1, got %d", got)
	}

	// 注销一个连接后仍在线
	reg.Unregister(c1)
	if !reg.IsOnline("u1") {
		t.Fatal("expected u1 still online with one connection left")
	}

	// 最后一个连接断开即离线
	reg.Unregister(c2)
	if reg.IsOnline("u1") {
		t.Fatal("expected u1 offline after last connection closed")
	}
	if got := len(reg.ClientsFor("u1")); got != 0 {
		t.Fatalf("expected no clients for u1, got %d", got)
	}
}

func TestUnregisterUnknownClientIsNoop(t *testing.T) {
	reg := NewPresenceRegistry()
	reg.Unregister(newTestClient("ghost", "conn-x"))
	if reg.IsOnline("ghost") {
		t.Fatal("ghost should not be online")
	}
}

func TestListOnline(t *testing.T) {
	reg := NewPresenceRegistry()
	reg.Register(newTestClient("a", "1"))
	reg.Register(newTestClient("b", "2"))
	reg.Register(newTestClient("b", "3"))

	online := reg.ListOnline()
	if len(online) != 2 {
		t.Fatalf("expected 2 online users, got %v", online)
	}
	seen := map[string]bool{}
	for _, id := range online {
		seen[id] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("unexpected online set: %v", online)
	}
}

func TestTrySendAfterClose(t *testing.T) {
	c := newTestClient("u1", "conn-1")
	if !c.TrySend([]byte("hello")) {
		t.Fatal("expected TrySend to succeed on open client")
	}
	c.CloseSend()
	if c.TrySend([]byte("late")) {
		t.Fatal("expected TrySend to fail after close")
	}
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	reg := NewPresenceRegistry()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i%5)
			c := newTestClient(userID, fmt.Sprintf("conn-%d", i))
			reg.Register(c)
			if !reg.IsOnline(userID) {
				t.Errorf("expected %s online", userID)
			}
			reg.Unregister(c)
		}(i)
	}
	wg.Wait()

	if got := len(reg.ListOnline()); got != 0 {
		t.Fatalf("expected empty registry after all unregistered, got %d", got)
	}
}

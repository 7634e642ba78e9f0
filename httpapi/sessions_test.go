package httpapi

import (
	"testing"
	"time"

	"pkt.systems/hackterm/schema"
)

func TestSessionStoreCreateGetDelete(t *testing.T) {
	store := newSessionStore(time.Hour, 10, 5)
	token, sess := store.create("core-1")
	if token == "" || sess.id == "" {
		t.Fatalf("expected token and id")
	}
	if sess.coreID != "core-1" {
		t.Fatalf("unexpected core id: %q", sess.coreID)
	}
	if sess.limiter == nil || sess.limiter.Burst() != 5 {
		t.Fatalf("expected limiter with burst 5")
	}
	got, ok := store.get(token)
	if !ok || got.limiter != sess.limiter {
		t.Fatalf("expected session with shared limiter")
	}
	store.delete(token)
	if _, ok := store.get(token); ok {
		t.Fatalf("expected session to be deleted")
	}
	if _, ok := store.get(""); ok {
		t.Fatalf("expected empty token to miss")
	}
}

func TestSessionStoreExpiration(t *testing.T) {
	store := newSessionStore(time.Hour, 10, 5)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	var expired []schema.SessionID
	store.onExpire = func(id schema.SessionID) { expired = append(expired, id) }

	token, _ := store.create("core-1")
	store.create("core-2")
	now = now.Add(2 * time.Hour)
	if _, ok := store.get(token); ok {
		t.Fatalf("expected expired session")
	}
	if len(expired) != 1 || expired[0] != "core-1" {
		t.Fatalf("expected expiry callback for core-1, got %v", expired)
	}
	if n := store.sweep(); n != 1 {
		t.Fatalf("expected sweep to drop one, got %d", n)
	}
	if store.len() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestSessionStoreRebind(t *testing.T) {
	store := newSessionStore(time.Hour, 10, 5)
	token, _ := store.create("core-1")
	if _, ok := store.rebind(token, "core-2"); !ok {
		t.Fatalf("expected rebind")
	}
	got, _ := store.get(token)
	if got.coreID != "core-2" {
		t.Fatalf("expected rebound core id, got %q", got.coreID)
	}
	if _, ok := store.rebind("missing", "core-3"); ok {
		t.Fatalf("expected rebind of unknown token to fail")
	}
}

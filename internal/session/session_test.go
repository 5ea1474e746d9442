package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	sess, err := store.Create(ctx, "upstream-token", "u-1", "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.ID == "" || sess.Token != "upstream-token" || sess.Role != "admin" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Token != sess.Token || got.UserID != "u-1" {
		t.Fatalf("unexpected stored session: %+v", got)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10 * time.Millisecond)

	sess, err := store.Create(ctx, "upstream-token", "u-1", "admin")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := store.Get(ctx, sess.ID); err != ErrNotFound {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
}

package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, ""), mr
}

func TestRedisCreateGetRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, PreSession{
		EntityName: "user",
		UserID:     "u1",
		ExpiredAt:  time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated session id")
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("session not found after create")
	}
	if got.UserID != "u1" || got.EntityName != "user" {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestRedisGetUnknownID(t *testing.T) {
	store, _ := newTestRedisStore(t)

	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown id, got %+v", got)
	}
}

func TestRedisCreateRejectsExpiredPreSession(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Create(context.Background(), PreSession{
		EntityName: "user",
		UserID:     "u1",
		ExpiredAt:  time.Now().Add(-time.Second),
	})
	if err != ErrExpiredPreSession {
		t.Fatalf("expected ErrExpiredPreSession, got %v", err)
	}
}

func TestRedisDeleteIdempotent(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, PreSession{
		EntityName: "user",
		UserID:     "u1",
		ExpiredAt:  time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	deleted, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		t.Fatal("first delete must report an existing record")
	}

	deleted, err = store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if deleted {
		t.Fatal("second delete must report nothing to remove")
	}
}

func TestRedisSessionExpiresWithKeyTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, PreSession{
		EntityName: "user",
		UserID:     "u1",
		ExpiredAt:  time.Now().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expired session still resolvable: %+v", got)
	}
}

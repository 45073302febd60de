package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisRevoker_SurfacesConnectionErrors(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	rv := NewRedisRevoker(rdb)

	if _, err := rv.IsRevoked(context.Background(), "s1"); err == nil {
		t.Fatalf("expected connection error")
	}
	if err := rv.Revoke(context.Background(), "s1", time.Now().Add(time.Minute)); err == nil {
		t.Fatalf("expected connection error")
	}
}

func TestRedisRevoker_ExpiredSessionIsNoOp(t *testing.T) {
	rv := NewRedisRevoker(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))
	if err := rv.Revoke(context.Background(), "s1", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("expected no-op for an already expired session, got %v", err)
	}
}

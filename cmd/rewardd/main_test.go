package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/0gfoundation/0g-reward-payout/internal/config"
	"github.com/0gfoundation/0g-reward-payout/internal/idempotency"
)

func testConfig(backend, redisAddr string) *config.Config {
	return &config.Config{
		Idempotency: config.IdempotencyConfig{Backend: backend, TTLSec: 60},
		Redis:       config.RedisConfig{Addr: redisAddr},
	}
}

func TestNewStore_Memory(t *testing.T) {
	store, closeStore, err := newStore(context.Background(), testConfig(config.BackendMemory, ""))
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*idempotency.MemoryStore); !ok {
		t.Fatalf("expected *MemoryStore, got %T", store)
	}
}

func TestNewStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, closeStore, err := newStore(ctx, testConfig(config.BackendRedis, mr.Addr()))
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*idempotency.RedisStore); !ok {
		t.Fatalf("expected *RedisStore, got %T", store)
	}

	k := idempotency.Key{Recipient: "r", IdempotencyKey: "k"}
	if err := store.Save(ctx, k, "sig", time.Now()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL("reward:paid:r:k"); ttl != time.Minute {
		t.Errorf("expected 60s TTL from config, got %v", ttl)
	}
}

func TestNewStore_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, _, err := newStore(context.Background(), testConfig(config.BackendRedis, addr))
	if err == nil || !strings.Contains(err.Error(), "redis ping") {
		t.Fatalf("expected redis ping error, got %v", err)
	}
}

func TestNewStore_UnknownBackend(t *testing.T) {
	_, _, err := newStore(context.Background(), testConfig("etcd", ""))
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type stubRedisStore struct {
	values map[string]string
	setNX  bool
}

func newStubRedisStore() *stubRedisStore {
	return &stubRedisStore{values: map[string]string{}, setNX: true}
}

func (s *stubRedisStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if !s.setNX {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *stubRedisStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubRedisStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newStubRedisStore()
	lock, err := NewRedisLock(store, "pd:cron-worker:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !ok {
		t.Fatalf("expected lock acquired")
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok := store.values["pd:cron-worker:lock:test"]; ok {
		t.Fatalf("expected lock key deleted")
	}
}

func TestRedisLockAcquireContended(t *testing.T) {
	store := newStubRedisStore()
	store.setNX = false

	lock, err := NewRedisLock(store, "pd:cron-worker:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if ok {
		t.Fatalf("expected contention to deny the lock")
	}
}

func TestRedisLockReleaseOnlyOwner(t *testing.T) {
	store := newStubRedisStore()
	lock, err := NewRedisLock(store, "pd:cron-worker:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if _, err := lock.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// another instance took over after TTL expiry
	store.values["pd:cron-worker:lock:test"] = "someone-else"

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["pd:cron-worker:lock:test"] != "someone-else" {
		t.Fatalf("release must not delete a lock owned by another instance")
	}
}

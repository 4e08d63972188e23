package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 25 * time.Hour

// Lock coordinates exclusive job runs across worker instances.
type Lock interface {
	Acquire(ctx context.Context, job string) (bool, error)
	Release(ctx context.Context, job string) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(scope string) string
}

// RedisLock implements Lock with one SETNX key per job name.
type RedisLock struct {
	client lockStore
	ttl    time.Duration

	mtx    sync.Mutex
	owners map[string]string
}

// NewRedisLock constructs a Redis-backed job lock.
func NewRedisLock(client lockStore, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, ttl: ttl, owners: make(map[string]string)}, nil
}

// Acquire tries to own the job's lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context, job string) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.client.LockKey(job), owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.mtx.Lock()
		l.owners[job] = owner
		l.mtx.Unlock()
	}
	return ok, nil
}

// Release frees the job's lock only if the owner value still matches.
func (l *RedisLock) Release(ctx context.Context, job string) error {
	l.mtx.Lock()
	owner := l.owners[job]
	l.mtx.Unlock()
	if owner == "" {
		return nil
	}
	key := l.client.LockKey(job)
	value, err := l.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != owner {
		return nil
	}
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.mtx.Lock()
	delete(l.owners, job)
	l.mtx.Unlock()
	return nil
}

// NoopLock always grants the lock; used for single-instance deployments
// and manual triggers.
type NoopLock struct{}

func (NoopLock) Acquire(ctx context.Context, job string) (bool, error) { return true, nil }
func (NoopLock) Release(ctx context.Context, job string) error         { return nil }

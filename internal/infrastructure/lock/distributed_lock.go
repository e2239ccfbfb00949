package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// ============================================================================
// Redis lock
// ============================================================================
//
// Acquire: SET key value NX EX ttl. The value identifies the holder so that
// a holder whose lock already expired cannot delete the next holder's key.
// Release: compare-and-delete in a Lua script.
// ============================================================================

var (
	ErrLockFailed = errors.New("failed to acquire lock")
)

const unlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// DistributedLock is a single redis-backed mutex.
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

// NewDistributedLock creates a lock on key held as value.
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock makes one non-blocking attempt.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Lock retries TryLock every retryInterval, at most maxRetries times.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return errors.Wrapf(ErrLockFailed, "key %s", l.key)
}

// Unlock releases the lock if it is still held by this value.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	_, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	return err
}

// RedisLocker acquires sets of DistributedLocks.
type RedisLocker struct {
	client *redis.Client
	opts   Options
}

// NewRedisLocker builds a Locker on top of client.
func NewRedisLocker(client *redis.Client, opts Options) *RedisLocker {
	return &RedisLocker{client: client, opts: opts.withDefaults()}
}

// Acquire takes every key in sorted order. If any key cannot be taken the
// ones already held are released before returning.
func (r *RedisLocker) Acquire(ctx context.Context, owner string, keys ...string) (func(), error) {
	held := make([]*DistributedLock, 0, len(keys))
	release := func() {
		// background context: release must run even if ctx was cancelled
		for i := len(held) - 1; i >= 0; i-- {
			_ = held[i].Unlock(context.Background())
		}
	}

	for _, key := range orderKeys(keys) {
		l := NewDistributedLock(r.client, key, owner, r.opts.TTL)
		if err := l.Lock(ctx, r.opts.RetryInterval, r.opts.MaxRetries); err != nil {
			release()
			return nil, err
		}
		held = append(held, l)
	}
	return release, nil
}

package lock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Locker serialises work on a set of entities. Keys are always taken in
// sorted order, so two callers locking the same account and product can
// never deadlock each other.
type Locker interface {
	Acquire(ctx context.Context, owner string, keys ...string) (release func(), err error)
}

// Options bounds how long Acquire keeps trying.
type Options struct {
	TTL           time.Duration
	RetryInterval time.Duration
	MaxRetries    int
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 10 * time.Second
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 50 * time.Millisecond
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 20
	}
	return o
}

// AccountKey is the lock key of an account.
func AccountKey(userID int64) string {
	return fmt.Sprintf("vending:lock:account:%d", userID)
}

// ProductKey is the lock key of a product.
func ProductKey(productID int64) string {
	return fmt.Sprintf("vending:lock:product:%d", productID)
}

func orderKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LocalLocker is an in-process Locker for single instance deployments and
// tests. A held key is polled with the same retry budget as the redis lock.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]string
	opts Options
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker(opts Options) *LocalLocker {
	return &LocalLocker{held: make(map[string]string), opts: opts.withDefaults()}
}

func (l *LocalLocker) tryLock(key, owner string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = owner
	return true
}

func (l *LocalLocker) unlock(key, owner string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == owner {
		delete(l.held, key)
	}
}

func (l *LocalLocker) lock(ctx context.Context, key, owner string) error {
	for i := 0; i < l.opts.MaxRetries; i++ {
		if l.tryLock(key, owner) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.opts.RetryInterval):
		}
	}
	return errors.Wrapf(ErrLockFailed, "key %s", key)
}

// Acquire implements Locker.
func (l *LocalLocker) Acquire(ctx context.Context, owner string, keys ...string) (func(), error) {
	var held []string
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i], owner)
		}
	}

	for _, key := range orderKeys(keys) {
		if err := l.lock(ctx, key, owner); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}
	return release, nil
}

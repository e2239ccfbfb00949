package service

import (
	"context"

	"github.com/google/uuid"

	"vendingmachine/internal/infrastructure/lock"
)

// withLocks runs fn while holding every key. The owner value is unique per
// call so a late release can never free somebody else's lock.
func withLocks(ctx context.Context, locker lock.Locker, fn func() error, keys ...string) error {
	release, err := locker.Acquire(ctx, uuid.NewString(), keys...)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

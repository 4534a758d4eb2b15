// Package dedup guards run identities against concurrent evaluation.
package dedup

import (
	"context"
	"time"
)

// Locker acquires short-lived exclusive locks keyed by run id.
type Locker interface {
	// TryLock acquires key for ttl. Returns false if another holder has it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Unlock releases key. Releasing a key that is not held is not an error.
	Unlock(ctx context.Context, key string) error
}

// NopLocker always grants the lock.
type NopLocker struct{}

// TryLock always succeeds.
func (NopLocker) TryLock(context.Context, string, time.Duration) (bool, error) { return true, nil }

// Unlock does nothing.
func (NopLocker) Unlock(context.Context, string) error { return nil }

var (
	_ Locker = NopLocker{}
	_ Locker = (*MemoryLocker)(nil)
	_ Locker = (*RedisLocker)(nil)
)

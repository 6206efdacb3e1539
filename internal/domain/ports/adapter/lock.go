package adapter

import (
	"context"
	"time"
)

// Locker serializes work on a shared key across processes. TryLock
// returns a release token or domain.ErrVerifyInProgress when the key is
// already held.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/ports/adapter"
)

var _ adapter.Locker = (*Locker)(nil)

// Locker is a single-instance Redis lock. Good enough to serialize slip
// verification per transaction across web replicas.
type Locker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *Locker {
	return &Locker{cli: c.cli}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrVerifyInProgress
	}
	return token, nil
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}

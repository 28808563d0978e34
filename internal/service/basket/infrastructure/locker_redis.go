package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/smiles-unlimited/ufund/internal/pkg/logger"
)

// releaseScript deletes the lock key only when the caller still owns it, so
// a lock that expired and was re-acquired by another instance is never
// released by the old owner.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisStockLocker serializes stock mutations per toy across service
// instances with a token-checked SET NX lock. The TTL bounds how long a
// crashed holder can block other checkouts.
type RedisStockLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisStockLocker(client *redis.Client, ttl time.Duration) *RedisStockLocker {
	return &RedisStockLocker{client: client, ttl: ttl, retry: 20 * time.Millisecond}
}

func (l *RedisStockLocker) Lock(ctx context.Context, toyID int) (func(), error) {
	key := fmt.Sprintf("stock_lock:{toy:%d}", toyID)
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}
		select {
		case <-time.After(l.retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *RedisStockLocker) release(key, token string) {
	// Release runs on its own context; the caller's may already be done.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to release stock lock")
	}
}

package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// release deletes the lock only while it still holds our token, so an
// expired holder cannot free a lock another instance has since taken.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker hands out named locks held in Redis with SET NX PX
type RedisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

// TryLock takes the lock called name for at most ttl. ok is false when
// another holder has it.
func (l *RedisLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, l.prefix+name, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Unlock frees the lock if token still owns it
func (l *RedisLocker) Unlock(ctx context.Context, name, token string) error {
	return release.Run(ctx, l.client, []string{l.prefix + name}, token).Err()
}

package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another caller holds the lock.
var ErrLockHeld = errors.New("lock is held by another caller")

const rotationKeyPrefix = "task-api:rotation:"

// RotationLocker serialises refresh token rotation per user.
type RotationLocker interface {
	// Acquire takes the lock for userID and returns the function releasing it.
	Acquire(ctx context.Context, userID string) (release func(), err error)
}

// Noop never blocks. Concurrent rotations resolve as last write wins.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes the key only while it still carries our token, so a
// lock that expired and was re-acquired elsewhere is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is an advisory lock built on SET NX with a TTL.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, userID string) (func(), error) {
	key := rotationKeyPrefix + userID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire rotation lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return func() {
		// The request context may already be cancelled here.
		releaseScript.Run(context.Background(), l.client, []string{key}, token)
	}, nil
}

// NewRedisClient parses url and checks the connection. An empty url means
// Redis is not configured and returns a nil client.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

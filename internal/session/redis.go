package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/utils"
)

const (
	DefaultRedisPrefix = "interview:session:"
	DefaultRedisTTL    = 24 * time.Hour
	// DefaultRedisLockTTL bounds how long a crashed instance can hold a
	// session lock. It covers two oracle calls with the default timeout.
	DefaultRedisLockTTL = time.Minute

	lockRetryInterval = 50 * time.Millisecond
)

// releaseLock deletes the lock key only while it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps JSON encoded states in Redis. Every Put refreshes the TTL.
// It also implements SessionLocker, so instances sharing one Redis serialize
// turns of the same session.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if ttl < 0 {
		ttl = 0
	}

	return &RedisStore{client: client, prefix: prefix, ttl: ttl, lockTTL: DefaultRedisLockTTL}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) lockKey(id string) string {
	return r.prefix + "lock:" + id
}

// LockSession takes the session lock with SET NX PX, polling until it is free
// or ctx is done.
func (r *RedisStore) LockSession(ctx context.Context, id string) (func(), error) {
	key := r.lockKey(id)
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			break
		}
		if err := utils.WaitFor(ctx, lockRetryInterval); err != nil {
			return nil, fmt.Errorf("redis lock: %w", err)
		}
	}

	return func() {
		// An expired lock may already belong to someone else; the script
		// leaves it alone then.
		_ = releaseLock.Run(context.WithoutCancel(ctx), r.client, []string{key}, token).Err()
	}, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*interview.State, error) {
	data, err := r.client.Get(ctx, r.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return decodeState(id, data)
}

func (r *RedisStore) Put(ctx context.Context, id string, state interview.State) error {
	if err := validID(id); err != nil {
		return err
	}

	data, err := encodeState(id, state)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

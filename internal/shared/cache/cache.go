package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// GenerationKey counts invalidations. It sits outside every cached prefix so pattern
// invalidation never resets it.
const GenerationKey = "cache:generation"

// setIfGeneration writes KEYS[2] only while KEYS[1] still holds ARGV[1].
var setIfGeneration = redis.NewScript(`
local cur = redis.call('GET', KEYS[1]) or '0'
if cur ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// Invalidator drops cached query results. Writers of user-derived fields call it after commit
// so readers never observe a stale status.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePattern(ctx context.Context, prefix string) error
}

// Store is a read-through cache. Loaders read Generation before hitting the database and
// write back with SetJSONAt, which refuses the write if any invalidation ran in between.
type Store interface {
	Invalidator
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	Generation(ctx context.Context) (int64, error)
	SetJSONAt(ctx context.Context, key string, gen int64, value any, ttl time.Duration) (bool, error)
}

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

// Invalidate bumps the generation before deleting, so an in-flight load that read the old
// generation can no longer write its result back.
func (s *redisStore) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Incr(ctx, GenerationKey).Err(); err != nil {
		return err
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// InvalidatePattern deletes every key starting with prefix, scanning in batches so a large
// keyspace never blocks the server the way KEYS would.
func (s *redisStore) InvalidatePattern(ctx context.Context, prefix string) error {
	if err := s.rdb.Incr(ctx, GenerationKey).Err(); err != nil {
		return err
	}

	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *redisStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *redisStore) Generation(ctx context.Context) (int64, error) {
	gen, err := s.rdb.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetJSONAt stores value unless the generation moved past gen. It reports whether it wrote.
func (s *redisStore) SetJSONAt(ctx context.Context, key string, gen int64, value any, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	written, err := setIfGeneration.Run(ctx, s.rdb,
		[]string{GenerationKey, key},
		strconv.FormatInt(gen, 10), string(payload), ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

type noopStore struct{}

// NewNoopStore is used when Redis is not configured; every read misses.
func NewNoopStore() Store {
	return noopStore{}
}

func (noopStore) Invalidate(context.Context, ...string) error { return nil }
func (noopStore) InvalidatePattern(context.Context, string) error { return nil }
func (noopStore) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (noopStore) Generation(context.Context) (int64, error) { return 0, nil }
func (noopStore) SetJSONAt(context.Context, string, int64, any, time.Duration) (bool, error) {
	return false, nil
}

package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldCount        = "count"
	fieldBlockedUntil = "blocked_until"
)

// RedisStore shares records across replicas through a redis hash per client.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a redis-backed store. Keys are namespaced by prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "screenpair"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

// Get implements Store.Get.
func (s *RedisStore) Get(ctx context.Context, key string) (Record, bool, error) {
	values, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return Record{}, false, err
	}
	if len(values) == 0 {
		return Record{}, false, nil
	}

	var rec Record
	if v, ok := values[fieldCount]; ok {
		if rec.Count, err = strconv.Atoi(v); err != nil {
			return Record{}, false, errors.New("corrupt failure count")
		}
	}
	if v, ok := values[fieldBlockedUntil]; ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Record{}, false, errors.New("corrupt block timestamp")
		}
		rec.BlockedUntil = time.UnixMilli(ms)
	}
	return rec, true, nil
}

// Increment implements Store.Increment.
func (s *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int, error) {
	k := s.key(key)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, k, fieldCount, 1)
		pipe.PExpire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// Block implements Store.Block.
func (s *RedisStore) Block(ctx context.Context, key string, until time.Time, ttl time.Duration) error {
	k := s.key(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldBlockedUntil, until.UnixMilli())
		pipe.PExpire(ctx, k, ttl)
		return nil
	})
	return err
}

// Delete implements Store.Delete.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

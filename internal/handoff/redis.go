package handoff

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "handoff:"

// RedisStore keeps each hand-off as a Redis hash that expires after ttl.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a RedisStore. A zero ttl keeps hand-offs forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) key(namespace string) string {
	return redisKeyPrefix + namespace
}

func (s *RedisStore) Put(ctx context.Context, namespace string, values map[string]string) error {
	key := s.key(namespace)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put handoff: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, namespace string) (map[string]string, error) {
	values, err := s.rdb.HGetAll(ctx, s.key(namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("get handoff: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}
	return values, nil
}

func (s *RedisStore) Delete(ctx context.Context, namespace string) error {
	if err := s.rdb.Del(ctx, s.key(namespace)).Err(); err != nil {
		return fmt.Errorf("delete handoff: %w", err)
	}
	return nil
}

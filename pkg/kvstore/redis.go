package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shopfront/config"
	"shopfront/pkg/metrics"
)

// redisStore shares persisted state across devices through Redis.
type redisStore struct {
	rdb *redis.Client
	ctx context.Context
}

// NewRedis connects to the configured Redis instance and verifies the
// connection with a ping so the manager can fall back early.
func NewRedis() (Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("kvstore/redis: ping: %w", err)
	}

	return &redisStore{rdb: rdb, ctx: ctx}, nil
}

func redisKey(key string) string { return "shopfront:" + key }

func (s *redisStore) Get(key string, dest interface{}) bool {
	val, err := s.rdb.Get(s.ctx, redisKey(key)).Result()
	if err != nil {
		metrics.KVMisses.WithLabelValues("redis").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		metrics.KVMisses.WithLabelValues("redis").Inc()
		return false
	}

	metrics.KVHits.WithLabelValues("redis").Inc()
	return true
}

func (s *redisStore) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore/redis: marshal %s: %w", key, err)
	}

	return s.rdb.Set(s.ctx, redisKey(key), data, ttl).Err()
}

func (s *redisStore) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = redisKey(k)
	}
	return s.rdb.Del(s.ctx, full...).Err()
}

func (s *redisStore) Has(key string) bool {
	n, err := s.rdb.Exists(s.ctx, redisKey(key)).Result()
	return err == nil && n > 0
}

package data

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"SnakeKeeper/internal/model"

	"github.com/redis/go-redis/v9"
)

const redisMarkPrefix = "auth_failed_mark:"

// RedisMarkerStore keeps marks as auth_failed_mark:<key> → RFC3339 time, without TTL.
type RedisMarkerStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisMarkerStore creates a redis-backed store.
func NewRedisMarkerStore(rdb *redis.Client) *RedisMarkerStore {
	return &RedisMarkerStore{rdb: rdb, now: time.Now}
}

// Exists reports whether the mark key exists.
func (s *RedisMarkerStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, redisMarkPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Create uses SETNX so the first timestamp wins.
func (s *RedisMarkerStore) Create(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, redisMarkPrefix+key, s.now().Format(time.RFC3339), 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Delete removes the mark key.
func (s *RedisMarkerStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, redisMarkPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// List scans all mark keys, oldest first.
func (s *RedisMarkerStore) List(ctx context.Context) ([]*model.Mark, error) {
	marks := make([]*model.Mark, 0)
	iter := s.rdb.Scan(ctx, 0, redisMarkPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		value, err := s.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			continue // 扫描期间被删除
		}
		if err != nil {
			return nil, fmt.Errorf("redis get %s: %w", key, err)
		}
		createdAt, _ := time.Parse(time.RFC3339, value)
		marks = append(marks, &model.Mark{
			RoleID:    strings.TrimPrefix(key, redisMarkPrefix),
			CreatedAt: createdAt,
			Backend:   MarkerDriverRedis,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].CreatedAt.Before(marks[j].CreatedAt) })
	return marks, nil
}

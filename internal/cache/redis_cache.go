package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"smsdispatch/internal/model"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type outcomeValue struct {
	Status model.Status `json:"status"`
	At     time.Time    `json:"at"`
}

func (c *RedisCache) StoreOutcome(ctx context.Context, taskID uuid.UUID, status model.Status, at time.Time) error {
	key := fmt.Sprintf("task:%s", taskID)
	val := outcomeValue{
		Status: status,
		At:     at.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

var _ ReceiptCache = (*RedisCache)(nil)

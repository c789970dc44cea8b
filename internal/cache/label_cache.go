package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const labelKeyPrefix = "boxlabel"

type labelStore interface {
	Get(ctx context.Context, ownerID, boxID string) (string, bool, error)
	Set(ctx context.Context, ownerID, boxID, name string) error
	List(ctx context.Context, ownerID string) (map[string]string, error)
}

// LabelCache puts Redis in front of a label store. Reads fill the cache,
// writes go to the store and drop the cached entry. Redis failures are
// logged and the store answers instead.
//
// Key format: "boxlabel:{ownerID}:{boxID}"
type LabelCache struct {
	client *RedisClient
	store  labelStore
	ttl    time.Duration
	logger *slog.Logger
}

func NewLabelCache(client *RedisClient, store labelStore, ttl time.Duration, logger *slog.Logger) *LabelCache {
	return &LabelCache{client: client, store: store, ttl: ttl, logger: logger}
}

func (c *LabelCache) Get(ctx context.Context, ownerID, boxID string) (string, bool, error) {
	key := c.key(ownerID, boxID)

	name, err := c.client.Client().Get(ctx, key).Result()
	if err == nil {
		return name, true, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("label cache read failed", "key", key, "error", err)
	}

	name, ok, err := c.store.Get(ctx, ownerID, boxID)
	if err != nil || !ok {
		return name, ok, err
	}

	if err := c.client.Client().Set(ctx, key, name, c.ttl).Err(); err != nil {
		c.logger.Warn("label cache fill failed", "key", key, "error", err)
	}
	return name, true, nil
}

func (c *LabelCache) Set(ctx context.Context, ownerID, boxID, name string) error {
	if err := c.store.Set(ctx, ownerID, boxID, name); err != nil {
		return err
	}
	if err := c.Invalidate(ctx, ownerID, boxID); err != nil {
		c.logger.Warn("label cache invalidate failed", "box_id", boxID, "error", err)
	}
	return nil
}

// List always reads the store and refreshes the cached entries it returns.
func (c *LabelCache) List(ctx context.Context, ownerID string) (map[string]string, error) {
	labels, err := c.store.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return labels, nil
	}

	pipe := c.client.Client().Pipeline()
	for boxID, name := range labels {
		pipe.Set(ctx, c.key(ownerID, boxID), name, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("label cache refresh failed", "owner_id", ownerID, "error", err)
	}
	return labels, nil
}

func (c *LabelCache) Invalidate(ctx context.Context, ownerID, boxID string) error {
	if err := c.client.Client().Del(ctx, c.key(ownerID, boxID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (c *LabelCache) key(ownerID, boxID string) string {
	return fmt.Sprintf("%s:%s:%s", labelKeyPrefix, ownerID, boxID)
}

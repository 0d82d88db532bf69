package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lysyi3m/news-comb/app/database"
)

const keyPrefix = "news-comb:"

// Cache keeps recent-articles query results in Redis
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &Cache{
		client: client,
		ttl:    ttl,
	}, nil
}

// GenerateRecentKey builds the key for a topic's recent articles
func GenerateRecentKey(topic string, limit int) string {
	hash := sha256.Sum256([]byte(topic))
	return fmt.Sprintf("%srecent:%x:%d", keyPrefix, hash[:8], limit)
}

// GetRecent returns cached articles and whether the key was present
func (c *Cache) GetRecent(ctx context.Context, topic string, limit int) ([]database.Article, bool, error) {
	key := GenerateRecentKey(topic, limit)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var articles []database.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		c.client.Del(ctx, key)
		return nil, false, nil
	}

	return articles, true, nil
}

func (c *Cache) SetRecent(ctx context.Context, topic string, limit int, articles []database.Article) error {
	key := GenerateRecentKey(topic, limit)

	data, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Flush deletes every key written by this service
func (c *Cache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}

	slog.Debug("Cache flushed", "keys", len(keys))
	return nil
}

func (c *Cache) Health(ctx context.Context) map[string]any {
	health := map[string]any{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if dbSize, err := c.client.DBSize(ctx).Result(); err == nil {
		health["key_count"] = dbSize
	}

	return health
}

func (c *Cache) Close() error {
	return c.client.Close()
}

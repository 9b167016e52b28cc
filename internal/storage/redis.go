package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"prompt-forge/server/internal/config"
)

// RedisCounter keeps the failure count under a single Redis key so that
// several server processes on one host agree on it.
type RedisCounter struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

func NewRedisCounter(cfg config.RedisConfig, logger *slog.Logger) (*RedisCounter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return newRedisCounter(client, cfg.Key, logger), nil
}

func newRedisCounter(client *redis.Client, key string, logger *slog.Logger) *RedisCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCounter{
		client: client,
		key:    key,
		logger: logger.With("component", "failure_counter", "backend", "redis"),
	}
}

func (c *RedisCounter) Close() error {
	return c.client.Close()
}

func (c *RedisCounter) Increment(ctx context.Context) (int, error) {
	n, err := c.client.Incr(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment failure count: %w", err)
	}
	return int(n), nil
}

func (c *RedisCounter) Reset(ctx context.Context) {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.logger.Error("failed to clear failure count", "key", c.key, "error", err)
	}
}

// Current returns the stored count, zero when the key is absent
func (c *RedisCounter) Current(ctx context.Context) (int, error) {
	n, err := c.client.Get(ctx, c.key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

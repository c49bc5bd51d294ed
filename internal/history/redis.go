package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig configures a RedisList.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// RedisList is a ListStore backed by Redis lists. ListStore maps one-to-one
// onto the Redis list commands, so every method is a single round trip.
type RedisList struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedis creates a Redis-backed list store. Call Ping to verify the
// connection before use.
func NewRedis(cfg RedisConfig, log *zap.Logger) *RedisList {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.Timeout > 0 {
		opts.DialTimeout = cfg.Timeout
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}
	return &RedisList{client: redis.NewClient(opts), log: log}
}

// Ping verifies the server is reachable.
func (r *RedisList) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisList) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %q: %w", key, err)
	}
	return n > 0, nil
}

func (r *RedisList) PushHead(ctx context.Context, key, value string) error {
	if err := r.client.LPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("redis lpush %q: %w", key, err)
	}
	return nil
}

func (r *RedisList) PopTail(ctx context.Context, key string) (string, error) {
	val, err := r.client.RPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis rpop %q: %w", key, err)
	}
	return val, nil
}

func (r *RedisList) RemoveValue(ctx context.Context, key, value string, count int64) (int64, error) {
	removed, err := r.client.LRem(ctx, key, count, value).Result()
	if err != nil {
		return 0, fmt.Errorf("redis lrem %q: %w", key, err)
	}
	return removed, nil
}

func (r *RedisList) Length(ctx context.Context, key string) (int64, error) {
	n, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis llen %q: %w", key, err)
	}
	return n, nil
}

func (r *RedisList) RangeAll(ctx context.Context, key string) ([]string, error) {
	values, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %q: %w", key, err)
	}
	return values, nil
}

func (r *RedisList) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	r.log.Debug("dropped history list", zap.String("key", key))
	return nil
}

func (r *RedisList) Close() error {
	return r.client.Close()
}

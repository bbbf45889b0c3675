package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ghuser/itemregistry/pkg/config"
)

const pingTimeout = 2 * time.Second

// RedisClient owns the connection pool behind the item read model.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to REDIS_URL and pings it. It returns (nil, nil)
// when CACHE_ENABLED=false; callers treat a nil client as "no cache".
func NewRedisClient(ctx context.Context, cfg *config.Config) (*RedisClient, error) {
	if !cfg.CacheEnabled {
		return nil, nil //nolint:nilnil // disabled is not an error
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}

	return &RedisClient{client: rdb}, nil
}

// redisOptions parses the URL and applies pool settings. Cache reads sit on
// the GET path, so timeouts are short and a slow Redis degrades to the store.
func redisOptions(cfg *config.Config) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	opts.ClientName = cfg.ServiceName
	opts.PoolSize = cfg.RedisPoolSize
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	opts.MinIdleConns = 2
	opts.MaxRetries = 2
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond
	opts.PoolTimeout = time.Second
	return opts, nil
}

// Ping is used by the /health check.
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close is safe on a nil client.
func (r *RedisClient) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

func (r *RedisClient) Client() *redis.Client {
	return r.client
}

package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/stox/backend/pkg/config"
)

// Client wraps the Redis client used by the series cache
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb redis.Cmdable
	raw *redis.Client
}

// Connection timeouts. A slow cache must not stall a dataset build.
const (
	dialTimeout = 2 * time.Second
	ioTimeout   = 1 * time.Second
)

// New creates a new Redis client. A disabled config yields a no-op client.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{rdb: rdb, raw: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// cmd returns the command interface for cache operations
func (c *Client) cmd() redis.Cmdable {
	return c.rdb
}

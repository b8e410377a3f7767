package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rembayung/waitroom/config"
)

// Nil is returned by Get when the key does not exist.
const Nil = redis.Nil

type Client struct {
	cli redis.UniversalClient
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		cli: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			MaxRetries:   cfg.MaxRetries,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
		}),
	}
}

// Wrap adapts an existing go-redis client, e.g. a redismock client in tests.
func Wrap(cli redis.UniversalClient) *Client {
	return &Client{cli: cli}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.cli.Ping(ctx).Err()
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.cli.Get(ctx, key).Bytes()
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.cli.Set(ctx, key, value, ttl).Err()
}

// SetNX writes value only if key is absent and reports whether it did.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return c.cli.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return c.cli.Del(ctx, keys...).Result()
}

func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	return c.cli.Exists(ctx, keys...).Result()
}

func (c *Client) Close() error {
	return c.cli.Close()
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rembayung/waitroom/pkg/redis"
)

var ErrCorruptValue = errors.New("stored value is not valid JSON for its type")

// Store is the key-value persistence capability: JSON values under string
// keys, with a TTL. A missing key surfaces as redis.Nil.
type Store interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	// SetJSONIfAbsent reports false, without writing, when key already exists.
	SetJSONIfAbsent(ctx context.Context, key string, v any, ttl time.Duration) (bool, error)
	Remove(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type redisStore struct {
	cli *redis.Client
}

func NewRedisStore(cli *redis.Client) Store {
	return &redisStore{cli: cli}
}

func (s *redisStore) GetJSON(ctx context.Context, key string, dst any) error {
	data, err := s.cli.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptValue, key, err)
	}

	return nil
}

func (s *redisStore) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	return s.cli.Set(ctx, key, string(data), ttl)
}

func (s *redisStore) SetJSONIfAbsent(ctx context.Context, key string, v any, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	return s.cli.SetNX(ctx, key, string(data), ttl)
}

func (s *redisStore) Remove(ctx context.Context, keys ...string) error {
	_, err := s.cli.Del(ctx, keys...)
	return err
}

func (s *redisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.cli.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

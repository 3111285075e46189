package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisOption func(*Redis)

// WithTTL expires a slot that has not been written for ttl.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// Redis keeps the slot as a plain string value.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, key string, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		key:    redisKey(key),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Load(ctx context.Context) (string, error) {
	data, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "redis get failed")
	}
	return data, nil
}

func (r *Redis) Save(ctx context.Context, value string) error {
	if err := r.client.Set(ctx, r.key, value, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set failed")
	}
	return nil
}

func RedisFactory(client *redis.Client, opts ...RedisOption) Factory {
	return func(key string) Storage {
		return NewRedis(client, key, opts...)
	}
}

func redisKey(key string) string {
	return fmt.Sprintf("cart:%s", key)
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys in a shared Redis.
const DefaultRedisPrefix = "biblioteca:session:"

// RedisClient is the subset of *redis.Client used by the Redis backend.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a Backend stored in Redis, for a session shared by several
// processes of the same user.
type Redis struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

var _ Backend = (*Redis)(nil)

// RedisOption configures the Redis backend.
type RedisOption func(*Redis)

// WithKeyPrefix sets the prefix prepended to every key.
//
// Default: DefaultRedisPrefix
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithTTL expires stored items after ttl. Zero keeps them until removed.
//
// Default: 0
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// NewRedis creates a Redis backend over client.
func NewRedis(client RedisClient, opts ...RedisOption) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	r := &Redis{
		client: client,
		prefix: DefaultRedisPrefix,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// DialRedis connects to Redis and checks the connection.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// GetItem implements Backend.
func (r *Redis) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}

	return value, true, nil
}

// SetItem implements Backend.
func (r *Redis) SetItem(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// RemoveItem implements Backend.
func (r *Redis) RemoveItem(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

package solidcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces solid-tile keys in a shared Redis.
const DefaultRedisPrefix = "metatiler:solid:"

// RedisOptions configures a Redis-backed cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL is the expiry of stored entries; 0 means no expiry.
	TTL time.Duration
}

// Redis shares solid tiles between processes rendering the same style.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis connects to opts.Addr. The connection is established lazily.
func NewRedis(opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis solid cache: empty address")
	}
	client := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	return NewRedisClient(client, opts.Prefix, opts.TTL), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.client.Close() }

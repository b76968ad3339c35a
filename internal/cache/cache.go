package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Store caches serialized values with a TTL
type Store interface {
	// GetOrLoad returns the cached bytes for key or calls load and caches its result
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error)
	// Delete drops the given keys
	Delete(ctx context.Context, keys ...string) error
	// Generation returns the current version of a key space
	Generation(ctx context.Context, name string) (int64, error)
	// Bump moves a key space to a new version so entries built before it are never read again
	Bump(ctx context.Context, name string) error
}

// generationPrefix namespaces the counters behind Generation and Bump
const generationPrefix = "gen:"

// RedisStore is a Store backed by Redis. Concurrent misses on the same key are
// collapsed into a single load.
type RedisStore struct {
	RDB *redis.Client
	sf  singleflight.Group
}

// NewRedis creates a Redis backed store
func NewRedis(addr, pass string, db int) *RedisStore {
	return &RedisStore{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

// Ping checks the Redis connection
func (c *RedisStore) Ping(ctx context.Context) error {
	return c.RDB.Ping(ctx).Err()
}

// Close closes the underlying client
func (c *RedisStore) Close() error {
	return c.RDB.Close()
}

func (c *RedisStore) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	b, err := c.RDB.Get(ctx, key).Bytes()
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Redis being down must not take the storefront with it
		log.WithError(err).WithField("key", key).Warn("Cache read failed, loading from source")
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if e := c.RDB.Set(ctx, key, b, ttl).Err(); e != nil {
			log.WithError(e).WithField("key", key).Warn("Cache write failed")
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.RDB.Del(ctx, keys...).Err()
}

func (c *RedisStore) Generation(ctx context.Context, name string) (int64, error) {
	n, err := c.RDB.Get(ctx, generationPrefix+name).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *RedisStore) Bump(ctx context.Context, name string) error {
	return c.RDB.Incr(ctx, generationPrefix+name).Err()
}

// Noop is a Store that never caches
type Noop struct{}

func (Noop) GetOrLoad(ctx context.Context, _ string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	return load(ctx)
}

func (Noop) Delete(context.Context, ...string) error { return nil }

func (Noop) Generation(context.Context, string) (int64, error) { return 0, nil }

func (Noop) Bump(context.Context, string) error { return nil }

// Package cache keeps the serialized results of recent searches, so a
// repeated query within the TTL is served without hitting the airline.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
	"github.com/flightplan-tool/flightplan-sub000/internal/usecase"
)

// KeyPrefix namespaces every cache key.
const KeyPrefix = "flightplan:"

// Cache is a usecase.ResultsCache that can be closed.
type Cache interface {
	usecase.ResultsCache
	Close() error
}

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = (*NoOpCache)(nil)
)

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	// URL is a redis:// or rediss:// connection string
	URL string
	TTL time.Duration
}

// RedisCache stores results in redis with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache connects to redis and checks the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig, log *logger.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisCacheWithClient(client, cfg.TTL, log), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

// Get returns the cached results of query. Any redis failure is a miss.
func (c *RedisCache) Get(ctx context.Context, query *domain.Query) ([]byte, bool) {
	data, err := c.client.Get(ctx, Key(query)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("query", query.String()).Msg("cache lookup failed")
		}
		return nil, false
	}
	return data, true
}

// Set stores data for the TTL.
func (c *RedisCache) Set(ctx context.Context, query *domain.Query, data []byte) error {
	return c.client.Set(ctx, Key(query), data, c.ttl).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoOpCache never hits.
type NoOpCache struct{}

// NewNoOpCache creates a cache that stores nothing.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(context.Context, *domain.Query) ([]byte, bool) { return nil, false }

func (c *NoOpCache) Set(context.Context, *domain.Query, []byte) error { return nil }

func (c *NoOpCache) Close() error { return nil }

// Key derives the cache key of query from its search fields. Asset paths
// do not take part.
func Key(query *domain.Query) string {
	p := query.Params()
	keyData := struct {
		Engine     string
		Partners   bool
		Cabin      string
		Quantity   int
		FromCity   string
		ToCity     string
		DepartDate string
		ReturnDate string
	}{
		Engine:     p.Engine,
		Partners:   p.Partners,
		Cabin:      p.Cabin,
		Quantity:   p.Quantity,
		FromCity:   p.FromCity,
		ToCity:     p.ToCity,
		DepartDate: p.DepartDate,
		ReturnDate: p.ReturnDate,
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return KeyPrefix + p.Engine + ":" + hex.EncodeToString(hash[:])
}

package dailycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis client.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// EntryTTL bounds how long abandoned day entries linger. The cache
	// never relies on it for freshness (the key carries the day); it only
	// keeps the keyspace from growing without bound.
	EntryTTL time.Duration
}

// RedisCache is a cache implementation backed by Redis, for deployments
// where multiple instances should share one day's content.
type RedisCache[V any] struct {
	redisClient *redis.Client
	logger      zerolog.Logger
	ttl         time.Duration
}

// NewRedisCache creates and connects a new RedisCache. It pings the Redis
// server to ensure connectivity before returning.
func NewRedisCache[V any](ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisCache[V], error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.EntryTTL
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisCache[V]{
		redisClient: rdb,
		logger:      logger.With().Str("component", "RedisCache").Logger(),
		ttl:         ttl,
	}, nil
}

// FetchFromCache retrieves and decodes the entry for key. A redis.Nil reply
// is a normal miss; an undecodable entry is also treated as a miss so the
// content gets recomputed rather than served broken.
func (c *RedisCache[V]) FetchFromCache(ctx context.Context, key Key) (V, error) {
	var zero V
	cachedData, err := c.redisClient.Get(ctx, string(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrMiss
		}
		c.logger.Error().Err(err).Str("key", string(key)).Msg("Unexpected Redis error during fetch.")
		return zero, fmt.Errorf("redis get for %s: %w", key, err)
	}

	var value V
	if err := json.Unmarshal([]byte(cachedData), &value); err != nil {
		c.logger.Warn().Err(err).Str("key", string(key)).Msg("Failed to unmarshal cached data, treating as miss.")
		return zero, ErrMiss
	}

	c.logger.Debug().Str("key", string(key)).Msg("Redis cache hit.")
	return value, nil
}

// WriteToCache encodes and stores the entry with the configured TTL.
func (c *RedisCache[V]) WriteToCache(ctx context.Context, key Key, value V) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal data for caching: %w", err)
	}

	if err := c.redisClient.Set(ctx, string(key), jsonData, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	c.logger.Debug().Str("key", string(key)).Msg("Successfully stored data in Redis cache.")
	return nil
}

// Close closes the Redis client connection.
func (c *RedisCache[V]) Close() error {
	if c.redisClient != nil {
		c.logger.Info().Msg("Closing Redis client connection...")
		return c.redisClient.Close()
	}
	return nil
}

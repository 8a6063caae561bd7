package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis with a server-side TTL. Backend errors
// are logged and absorbed: a failing Get is a miss, a failing Put is a
// skipped store.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to the Redis at url and verifies it with a ping.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache.get_failed", "error", err)
		return nil, false
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		// a value we cannot read is a miss, not a failure
		c.logger.Warn("cache.decode_failed", "error", err)
		return nil, false
	}
	return entry, true
}

func (c *RedisCache) Put(ctx context.Context, key string, entry *Entry) {
	raw, err := encodeEntry(entry)
	if err != nil {
		c.logger.Warn("cache.encode_failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache.put_failed", "error", err)
	}
}

// Close releases the client connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func encodeEntry(entry *Entry) ([]byte, error) {
	return json.Marshal(entry)
}

func decodeEntry(raw []byte) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"TruthPost/internal/domain"
	"TruthPost/internal/ports"
)

const keyPrefix = "truthpost:text:"

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisTextCache stores text results keyed by a digest of the analyzed text.
type RedisTextCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ ports.TextResultCache = (*RedisTextCache)(nil)

// NewRedisTextCache builds the cache; ttl <= 0 keeps entries until evicted.
func NewRedisTextCache(client redis.Cmdable, ttl time.Duration) *RedisTextCache {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisTextCache{client: client, ttl: ttl}
}

// Get returns the cached result for text, if any.
func (c *RedisTextCache) Get(ctx context.Context, text string) (domain.AnalysisResult, bool, error) {
	raw, err := c.client.Get(ctx, Key(text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AnalysisResult{}, false, nil
	}
	if err != nil {
		return domain.AnalysisResult{}, false, fmt.Errorf("redis get: %w", err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.AnalysisResult{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return result, true, nil
}

// Put stores result for text.
func (c *RedisTextCache) Put(ctx context.Context, text string, result domain.AnalysisResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, Key(text), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Key derives the cache key of a text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

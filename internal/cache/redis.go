package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/circleup/backend/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SuggestionTTL is how long a cached suggestion response stays fresh.
// Kept short: the scorer is cheap enough to recompute and callers expect
// follow changes to show up quickly.
const SuggestionTTL = 30 * time.Second

// RedisClient wraps the redis.Client with centralized connection pooling.
// All methods are nil-safe so deployments without Redis skip caching.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates and initializes a Redis client with connection pooling
func NewRedisClient(host string, port string, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err)
		return nil, err
	}

	rc := &RedisClient{client: client}

	logger.Log.Info("✅ Redis client connected successfully",
		zap.String("address", addr),
	)

	return rc, nil
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// suggestionKey builds the cache key for one user's suggestion response
func suggestionKey(userID string, limit int) string {
	return fmt.Sprintf("suggestions:%s:%d", userID, limit)
}

// GetSuggestions returns a cached suggestion response body, or "" on miss
func (rc *RedisClient) GetSuggestions(ctx context.Context, userID string, limit int) string {
	if rc == nil || rc.client == nil {
		return ""
	}
	val, err := rc.client.Get(ctx, suggestionKey(userID, limit)).Result()
	if err != nil {
		return ""
	}
	return val
}

// SetSuggestions caches a suggestion response body for SuggestionTTL
func (rc *RedisClient) SetSuggestions(ctx context.Context, userID string, limit int, body string) {
	if rc == nil || rc.client == nil {
		return
	}
	if err := rc.client.Set(ctx, suggestionKey(userID, limit), body, SuggestionTTL).Err(); err != nil {
		logger.WarnWithFields("Failed to cache suggestions", err)
	}
}

// InvalidateSuggestions drops every cached suggestion response for a user,
// called when their follow set changes
func (rc *RedisClient) InvalidateSuggestions(ctx context.Context, userID string) {
	rc.deleteByPattern(ctx, fmt.Sprintf("suggestions:%s:*", userID))
}

// InvalidateAllSuggestions drops every cached suggestion response for every
// user. Used when a change feeds other users' rankings, like a verification
// grant, where the stale entries cannot be keyed to one requester.
func (rc *RedisClient) InvalidateAllSuggestions(ctx context.Context) {
	rc.deleteByPattern(ctx, "suggestions:*")
}

func (rc *RedisClient) deleteByPattern(ctx context.Context, pattern string) {
	if rc == nil || rc.client == nil {
		return
	}
	iter := rc.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := rc.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.WarnWithFields("Failed to invalidate suggestion cache", err)
		}
	}
	if err := iter.Err(); err != nil {
		logger.WarnWithFields("Suggestion cache scan failed", err)
	}
}

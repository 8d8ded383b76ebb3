package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/reschedule-api/pkg/config"
)

const (
	recommendationPrefix = "recommendations:"
	pingTimeout          = 5 * time.Second
)

// Options maps the Redis settings onto client options. Timeouts stay short
// because a slow cache only costs a miss.
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

// Connect dials Redis when the recommendation cache is enabled. A nil client
// with a nil error means caching is switched off.
func Connect(ctx context.Context, enabled bool, cfg config.RedisConfig) (*redis.Client, error) {
	if !enabled {
		return nil, nil
	}
	opts := Options(cfg)
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RecommendationKey is the cache key holding the recommendation list for a
// change request. The API and the CLI must agree on it.
func RecommendationKey(changeRequestID string) string {
	return recommendationPrefix + changeRequestID
}

// ChangeRequestFromKey reverses RecommendationKey.
func ChangeRequestFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, recommendationPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(key, recommendationPrefix)
	return id, id != ""
}

// Package ratelimit limits how often a user may hit the LLM-backed endpoints.
package ratelimit

import (
	"context"
	"ptcoach/pt-server/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
)

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// NewRedisClient returns nil when no address is configured. A failed ping is
// logged but not fatal.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Address == "" {
		log.Warnln("redis address not set, rate limiting disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}
	return rdb
}

// NewLimiter returns nil for a nil client.
func NewLimiter(rdb *redis.Client) RequestRateLimiter {
	if rdb == nil {
		return nil
	}
	return redis_rate.NewLimiter(rdb)
}

// UserKey scopes a limit to one user and one route group.
func UserKey(scope, userID string) string {
	return "rate:" + scope + ":" + userID
}

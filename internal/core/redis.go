// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/tourguide/internal/config"
)

const (
	redisPingTimeout = 5 * time.Second
	redisKeyRoot     = "tourguide"
)

// RedisKey namespaces a key under the application root so the cache can
// be shared with other services.
func RedisKey(parts ...string) string {
	return redisKeyRoot + ":" + strings.Join(parts, ":")
}

// Redis holds the client used for the token blacklist, external login
// state and rate limiting.
type Redis struct {
	Client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute
	opts.ClientName = redisKeyRoot

	r := &Redis{Client: redis.NewClient(opts)}

	if err := connectWithRetry(ctx, "redis", r.Ping); err != nil {
		_ = r.Client.Close() //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return r, nil
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

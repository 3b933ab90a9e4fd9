// Package ratelimit provides a fixed window rate limiter backed by a shared
// counter, typically Redis.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shorturl-app/shorturl/pkg/middleware"
	"github.com/shorturl-app/shorturl/pkg/render"
	"github.com/shorturl-app/shorturl/pkg/response"
)

const keyPrefix = "ratelimit:"

// Counter tracks request counts per key within a window.
type Counter interface {
	// Incr increments the counter for key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets the time to live for key. It is called once per window,
	// right after the first increment.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisCounter implements Counter on a Redis client.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

func (c *RedisCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

// New returns a middleware allowing at most limit requests per client IP in
// each window. When the counter is unreachable requests are allowed.
func New(counter Counter, logger *slog.Logger, limit int, window time.Duration) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := keyPrefix + clientIP(r)

			count, err := counter.Incr(ctx, key)
			if err != nil {
				logger.Warn("rate limit check failed", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				if err := counter.Expire(ctx, key, window); err != nil {
					logger.Warn("failed to set rate limit window", slog.Any("error", err))
				}
			}

			if count > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				render.JSON(w, http.StatusTooManyRequests, response.RateLimitedResponse)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the remote address without the port. The router's RealIP
// middleware runs first, so for proxied requests this is the originating
// client.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}

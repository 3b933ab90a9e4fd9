// Package cache provides a read-through cache for resolved URL records,
// layering an in-process store over an optional shared Redis. A cache
// failure is never fatal: every error degrades to a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/shorturl-app/shorturl/internal/metrics"
	"github.com/shorturl-app/shorturl/internal/models"
)

const keyPrefix = "url:"

const (
	layerMemory = "memory"
	layerRedis  = "redis"

	resultHit  = "hit"
	resultMiss = "miss"
)

// cachedURL is the Redis representation of a URL record.
type cachedURL struct {
	ID              int64      `json:"id"`
	ShortCode       string     `json:"short_code"`
	OriginalURL     string     `json:"original_url"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	OwnerID         int64      `json:"owner_id"`
	CategoryID      *int64     `json:"category_id"`
	Active          bool       `json:"active"`
	ShowOnFrontpage bool       `json:"show_on_frontpage"`
	ClickCount      int64      `json:"click_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

func toCachedURL(url models.URL) cachedURL {
	return cachedURL{
		ID:              url.ID,
		ShortCode:       url.ShortCode,
		OriginalURL:     url.OriginalURL,
		Title:           url.Title,
		Description:     url.Description,
		OwnerID:         url.OwnerID,
		CategoryID:      url.CategoryID,
		Active:          url.Active,
		ShowOnFrontpage: url.ShowOnFrontpage,
		ClickCount:      url.ClickCount,
		CreatedAt:       url.CreatedAt,
		UpdatedAt:       url.UpdatedAt,
		ExpiresAt:       url.ExpiresAt,
	}
}

func (c cachedURL) toURL() models.URL {
	return models.URL{
		ID:              c.ID,
		ShortCode:       c.ShortCode,
		OriginalURL:     c.OriginalURL,
		Title:           c.Title,
		Description:     c.Description,
		OwnerID:         c.OwnerID,
		CategoryID:      c.CategoryID,
		Active:          c.Active,
		ShowOnFrontpage: c.ShowOnFrontpage,
		ClickCount:      c.ClickCount,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		ExpiresAt:       c.ExpiresAt,
	}
}

// URLCache caches URL records for the redirect path. The memory layer is
// checked first; on a miss the Redis layer is consulted and a hit is copied
// back into memory. Redis may be nil, leaving only the memory layer.
type URLCache struct {
	memory   *gocache.Cache
	redis    *redis.Client
	logger   *slog.Logger
	redisTTL time.Duration
}

// NewURLCache builds a cache with the given per-layer TTLs. redisClient may
// be nil to run without the shared layer.
func NewURLCache(redisClient *redis.Client, logger *slog.Logger, memoryTTL, redisTTL time.Duration) *URLCache {
	return &URLCache{
		memory:   gocache.New(memoryTTL, 2*memoryTTL),
		redis:    redisClient,
		logger:   logger,
		redisTTL: redisTTL,
	}
}

func key(shortCode string) string {
	return keyPrefix + shortCode
}

// Get returns the cached record for shortCode, reporting whether one was
// found in either layer.
func (c *URLCache) Get(ctx context.Context, shortCode string) (*models.URL, bool) {
	if v, ok := c.memory.Get(key(shortCode)); ok {
		if url, ok := v.(models.URL); ok {
			metrics.CacheRequests.WithLabelValues(layerMemory, resultHit).Inc()
			return &url, true
		}
	}
	metrics.CacheRequests.WithLabelValues(layerMemory, resultMiss).Inc()

	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, key(shortCode)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed", slog.Any("error", err))
		}
		metrics.CacheRequests.WithLabelValues(layerRedis, resultMiss).Inc()
		return nil, false
	}

	var rec cachedURL
	if err := json.Unmarshal(data, &rec); err != nil {
		c.logger.Warn("dropping malformed cache entry", slog.String("short_code", shortCode), slog.Any("error", err))
		metrics.CacheRequests.WithLabelValues(layerRedis, resultMiss).Inc()
		return nil, false
	}

	metrics.CacheRequests.WithLabelValues(layerRedis, resultHit).Inc()

	url := rec.toURL()
	c.memory.Set(key(shortCode), url, gocache.DefaultExpiration)

	return &url, true
}

// Set stores a record in both layers.
func (c *URLCache) Set(ctx context.Context, url models.URL) {
	c.memory.Set(key(url.ShortCode), url, gocache.DefaultExpiration)

	if c.redis == nil {
		return
	}

	data, err := json.Marshal(toCachedURL(url))
	if err != nil {
		c.logger.Warn("failed to marshal cache entry", slog.String("short_code", url.ShortCode), slog.Any("error", err))
		return
	}

	if err := c.redis.Set(ctx, key(url.ShortCode), data, c.redisTTL).Err(); err != nil {
		c.logger.Warn("redis set failed", slog.Any("error", err))
	}
}

// Invalidate removes a record from both layers. Mutating operations call
// this so stale records never outlive their TTL after an update.
func (c *URLCache) Invalidate(ctx context.Context, shortCode string) {
	c.memory.Delete(key(shortCode))

	if c.redis == nil {
		return
	}

	if err := c.redis.Del(ctx, key(shortCode)).Err(); err != nil {
		c.logger.Warn("redis delete failed", slog.Any("error", err))
	}
}

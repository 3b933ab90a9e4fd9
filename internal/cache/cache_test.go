package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shorturl-app/shorturl/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testURL(shortCode string) models.URL {
	now := time.Now()

	return models.URL{
		ID:          1,
		ShortCode:   shortCode,
		OriginalURL: "https://example.com",
		OwnerID:     1,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestURLCache_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	c := NewURLCache(nil, testLogger(), time.Minute, time.Minute)

	t.Run("miss on unknown code", func(t *testing.T) {
		url, ok := c.Get(ctx, "abc123")

		assert.False(t, ok)
		assert.Nil(t, url)
	})

	t.Run("hit after set", func(t *testing.T) {
		c.Set(ctx, testURL("abc123"))

		url, ok := c.Get(ctx, "abc123")

		require.True(t, ok)
		assert.Equal(t, "abc123", url.ShortCode)
		assert.Equal(t, "https://example.com", url.OriginalURL)
	})

	t.Run("miss after invalidate", func(t *testing.T) {
		c.Set(ctx, testURL("def456"))
		c.Invalidate(ctx, "def456")

		_, ok := c.Get(ctx, "def456")

		assert.False(t, ok)
	})
}

func TestURLCache_RedisUnavailable(t *testing.T) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		ReadTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	c := NewURLCache(client, testLogger(), time.Minute, time.Minute)

	t.Run("memory layer still serves", func(t *testing.T) {
		c.Set(ctx, testURL("abc123"))

		url, ok := c.Get(ctx, "abc123")

		require.True(t, ok)
		assert.Equal(t, "abc123", url.ShortCode)
	})

	t.Run("redis error degrades to miss", func(t *testing.T) {
		c.Set(ctx, testURL("def456"))
		c.Invalidate(ctx, "def456")

		_, ok := c.Get(ctx, "def456")

		assert.False(t, ok)
	})
}

func TestCachedURLRoundTrip(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)
	categoryID := int64(7)

	url := testURL("abc123")
	url.CategoryID = &categoryID
	url.ExpiresAt = &expiresAt
	url.ClickCount = 42

	assert.Equal(t, url, toCachedURL(url).toURL())
}

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	c := loadConfig()
	assert.Equal(t, "3001", c.Port)
	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, []string{"http://localhost:3000"}, c.AllowedOrigins)
	assert.Equal(t, time.Minute, c.RateLimitWindow)
	assert.Equal(t, 5, c.BulkRateLimitMax)
	assert.Equal(t, time.Hour, c.BulkRateLimitWindow)
	assert.Equal(t, 50, c.BulkMaxVideos)
	assert.Equal(t, 3, c.BulkConcurrentRequests)
	assert.Equal(t, time.Second, c.BulkDelayBetweenBatches)
	assert.Equal(t, []string{"en"}, c.YouTubeLangs)
	assert.Empty(t, c.MCPPort)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "30000")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "7")
	t.Setenv("BULK_MAX_VIDEOS", "10")
	t.Setenv("BULK_CONCURRENT_REQUESTS", "4")
	t.Setenv("BULK_DELAY_BETWEEN_BATCHES", "250")
	t.Setenv("YOUTUBE_LANGS", "es,en")

	c := loadConfig()
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, 30*time.Second, c.RateLimitWindow)
	assert.Equal(t, 7, c.RateLimitMax)
	assert.Equal(t, 10, c.BulkMaxVideos)
	assert.Equal(t, 4, c.BulkConcurrentRequests)
	assert.Equal(t, 250*time.Millisecond, c.BulkDelayBetweenBatches)
	assert.Equal(t, []string{"es", "en"}, c.YouTubeLangs)
}

func TestTrimAll(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, trimAll([]string{" a ", "", "b"}))
	assert.Empty(t, trimAll(nil))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]string{"t": "<a> & b"}))
	assert.Contains(t, buf.String(), "<a> & b")
}

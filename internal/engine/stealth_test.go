package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcceptLanguage(t *testing.T) {
	assert.Equal(t, "en-US,en;q=0.9", AcceptLanguage(nil))
	assert.Equal(t, "es", AcceptLanguage([]string{"es"}))
	assert.Equal(t, "es,en;q=0.9,pt;q=0.8", AcceptLanguage([]string{"es", "en", "pt"}))
}

func TestWatchPageHeaders(t *testing.T) {
	h := WatchPageHeaders([]string{"de", "en"})
	assert.Equal(t, "de,en;q=0.9", h["Accept-Language"])

	// each call gets its own map
	h["X-Test"] = "1"
	assert.NotContains(t, WatchPageHeaders(nil), "X-Test")
}

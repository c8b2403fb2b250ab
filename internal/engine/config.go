package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	Port        string
	Environment string
	Version     string

	AllowedOrigins []string // "*" allows any origin

	RateLimitWindow     time.Duration
	RateLimitMax        int
	BulkRateLimitWindow time.Duration
	BulkRateLimitMax    int

	BulkMaxVideos           int
	BulkConcurrentRequests  int           // group size
	BulkDelayBetweenBatches time.Duration // pause between groups

	RedisURL       string // empty = in-memory limiter store
	LimiterMaxKeys int

	YouTubeLangs  []string
	YouTubeMaxRPS float64 // 0 = unlimited
	FetchTimeout  time.Duration

	MCPPort string // empty = MCP tools disabled

	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = watch page fetched with HTTPClient
}

// DefaultConfig returns the configuration used when no environment overrides are set.
func DefaultConfig() Config {
	return Config{
		Port:                    "3001",
		Environment:             "development",
		Version:                 "dev",
		AllowedOrigins:          []string{"http://localhost:3000"},
		RateLimitWindow:         time.Minute,
		RateLimitMax:            20,
		BulkRateLimitWindow:     time.Hour,
		BulkRateLimitMax:        5,
		BulkMaxVideos:           50,
		BulkConcurrentRequests:  3,
		BulkDelayBetweenBatches: time.Second,
		LimiterMaxKeys:          10000,
		YouTubeLangs:            []string{"en"},
		FetchTimeout:            15 * time.Second,
		HTTPClient:              &http.Client{Timeout: 15 * time.Second},
	}
}

var cfg = DefaultConfig()

// Cfg exposes the engine configuration for sub-packages (sources, transcripts).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.FetchTimeout}
	}
	cfg = c
	Cfg = &cfg
}

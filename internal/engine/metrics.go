package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	TranscriptRequests        atomic.Int64
	TranscriptErrors          atomic.Int64
	BulkRequests              atomic.Int64
	BulkItems                 atomic.Int64
	BulkItemFailures          atomic.Int64
	YouTubeTranscriptRequests atomic.Int64
	YouTubeTranscriptErrors   atomic.Int64
	RateLimited               atomic.Int64
}

var metricKeys = []string{
	"transcript_requests", "transcript_errors",
	"bulk_requests", "bulk_items", "bulk_item_failures",
	"youtube_transcript_requests", "youtube_transcript_errors",
	"rate_limited",
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"transcript_requests":         metrics.TranscriptRequests.Load(),
		"transcript_errors":           metrics.TranscriptErrors.Load(),
		"bulk_requests":               metrics.BulkRequests.Load(),
		"bulk_items":                  metrics.BulkItems.Load(),
		"bulk_item_failures":          metrics.BulkItemFailures.Load(),
		"youtube_transcript_requests": metrics.YouTubeTranscriptRequests.Load(),
		"youtube_transcript_errors":   metrics.YouTubeTranscriptErrors.Load(),
		"rate_limited":                metrics.RateLimited.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for transcripts/ sub-package.
func IncrTranscriptRequests() { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptErrors()   { metrics.TranscriptErrors.Add(1) }
func IncrBulkRequests()       { metrics.BulkRequests.Add(1) }
func IncrBulkItems(n int)     { metrics.BulkItems.Add(int64(n)) }
func IncrBulkItemFailures()   { metrics.BulkItemFailures.Add(1) }

// Incrementors for sources/ sub-package.
func IncrYouTubeTranscript()       { metrics.YouTubeTranscriptRequests.Add(1) }
func IncrYouTubeTranscriptErrors() { metrics.YouTubeTranscriptErrors.Add(1) }

// IncrRateLimited counts requests rejected by the HTTP rate limiters.
func IncrRateLimited() { metrics.RateLimited.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}

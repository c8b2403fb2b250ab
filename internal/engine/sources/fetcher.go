package sources

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// YouTubeFetcher fetches caption segments from YouTube, optionally throttling
// outbound calls so bulk runs stay under upstream limits.
type YouTubeFetcher struct {
	langs   []string
	limiter *rate.Limiter // nil = unlimited
	fetch   func(ctx context.Context, videoID string, langs []string) ([]engine.CaptionSegment, error)
}

// NewYouTubeFetcher builds a fetcher preferring the given caption languages.
// maxRPS <= 0 disables throttling.
func NewYouTubeFetcher(langs []string, maxRPS float64) *YouTubeFetcher {
	f := &YouTubeFetcher{langs: langs, fetch: FetchYouTubeTranscript}
	if maxRPS > 0 {
		burst := max(1, int(math.Ceil(maxRPS)))
		f.limiter = rate.NewLimiter(rate.Limit(maxRPS), burst)
	}
	return f
}

// Fetch returns the caption segments of videoID in upstream order.
func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID string) ([]engine.CaptionSegment, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return f.fetch(ctx, videoID, f.langs)
}

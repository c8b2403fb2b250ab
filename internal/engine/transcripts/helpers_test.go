package transcripts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
)

// stubFetcher returns two segments for every id except those in fail/empty.
type stubFetcher struct {
	fail  map[string]error
	empty map[string]bool
	delay time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu    sync.Mutex
	order []string
}

func (s *stubFetcher) Fetch(ctx context.Context, videoID string) ([]engine.CaptionSegment, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	s.mu.Lock()
	s.order = append(s.order, videoID)
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err, ok := s.fail[videoID]; ok {
		return nil, err
	}
	if s.empty[videoID] {
		return nil, nil
	}
	return []engine.CaptionSegment{
		{OffsetMs: 0, Text: "Hello"},
		{OffsetMs: 1500, Text: "World"},
	}, nil
}

var errBoom = errors.New("connection reset by peer")

var errDisabled = sources.ErrTranscriptDisabled

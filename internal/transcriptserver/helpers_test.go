package transcriptserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcripts"
)

// fakeFetcher returns two segments for any id not listed in fail.
type fakeFetcher struct {
	fail  map[string]error
	calls atomic.Int32
}

func (f *fakeFetcher) Fetch(_ context.Context, videoID string) ([]engine.CaptionSegment, error) {
	f.calls.Add(1)
	if err, ok := f.fail[videoID]; ok {
		return nil, err
	}
	return []engine.CaptionSegment{
		{OffsetMs: 0, Text: "Hello"},
		{OffsetMs: 1500, Text: "World"},
	}, nil
}

var errNoCaptions = sources.ErrTranscriptDisabled

func testConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Environment = "test"
	cfg.Version = "v0.0.0-test"
	cfg.BulkConcurrentRequests = 2
	cfg.BulkDelayBetweenBatches = 0
	cfg.BulkMaxVideos = 5
	cfg.RateLimitMax = 1000
	cfg.BulkRateLimitMax = 1000
	return cfg
}

func newTestApp(t *testing.T, cfg engine.Config, f transcripts.Fetcher) *fiber.App {
	t.Helper()
	svc := transcripts.NewService(f)
	return New(Deps{
		Config:  cfg,
		Service: svc,
		Batcher: transcripts.NewBatcher(svc, transcripts.BatchConfigFrom(cfg)),
	})
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

var errReset = errors.New("connection reset by peer")

// Package transcripts formats YouTube caption segments and serves single and
// batched transcript requests on top of an opaque Fetcher.
package transcripts

import (
	"context"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Fetcher returns the caption segments of a video in upstream order.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) ([]engine.CaptionSegment, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, videoID string) ([]engine.CaptionSegment, error)

func (f FetcherFunc) Fetch(ctx context.Context, videoID string) ([]engine.CaptionSegment, error) {
	return f(ctx, videoID)
}

// Service fetches and formats single transcripts.
type Service struct {
	fetcher Fetcher
}

// NewService creates a Service backed by fetcher.
func NewService(fetcher Fetcher) *Service {
	return &Service{fetcher: fetcher}
}

// Transcript fetches and formats the transcript of videoID.
// Errors are *Error values: validation, not found or upstream.
func (s *Service) Transcript(ctx context.Context, videoID string) (engine.TranscriptOutput, error) {
	engine.IncrTranscriptRequests()
	if videoID == "" {
		engine.IncrTranscriptErrors()
		return engine.TranscriptOutput{}, validationError(MsgVideoIDRequired)
	}

	slog.Info("transcript: processing", slog.String("video_id", videoID))
	start := time.Now()

	text, segments, err := s.fetchFormatted(ctx, videoID)
	elapsed := time.Since(start)
	if err != nil {
		engine.IncrTranscriptErrors()
		slog.Warn("transcript: failed",
			slog.String("video_id", videoID),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))
		return engine.TranscriptOutput{}, err
	}

	slog.Info("transcript: done",
		slog.String("video_id", videoID),
		slog.Int("segments", segments),
		slog.Duration("elapsed", elapsed))

	return engine.TranscriptOutput{
		VideoID:          videoID,
		Transcript:       text,
		Segments:         segments,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Timestamp:        engine.ISOTime(time.Now()),
	}, nil
}

// fetchFormatted runs one fetch+format. Zero segments is a not-found error,
// distinct from an upstream failure.
func (s *Service) fetchFormatted(ctx context.Context, videoID string) (string, int, error) {
	segs, err := s.fetcher.Fetch(ctx, videoID)
	if err != nil {
		return "", 0, upstreamError(err)
	}
	if len(segs) == 0 {
		return "", 0, &Error{Kind: KindNotFound, Message: MsgNoTranscript}
	}
	return Format(segs), len(segs), nil
}

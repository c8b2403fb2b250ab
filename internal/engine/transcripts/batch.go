package transcripts

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// BatchConfig bounds and paces a batch run.
type BatchConfig struct {
	GroupSize int           // videos fetched concurrently
	Delay     time.Duration // pause between consecutive groups
	MaxItems  int           // largest accepted batch
}

// BatchConfigFrom extracts the batch settings from the engine configuration.
func BatchConfigFrom(c engine.Config) BatchConfig {
	return BatchConfig{
		GroupSize: c.BulkConcurrentRequests,
		Delay:     c.BulkDelayBetweenBatches,
		MaxItems:  c.BulkMaxVideos,
	}
}

// Batcher processes lists of videos in fixed-size concurrent groups.
type Batcher struct {
	svc *Service
	cfg BatchConfig
}

// NewBatcher creates a Batcher. Non-positive sizes fall back to the defaults.
func NewBatcher(svc *Service, cfg BatchConfig) *Batcher {
	def := BatchConfigFrom(engine.DefaultConfig())
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = def.GroupSize
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = def.MaxItems
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &Batcher{svc: svc, cfg: cfg}
}

// Config returns the effective batch configuration.
func (b *Batcher) Config() BatchConfig { return b.cfg }

// Process fetches every video of videoIDs and returns one result per input,
// in input order. Groups of GroupSize run one after another with Delay
// between them; members of a group run concurrently and a failing member
// never affects its siblings. Only an empty or oversized batch is an error,
// and it is reported before any fetch happens.
func (b *Batcher) Process(ctx context.Context, videoIDs []string) (engine.BatchOutput, error) {
	if len(videoIDs) == 0 {
		return engine.BatchOutput{}, validationError(MsgVideoIDsInvalid)
	}
	if len(videoIDs) > b.cfg.MaxItems {
		return engine.BatchOutput{}, capacityError(b.cfg.MaxItems, len(videoIDs))
	}

	engine.IncrBulkRequests()
	engine.IncrBulkItems(len(videoIDs))
	slog.Info("bulk: started",
		slog.Int("videos", len(videoIDs)),
		slog.Int("group_size", b.cfg.GroupSize),
		slog.Duration("delay", b.cfg.Delay))

	start := time.Now()
	results := make([]engine.BatchItem, len(videoIDs))

	for lo := 0; lo < len(videoIDs); lo += b.cfg.GroupSize {
		hi := min(lo+b.cfg.GroupSize, len(videoIDs))

		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				results[i] = b.processItem(ctx, videoIDs[i])
				return nil
			})
		}
		_ = g.Wait() // members never return errors

		if hi < len(videoIDs) {
			b.pause(ctx)
		}
	}

	summary := engine.BatchSummary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	elapsed := time.Since(start)
	summary.ProcessingTimeMs = elapsed.Milliseconds()
	summary.Timestamp = engine.ISOTime(time.Now())

	slog.Info("bulk: done",
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", elapsed))

	return engine.BatchOutput{Results: results, Summary: summary}, nil
}

// processItem turns one fetch+format into a result; it never fails.
func (b *Batcher) processItem(ctx context.Context, videoID string) (item engine.BatchItem) {
	start := time.Now()
	item.VideoID = videoID

	defer func() {
		if r := recover(); r != nil {
			item = engine.BatchItem{VideoID: videoID, Error: MsgInternal}
			slog.Error("bulk: item panicked", slog.String("video_id", videoID), slog.Any("panic", r))
		}
		item.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()
		if !item.Success {
			engine.IncrBulkItemFailures()
		}
	}()

	if videoID == "" {
		item.Error = MsgVideoIDRequired
		return item
	}

	text, segments, err := b.svc.fetchFormatted(ctx, videoID)
	if err != nil {
		item.Error = Message(err)
		slog.Info("bulk: item failed", slog.String("video_id", videoID), slog.Any("error", err))
		return item
	}

	item.Success = true
	item.Transcript = text
	item.Metadata.Segments = segments
	slog.Debug("bulk: item done", slog.String("video_id", videoID), slog.Int("segments", segments))
	return item
}

// pause waits Delay between groups. A done context cuts the wait short;
// the remaining groups still run.
func (b *Batcher) pause(ctx context.Context) {
	if b.cfg.Delay <= 0 {
		return
	}
	timer := time.NewTimer(b.cfg.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

package transcriptserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcripts"
)

type transcriptRequest struct {
	VideoID string `json:"videoId" validate:"required"`
}

type bulkRequest struct {
	VideoIDs []string `json:"videoIds" validate:"required,min=1"`
}

type transcriptMetadata struct {
	Segments         int    `json:"segments"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	Timestamp        string `json:"timestamp"`
}

type transcriptResponse struct {
	Success    bool               `json:"success"`
	VideoID    string             `json:"videoId"`
	Transcript string             `json:"transcript"`
	Metadata   transcriptMetadata `json:"metadata"`
}

type bulkResponse struct {
	Success bool                `json:"success"`
	Results []engine.BatchItem  `json:"results"`
	Summary engine.BatchSummary `json:"summary"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

type statsLimits struct {
	MaxVideosPerBulk      int   `json:"maxVideosPerBulk"`
	ConcurrentRequests    int   `json:"concurrentRequests"`
	DelayBetweenBatchesMs int64 `json:"delayBetweenBatchesMs"`
	RateLimitPerMinute    int   `json:"rateLimitPerMinute"`
	RateLimitWindowMs     int64 `json:"rateLimitWindowMs"`
	BulkRequestsPerHour   int   `json:"bulkRequestsPerHour"`
}

type statsServer struct {
	Uptime      float64 `json:"uptime"`
	GoVersion   string  `json:"goVersion"`
	Environment string  `json:"environment"`
	Version     string  `json:"version"`
}

type statsResponse struct {
	Success  bool             `json:"success"`
	Limits   statsLimits      `json:"limits"`
	Server   statsServer      `json:"server"`
	Counters map[string]int64 `json:"counters"`
}

func (s *server) health(c *fiber.Ctx) error {
	return c.JSON(healthResponse{
		Status:      "ok",
		Timestamp:   engine.ISOTime(time.Now()),
		Environment: s.Config.Environment,
	})
}

func (s *server) stats(c *fiber.Ctx) error {
	bc := s.Batcher.Config()
	return c.JSON(statsResponse{
		Success: true,
		Limits: statsLimits{
			MaxVideosPerBulk:      bc.MaxItems,
			ConcurrentRequests:    bc.GroupSize,
			DelayBetweenBatchesMs: bc.Delay.Milliseconds(),
			RateLimitPerMinute:    s.Config.RateLimitMax,
			RateLimitWindowMs:     s.Config.RateLimitWindow.Milliseconds(),
			BulkRequestsPerHour:   s.Config.BulkRateLimitMax,
		},
		Server: statsServer{
			Uptime:      time.Since(s.started).Seconds(),
			GoVersion:   runtime.Version(),
			Environment: s.Config.Environment,
			Version:     s.Config.Version,
		},
		Counters: engine.GetMetrics(),
	})
}

// decodeBody reads a JSON body. An empty body decodes to the zero value so
// that required-field validation reports it.
func decodeBody(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func isTypeError(err error) bool {
	var te *json.UnmarshalTypeError
	return errors.As(err, &te)
}

func (s *server) transcript(c *fiber.Ctx) error {
	var req transcriptRequest
	if err := decodeBody(c, &req); err != nil {
		if isTypeError(err) {
			return respondError(c, fiber.StatusBadRequest, transcripts.MsgVideoIDNotString)
		}
		return respondError(c, fiber.StatusBadRequest, msgInvalidJSON)
	}
	if err := s.validate.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, transcripts.MsgVideoIDRequired)
	}

	out, err := s.Service.Transcript(c.UserContext(), req.VideoID)
	if err != nil {
		kind := transcripts.KindOf(err)
		if kind == transcripts.KindInternal {
			return err
		}
		return c.Status(statusFor(kind)).JSON(errorResponse{
			Error:   transcripts.Message(err),
			VideoID: req.VideoID,
		})
	}

	return c.JSON(transcriptResponse{
		Success:    true,
		VideoID:    out.VideoID,
		Transcript: out.Transcript,
		Metadata: transcriptMetadata{
			Segments:         out.Segments,
			ProcessingTimeMs: out.ProcessingTimeMs,
			Timestamp:        out.Timestamp,
		},
	})
}

func (s *server) bulkTranscript(c *fiber.Ctx) error {
	var req bulkRequest
	if err := decodeBody(c, &req); err != nil {
		if isTypeError(err) {
			return respondError(c, fiber.StatusBadRequest, transcripts.MsgVideoIDsInvalid)
		}
		return respondError(c, fiber.StatusBadRequest, msgInvalidJSON)
	}
	if err := s.validate.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, transcripts.MsgVideoIDsInvalid)
	}

	out, err := s.Batcher.Process(c.UserContext(), req.VideoIDs)
	if err != nil {
		kind := transcripts.KindOf(err)
		if kind == transcripts.KindValidation || kind == transcripts.KindCapacity {
			return respondError(c, statusFor(kind), transcripts.Message(err))
		}
		slog.Error("bulk: processing failed", slog.Any("error", err))
		return respondError(c, fiber.StatusInternalServerError, msgBulkFailed)
	}

	return c.JSON(bulkResponse{Success: true, Results: out.Results, Summary: out.Summary})
}

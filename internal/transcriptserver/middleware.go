package transcriptserver

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

const requestIDKey = "requestid"

// requestLogger tags each request with an ID and logs it once finished.
// Chain errors are resolved here so the logged status is the one sent.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Locals(requestIDKey, id)
		c.Set(fiber.HeaderXRequestID, id)

		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.UserContext(), level, "request",
			slog.String("request_id", id),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)))
		return nil
	}
}

// originAllowed reports whether a browser origin may call the API.
// file:// pages are always allowed; "*" in the list allows everything.
func originAllowed(allowed []string, origin string) bool {
	if origin == "" || strings.HasPrefix(origin, "file://") {
		return true
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

func corsMiddleware(allowed []string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool { return originAllowed(allowed, origin) },
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID",
		AllowCredentials: true,
	})
}

func limitReached(msg string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		engine.IncrRateLimited()
		return respondError(c, fiber.StatusTooManyRequests, msg)
	}
}

// apiLimiter bounds all /api traffic per client IP.
func apiLimiter(cfg engine.Config, store fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          cfg.RateLimitMax,
		Expiration:   cfg.RateLimitWindow,
		KeyGenerator: func(c *fiber.Ctx) string { return "api:" + c.IP() },
		LimitReached: limitReached(msgRateLimited),
		Storage:      store,
	})
}

// bulkLimiter is the tighter per-IP budget for batch requests.
func bulkLimiter(cfg engine.Config, store fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          cfg.BulkRateLimitMax,
		Expiration:   cfg.BulkRateLimitWindow,
		KeyGenerator: func(c *fiber.Ctx) string { return "bulk:" + c.IP() },
		LimitReached: limitReached(msgBulkRateLimit),
		Storage:      store,
	})
}

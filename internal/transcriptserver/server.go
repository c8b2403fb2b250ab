// Package transcriptserver exposes the transcript operations over HTTP (fiber)
// and as MCP tools.
package transcriptserver

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcripts"
)

// Deps holds what the HTTP layer needs, built once in main.
type Deps struct {
	Config  engine.Config
	Service *transcripts.Service
	Batcher *transcripts.Batcher
	Storage fiber.Storage // limiter counters; nil = fiber's in-memory storage
	Metrics *Metrics      // nil = no /metrics endpoint
}

// server carries the handler dependencies.
type server struct {
	Deps
	validate *validator.Validate
	started  time.Time
}

// New builds the fiber application with every route and middleware wired.
func New(d Deps) *fiber.App {
	s := &server{Deps: d, validate: validator.New(), started: time.Now()}

	app := fiber.New(fiber.Config{
		AppName:               "go_transcript " + d.Config.Version,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
		BodyLimit:             1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestLogger())
	app.Use(corsMiddleware(d.Config.AllowedOrigins))
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
		app.Get("/metrics", d.Metrics.Handler())
	}

	app.Get("/health", s.health)

	api := app.Group("/api", apiLimiter(d.Config, d.Storage))
	api.Get("/stats", s.stats)
	api.Post("/transcript", s.transcript)
	api.Post("/bulk-transcript", bulkLimiter(d.Config, d.Storage), s.bulkTranscript)

	app.Use(notFound)
	return app
}

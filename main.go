// go_transcript — YouTube transcript HTTP service and MCP server.
//
// Serves POST /api/transcript and POST /api/bulk-transcript over HTTP, and
// optionally the youtube_transcript / youtube_bulk_transcript MCP tools.
// The transcript subcommand fetches transcripts from the command line.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcripts"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "go_transcript",
		Short:        "YouTube transcript service",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				slog.Warn("env file not loaded", slog.String("file", envFile), slog.Any("error", err))
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")

	serve := newServeCommand()
	root.AddCommand(serve, newTranscriptCommand())
	// Running without a subcommand serves HTTP.
	root.RunE = serve.RunE
	return root
}

// loadConfig reads the environment. Windows and delays are given in
// milliseconds, FETCH_TIMEOUT as a Go duration.
func loadConfig() engine.Config {
	def := engine.DefaultConfig()
	return engine.Config{
		Port:        env.Str("PORT", def.Port),
		Environment: env.Str("NODE_ENV", def.Environment),
		Version:     version,

		AllowedOrigins: trimAll(env.List("ALLOWED_ORIGINS", strings.Join(def.AllowedOrigins, ","))),

		RateLimitWindow:     millis(env.Int("RATE_LIMIT_WINDOW_MS", int(def.RateLimitWindow.Milliseconds()))),
		RateLimitMax:        env.Int("RATE_LIMIT_MAX_REQUESTS", def.RateLimitMax),
		BulkRateLimitWindow: millis(env.Int("BULK_RATE_LIMIT_WINDOW_MS", int(def.BulkRateLimitWindow.Milliseconds()))),
		BulkRateLimitMax:    env.Int("BULK_RATE_LIMIT_MAX_REQUESTS", def.BulkRateLimitMax),

		BulkMaxVideos:           env.Int("BULK_MAX_VIDEOS", def.BulkMaxVideos),
		BulkConcurrentRequests:  env.Int("BULK_CONCURRENT_REQUESTS", def.BulkConcurrentRequests),
		BulkDelayBetweenBatches: millis(env.Int("BULK_DELAY_BETWEEN_BATCHES", int(def.BulkDelayBetweenBatches.Milliseconds()))),

		RedisURL:       env.Str("REDIS_URL", ""),
		LimiterMaxKeys: env.Int("LIMITER_MAX_KEYS", def.LimiterMaxKeys),

		YouTubeLangs:  trimAll(env.List("YOUTUBE_LANGS", strings.Join(def.YouTubeLangs, ","))),
		YouTubeMaxRPS: env.Float("YOUTUBE_MAX_RPS", 0),
		FetchTimeout:  env.Duration("FETCH_TIMEOUT", def.FetchTimeout),

		MCPPort: env.Str("MCP_PORT", ""),
	}
}

func millis(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	// Logs go to stderr so the transcript subcommand can write results to stdout.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// initEngine builds the outbound clients and installs the engine configuration.
func initEngine() engine.Config {
	setupLogger(env.Str("LOG_LEVEL", "info"))

	c := loadConfig()
	c.HTTPClient = &http.Client{
		Timeout: c.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}

	bc, err := engine.NewBrowserClient(c.FetchTimeout, env.Str("WEBSHARE_API_KEY", ""))
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}

	engine.Init(c)
	return c
}

// newPipeline wires fetcher, service and batcher from the configuration.
func newPipeline(c engine.Config) (*transcripts.Service, *transcripts.Batcher) {
	fetcher := sources.NewYouTubeFetcher(c.YouTubeLangs, c.YouTubeMaxRPS)
	svc := transcripts.NewService(fetcher)
	return svc, transcripts.NewBatcher(svc, transcripts.BatchConfigFrom(c))
}

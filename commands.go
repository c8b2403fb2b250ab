package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcripts"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
	"github.com/anatolykoptev/go_transcript/internal/transcriptserver"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (and MCP tools when MCP_PORT is set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := initEngine()
	svc, batcher := newPipeline(c)

	store := engine.NewLimiterStore(c.RedisURL, c.LimiterMaxKeys, time.Minute)
	defer store.Close()

	metrics, err := transcriptserver.SetupMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	defer metrics.Shutdown(context.Background()) //nolint:errcheck

	app := transcriptserver.New(transcriptserver.Deps{
		Config:  c,
		Service: svc,
		Batcher: batcher,
		Storage: store,
		Metrics: metrics,
	})

	if c.MCPPort != "" {
		go runMCP(c, svc, batcher)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting go_transcript",
			slog.String("port", c.Port),
			slog.String("environment", c.Environment),
			slog.Bool("redis_limiter", store.Redis()),
			slog.Int("bulk_max_videos", c.BulkMaxVideos),
			slog.Int("bulk_group_size", c.BulkConcurrentRequests),
			slog.Duration("bulk_delay", c.BulkDelayBetweenBatches))
		errCh <- app.Listen(":" + c.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func runMCP(c engine.Config, svc *transcripts.Service, batcher *transcripts.Batcher) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: version,
	}, nil)

	transcriptserver.RegisterTools(server, svc, batcher)
	slog.Info("tools registered", slog.Int("count", 2), slog.String("port", c.MCPPort))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_transcript",
		Version:      version,
		Port:         c.MCPPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("mcp server failed", slog.Any("error", err))
	}
}

func newTranscriptCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transcript <videoId|url>...",
		Short: "Fetch transcripts and print them to stdout",
		Long: `Fetch one or more transcripts without starting the server.

A single video prints the formatted transcript. Several videos run through
the same grouped, paced batch as POST /api/bulk-transcript and print the
JSON result.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := initEngine()
			svc, batcher := newPipeline(c)
			ids := toolutil.NormVideoIDs(args)
			out := cmd.OutOrStdout()

			if len(ids) == 1 {
				res, err := svc.Transcript(cmd.Context(), ids[0])
				if err != nil {
					return errors.New(transcripts.Message(err))
				}
				if asJSON {
					return writeJSON(out, res)
				}
				_, err = fmt.Fprintln(out, res.Transcript)
				return err
			}

			res, err := batcher.Process(cmd.Context(), ids)
			if err != nil {
				return errors.New(transcripts.Message(err))
			}
			if err := writeJSON(out, res); err != nil {
				return err
			}
			if res.Summary.Failed > 0 {
				return fmt.Errorf("%d of %d videos failed", res.Summary.Failed, res.Summary.Total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the single-video result as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

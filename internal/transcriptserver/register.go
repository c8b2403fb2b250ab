package transcriptserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/transcripts"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
)

// RegisterTools registers the transcript tools on the given MCP server:
// youtube_transcript, youtube_bulk_transcript.
func RegisterTools(server *mcp.Server, svc *transcripts.Service, batcher *transcripts.Batcher) {
	registerTranscript(server, svc)
	registerBulkTranscript(server, batcher)
}

func registerTranscript(server *mcp.Server, svc *transcripts.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript",
		Description: "Fetch the transcript of a YouTube video. Accepts a video ID or watch URL. Returns the transcript as [HH:MM:SS] lines separated by blank lines, with the segment count and processing time.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.TranscriptInput) (*mcp.CallToolResult, engine.TranscriptOutput, error) {
		out, err := svc.Transcript(ctx, toolutil.NormVideoID(input.VideoID))
		if err != nil {
			return nil, engine.TranscriptOutput{}, errors.New(transcripts.Message(err))
		}
		return nil, out, nil
	})
}

func registerBulkTranscript(server *mcp.Server, batcher *transcripts.Batcher) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_bulk_transcript",
		Description: "Fetch transcripts for many YouTube videos at once. Videos are processed in small concurrent groups with a pause between groups. One failing video never fails the batch: every input gets a result, in input order, plus a summary.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.BulkTranscriptInput) (*mcp.CallToolResult, engine.BatchOutput, error) {
		out, err := batcher.Process(ctx, toolutil.NormVideoIDs(input.VideoIDs))
		if err != nil {
			return nil, engine.BatchOutput{}, errors.New(transcripts.Message(err))
		}
		return nil, out, nil
	})
}

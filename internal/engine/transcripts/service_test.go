package transcripts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

func TestServiceTranscript(t *testing.T) {
	svc := NewService(&stubFetcher{})

	out, err := svc.Transcript(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", out.VideoID)
	assert.Equal(t, "[00:00:00] Hello\n\n[00:00:01] World", out.Transcript)
	assert.Equal(t, 2, out.Segments)
	assert.GreaterOrEqual(t, out.ProcessingTimeMs, int64(0))
	assert.NotEmpty(t, out.Timestamp)
}

func TestServiceTranscriptMissingID(t *testing.T) {
	f := &stubFetcher{}
	_, err := NewService(f).Transcript(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, MsgVideoIDRequired, Message(err))
	assert.Zero(t, f.calls.Load())
}

func TestServiceTranscriptEmpty(t *testing.T) {
	f := &stubFetcher{empty: map[string]bool{"quiet": true}}
	_, err := NewService(f).Transcript(context.Background(), "quiet")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, MsgNoTranscript, Message(err))
}

func TestServiceTranscriptUpstream(t *testing.T) {
	f := &stubFetcher{fail: map[string]error{"off": errDisabled, "net": errBoom}}
	svc := NewService(f)

	_, err := svc.Transcript(context.Background(), "off")
	require.Error(t, err)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Equal(t, MsgCaptionsDisabled, Message(err))

	_, err = svc.Transcript(context.Background(), "net")
	require.Error(t, err)
	assert.Equal(t, errBoom.Error(), Message(err))
}

func TestFetcherFunc(t *testing.T) {
	var got string
	f := FetcherFunc(func(_ context.Context, id string) ([]engine.CaptionSegment, error) {
		got = id
		return nil, nil
	})
	_, err := f.Fetch(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

package transcripts

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

// Timestamp renders an offset as HH:MM:SS. Sub-second remainders are truncated.
func Timestamp(offsetMs int64) string {
	if offsetMs < 0 {
		offsetMs = 0
	}
	h := offsetMs / msPerHour
	m := (offsetMs % msPerHour) / msPerMinute
	s := (offsetMs % msPerMinute) / msPerSecond
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Format joins segments as "[HH:MM:SS] text" blocks separated by a blank line.
// Callers treat an empty slice as "no transcript" and do not format it.
func Format(segments []engine.CaptionSegment) string {
	var sb strings.Builder
	for i, seg := range segments {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteByte('[')
		sb.WriteString(Timestamp(seg.OffsetMs))
		sb.WriteString("] ")
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

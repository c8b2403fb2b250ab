package sources

import "errors"

// Sentinel errors for identifier-specific upstream failures. Their texts
// mirror the messages commonly produced by YouTube caption extractors.
var (
	ErrTranscriptDisabled = errors.New("transcript is disabled on this video")
	ErrVideoUnavailable   = errors.New("video unavailable")
	ErrTranscriptNotFound = errors.New("could not find a transcript for this video")
)

// definitive reports whether err identifies the video itself as the problem,
// in which case trying another strategy will not help.
func definitive(err error) bool {
	return errors.Is(err, ErrTranscriptDisabled) ||
		errors.Is(err, ErrVideoUnavailable)
}

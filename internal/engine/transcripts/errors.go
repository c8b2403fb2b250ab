package transcripts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
)

// Kind classifies a transcript error for the transport layer.
type Kind int

const (
	KindInternal   Kind = iota // unexpected, 500
	KindValidation             // bad or missing input, 400
	KindNotFound               // no transcript exists, 404
	KindUpstream               // fetcher failed for this video, 400
	KindCapacity               // batch too large, 400
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindCapacity:
		return "capacity"
	default:
		return "internal"
	}
}

// Error is a user-facing failure. Message is safe to return to clients;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, KindInternal when err carries none.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

// Message returns the client-safe text of err.
func Message(err error) string {
	var te *Error
	if errors.As(err, &te) {
		return te.Message
	}
	return MsgInternal
}

// Messages returned to clients.
const (
	MsgVideoIDRequired   = "videoId es requerido"
	MsgVideoIDNotString  = "videoId debe ser un string"
	MsgVideoIDsInvalid   = "videoIds debe ser un array no vacío"
	MsgNoTranscript      = "No se encontró transcripción para este video"
	MsgCaptionsDisabled  = "Este video no tiene subtítulos/transcripción disponible"
	MsgVideoUnavailable  = "Video no disponible o privado"
	MsgTranscriptMissing = "No se pudo encontrar la transcripción para este video"
	MsgInternal          = "Error interno del servidor"
)

func validationError(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func capacityError(maxItems, got int) *Error {
	return &Error{Kind: KindCapacity, Message: fmt.Sprintf("Máximo %d videos permitidos. Recibidos: %d", maxItems, got)}
}

func upstreamError(err error) *Error {
	return &Error{Kind: KindUpstream, Message: FriendlyMessage(err), Err: err}
}

// friendlyMessages maps upstream failures to user-facing text, first match wins.
// The fetcher's error text is not a stable contract: sentinel errors are
// checked first, raw substrings only as a fallback.
var friendlyMessages = []struct {
	match   func(err error, lower string) bool
	message string
}{
	{
		match: func(err error, lower string) bool {
			return errors.Is(err, sources.ErrTranscriptDisabled) || strings.Contains(lower, "transcript is disabled")
		},
		message: MsgCaptionsDisabled,
	},
	{
		match: func(err error, lower string) bool {
			return errors.Is(err, sources.ErrVideoUnavailable) || strings.Contains(lower, "video unavailable")
		},
		message: MsgVideoUnavailable,
	},
	{
		match: func(err error, lower string) bool {
			return errors.Is(err, sources.ErrTranscriptNotFound) || strings.Contains(lower, "could not find")
		},
		message: MsgTranscriptMissing,
	},
}

// FriendlyMessage returns the user-facing text for an upstream error,
// or the raw error text when no rule matches.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	raw := err.Error()
	lower := strings.ToLower(raw)
	for _, fm := range friendlyMessages {
		if fm.match(err, lower) {
			return fm.message
		}
	}
	return raw
}

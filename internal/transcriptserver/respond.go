package transcriptserver

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/anatolykoptev/go_transcript/internal/engine/transcripts"
)

// Client-facing messages owned by the HTTP layer.
const (
	msgNotFound      = "Endpoint no encontrado"
	msgInvalidJSON   = "Cuerpo JSON inválido"
	msgBulkFailed    = "Error en el procesamiento bulk"
	msgRateLimited   = "Demasiadas solicitudes desde esta IP, intenta de nuevo más tarde."
	msgBulkRateLimit = "Límite de procesamiento bulk alcanzado. Intenta en 1 hora."
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	VideoID string `json:"videoId,omitempty"`
}

func respondError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(errorResponse{Error: msg})
}

// statusFor maps a transcript error kind to its HTTP status.
func statusFor(kind transcripts.Kind) int {
	switch kind {
	case transcripts.KindValidation, transcripts.KindUpstream, transcripts.KindCapacity:
		return fiber.StatusBadRequest
	case transcripts.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func notFound(c *fiber.Ctx) error {
	return respondError(c, fiber.StatusNotFound, msgNotFound)
}

// errorHandler is the last stop for errors returned by handlers and
// recovered panics. Internals are logged, never sent.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		if fe.Code == fiber.StatusNotFound {
			return notFound(c)
		}
		return respondError(c, fe.Code, fe.Message)
	}

	slog.Error("unhandled error",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Any("request_id", c.Locals(requestIDKey)),
		slog.Any("error", err))
	return respondError(c, fiber.StatusInternalServerError, transcripts.MsgInternal)
}

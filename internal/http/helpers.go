package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/importer"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/middleware/trace"
)

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrMalformedBody),
		errors.Is(err, importer.ErrNotWorkbook):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrMissingClass),
		errors.Is(err, core.ErrMissingStudent),
		errors.Is(err, core.ErrEmptyRecords),
		errors.Is(err, importer.ErrNoWorksheet),
		errors.Is(err, importer.ErrEmptyWorksheet),
		errors.Is(err, importer.ErrMissingColumns):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func errorType(status int) string {
	switch {
	case status == http.StatusNotFound:
		return applog.ErrorTypeNotFound
	case status == http.StatusGatewayTimeout:
		return applog.ErrorTypeTimeout
	case status >= http.StatusInternalServerError:
		return applog.ErrorTypeInternal
	}
	return applog.ErrorTypeValidation
}

// writeError logs err and sends it in the standard error shape. Internal
// failures are not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if fields := FieldErrors(err); fields != nil {
		ValidationErrorResponse(fields).Write(w)
		return
	}

	status := statusForError(err)
	fields := applog.NewFields().
		WithOperation(op).
		WithRequestID(trace.GetRequestID(r.Context())).
		WithComponent(applog.ComponentHTTP).
		WithErrorType(errorType(status)).
		WithError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		InternalServerError("erro interno").Status(status).Write(w)
		return
	}
	slog.WarnContext(r.Context(), "Request rejected", fields.ToSlice()...)
	ErrorResponse(status, err.Error()).Write(w)
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/importer"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
)

func TestJSONResponseBuilder_Data(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Data(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.String() != `{"n":1}` {
		t.Errorf("Body = %q", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "application/json; charset=utf-8" || w.Header().Get("X-Custom") != "value" {
		t.Errorf("headers = %v", w.Header())
	}
}

func TestJSONResponseBuilder_Attachment(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Attachment("a.xlsx", xlsxContentType, []byte("PK")).Write(w)

	if w.Header().Get("Content-Disposition") != `attachment; filename="a.xlsx"` {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if w.Header().Get("Content-Type") != xlsxContentType || w.Body.String() != "PK" {
		t.Errorf("unexpected response %v %q", w.Header(), w.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	w := httptest.NewRecorder()
	ValidationErrorResponse(map[string]string{"mes": "yyyymm"}).Write(w)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Fields["mes"] != "yyyymm" {
		t.Errorf("fields = %v", body.Fields)
	}

	w = httptest.NewRecorder()
	NoContent().Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("NoContent wrote %d %q", w.Code, w.Body.String())
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("delete: %w", core.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("validate: %w", core.ErrInvalidMonth), http.StatusUnprocessableEntity},
		{core.ErrEmptyRecords, http.StatusUnprocessableEntity},
		{importer.ErrMissingColumns, http.StatusUnprocessableEntity},
		{importer.ErrNotWorkbook, http.StatusBadRequest},
		{ErrMalformedBody, http.StatusBadRequest},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorType(t *testing.T) {
	tests := map[int]string{
		http.StatusNotFound:            applog.ErrorTypeNotFound,
		http.StatusUnprocessableEntity: applog.ErrorTypeValidation,
		http.StatusBadRequest:          applog.ErrorTypeValidation,
		http.StatusGatewayTimeout:      applog.ErrorTypeTimeout,
		http.StatusInternalServerError: applog.ErrorTypeInternal,
	}
	for status, want := range tests {
		if got := errorType(status); got != want {
			t.Errorf("errorType(%d) = %q, want %q", status, got, want)
		}
	}
}

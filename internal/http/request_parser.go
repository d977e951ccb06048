// Package http provides HTTP server and handler implementations.
//
// This file implements request decoding: query parameters, JSON payloads
// validated with go-playground/validator, and upload bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

// ErrMalformedBody reports a body that is not the JSON it claims to be.
var ErrMalformedBody = errors.New("malformed request body")

// ParseMonthParam reads the "month" query parameter, defaulting to the
// month of now.
func ParseMonthParam(query url.Values, now time.Time) (string, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return now.Format(core.MonthLayout), nil
	}
	if _, err := time.Parse(core.MonthLayout, v); err != nil {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidMonth, v)
	}
	return v, nil
}

// ParseBoolParam accepts 1/true/sim/yes.
func ParseBoolParam(query url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(query.Get(key))) {
	case "1", "true", "sim", "yes":
		return true
	}
	return false
}

// RequestDecoder decodes and validates JSON request bodies.
type RequestDecoder struct {
	validate *validator.Validate
	maxBytes int64
}

func NewRequestDecoder(maxBytes int64) *RequestDecoder {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("yyyymm", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(core.MonthLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("exclusiondate", func(fl validator.FieldLevel) bool {
		_, err := core.ParseExclusionDate(fl.Field().String())
		return err == nil
	})
	return &RequestDecoder{validate: v, maxBytes: maxBytes}
}

// DecodeJSON reads r's body into dst and validates it. Errors are either
// ErrMalformedBody or validator.ValidationErrors.
func (d *RequestDecoder) DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := io.Reader(r.Body)
	if d.maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, d.maxBytes)
	}
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	return d.validate.Struct(dst)
}

// FieldErrors flattens validator errors into field -> failed rule.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Drop the root struct name from the namespace.
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[ns] = rule
	}
	return out
}

// UploadBody returns the uploaded file: the "file" part of a multipart
// form, or the raw body otherwise. The caller closes the result.
func (d *RequestDecoder) UploadBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	if d.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, d.maxBytes)
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return file, nil
}

type (
	recordPayload struct {
		StudentName    string            `json:"aluno_nome" validate:"required"`
		Attendance     map[string]string `json:"attendance"`
		Justifications map[string]string `json:"justifications"`
	}

	snapshotPayload struct {
		ClassCode  string          `json:"turmaCodigo" validate:"required_without=ClassLabel"`
		ClassLabel string          `json:"turmaLabel"`
		Schedule   string          `json:"horario"`
		Teacher    string          `json:"professor"`
		Month      string          `json:"mes" validate:"required,yyyymm"`
		SavedAt    string          `json:"saved_at"`
		Source     string          `json:"source"`
		Records    []recordPayload `json:"registros" validate:"required,min=1,dive"`
	}

	exclusionPayload struct {
		StudentName string `json:"nome" validate:"required"`
		ClassCode   string `json:"turmaCodigo"`
		ClassLabel  string `json:"turmaLabel"`
		Schedule    string `json:"horario"`
		Teacher     string `json:"professor"`
		Date        string `json:"dataExclusao" validate:"required,exclusiondate"`
		Reason      string `json:"motivo_exclusao"`
	}

	eventPayload struct {
		Date        string `json:"date" validate:"required,datetime=2006-01-02"`
		Type        string `json:"type" validate:"required,oneof=feriado ponte reuniao evento"`
		AllDay      bool   `json:"allDay"`
		Description string `json:"description"`
	}

	calendarPayload struct {
		AcademicYearStart string         `json:"academicYearStart" validate:"omitempty,datetime=2006-01-02"`
		AcademicYearEnd   string         `json:"academicYearEnd" validate:"omitempty,datetime=2006-01-02"`
		WinterBreakStart  string         `json:"winterBreakStart" validate:"omitempty,datetime=2006-01-02"`
		WinterBreakEnd    string         `json:"winterBreakEnd" validate:"omitempty,datetime=2006-01-02"`
		ClosedDates       []string       `json:"closedDates" validate:"dive,datetime=2006-01-02"`
		Events            []eventPayload `json:"events" validate:"dive"`
	}
)

func (p snapshotPayload) toCore() core.Snapshot {
	snap := core.Snapshot{
		ClassCode:  sanitizeInput(p.ClassCode),
		ClassLabel: sanitizeInput(p.ClassLabel),
		Schedule:   sanitizeInput(p.Schedule),
		Teacher:    sanitizeInput(p.Teacher),
		Month:      strings.TrimSpace(p.Month),
		SavedAt:    strings.TrimSpace(p.SavedAt),
		Source:     sanitizeInput(p.Source),
		Records:    make([]core.AttendanceRecord, 0, len(p.Records)),
	}
	for _, r := range p.Records {
		snap.Records = append(snap.Records, core.AttendanceRecord{
			StudentName:    sanitizeInput(r.StudentName),
			Attendance:     r.Attendance,
			Justifications: r.Justifications,
		})
	}
	return snap
}

func (p exclusionPayload) toCore() core.Exclusion {
	return core.Exclusion{
		StudentName: sanitizeInput(p.StudentName),
		ClassCode:   sanitizeInput(p.ClassCode),
		ClassLabel:  sanitizeInput(p.ClassLabel),
		Schedule:    sanitizeInput(p.Schedule),
		Teacher:     sanitizeInput(p.Teacher),
		Date:        strings.TrimSpace(p.Date),
		Reason:      sanitizeInput(p.Reason),
	}
}

func (p calendarPayload) toCore() core.CalendarSettings {
	cs := core.CalendarSettings{
		AcademicYearStart: p.AcademicYearStart,
		AcademicYearEnd:   p.AcademicYearEnd,
		WinterBreakStart:  p.WinterBreakStart,
		WinterBreakEnd:    p.WinterBreakEnd,
		ClosedDates:       p.ClosedDates,
	}
	for _, ev := range p.Events {
		cs.Events = append(cs.Events, core.CalendarEvent{
			Date:        ev.Date,
			Type:        ev.Type,
			AllDay:      ev.AllDay,
			Description: sanitizeInput(ev.Description),
		})
	}
	return cs
}

package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the ISO calendar date used as attendance key.
	DateLayout = "2006-01-02"
	// MonthLayout is the YYYY-MM month a snapshot belongs to.
	MonthLayout = "2006-01"
	// ExclusionDateLayout is the DD/MM/YYYY convention of exclusion records.
	ExclusionDateLayout = "02/01/2006"
)

type (
	// Snapshot is one full-grid attendance submission for a class and month.
	// Snapshots are append-only and never mutated once stored.
	Snapshot struct {
		ID         string             `json:"id,omitempty"`
		ClassCode  string             `json:"turmaCodigo"`
		ClassLabel string             `json:"turmaLabel"`
		Schedule   string             `json:"horario"`
		Teacher    string             `json:"professor"`
		Month      string             `json:"mes"`
		SavedAt    string             `json:"saved_at"`
		Source     string             `json:"source,omitempty"`
		Records    []AttendanceRecord `json:"registros"`
	}

	// AttendanceRecord is one student row of a snapshot grid.
	AttendanceRecord struct {
		StudentName    string            `json:"aluno_nome"`
		Attendance     map[string]string `json:"attendance"`
		Justifications map[string]string `json:"justifications,omitempty"`
	}

	// Event is a single flattened attendance mark.
	Event struct {
		Date       string
		StudentKey string
		Status     Status
		Level      string
	}

	ClassRecord struct {
		ID       string `json:"id"`
		UnitID   string `json:"unitId,omitempty"`
		Code     string `json:"codigo"`
		Label    string `json:"turmaLabel"`
		Schedule string `json:"horario"`
		Teacher  string `json:"professor"`
		Level    string `json:"nivel"`
		AgeRange string `json:"faixaEtaria,omitempty"`
		Capacity int    `json:"capacidade,omitempty"`
		Weekdays string `json:"diasSemana,omitempty"`
	}

	StudentRecord struct {
		ID               string `json:"id"`
		ClassID          string `json:"classId"`
		Name             string `json:"nome"`
		WhatsApp         string `json:"whatsapp,omitempty"`
		BirthDate        string `json:"dataNascimento,omitempty"`
		CertificateDate  string `json:"dataAtestado,omitempty"`
		Category         string `json:"categoria,omitempty"`
		Gender           string `json:"genero,omitempty"`
		MedicalClearance string `json:"parq,omitempty"`
		HasCertificate   bool   `json:"atestado"`
	}

	// Exclusion removes a student from active rosters as of Date.
	// Empty class fields act as wildcards when matching.
	Exclusion struct {
		ID          string `json:"id,omitempty"`
		StudentName string `json:"nome"`
		ClassCode   string `json:"turmaCodigo,omitempty"`
		ClassLabel  string `json:"turmaLabel,omitempty"`
		Schedule    string `json:"horario,omitempty"`
		Teacher     string `json:"professor,omitempty"`
		Date        string `json:"dataExclusao"`
		Reason      string `json:"motivo_exclusao,omitempty"`
	}

	CalendarEvent struct {
		Date        string `json:"date"`
		Type        string `json:"type"`
		AllDay      bool   `json:"allDay,omitempty"`
		Description string `json:"description,omitempty"`
	}

	// CalendarSettings bounds the academic year and lists non-class days.
	CalendarSettings struct {
		AcademicYearStart string          `json:"academicYearStart"`
		AcademicYearEnd   string          `json:"academicYearEnd,omitempty"`
		WinterBreakStart  string          `json:"winterBreakStart,omitempty"`
		WinterBreakEnd    string          `json:"winterBreakEnd,omitempty"`
		ClosedDates       []string        `json:"closedDates"`
		Events            []CalendarEvent `json:"events,omitempty"`
	}
)

// Calendar event types.
const (
	EventHoliday = "feriado"
	EventBridge  = "ponte"
	EventMeeting = "reuniao"
	EventOther   = "evento"
)

var (
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidDate    = errors.New("invalid date")
	ErrMissingClass   = errors.New("missing class identifier")
	ErrMissingStudent = errors.New("missing student name")
	ErrEmptyRecords   = errors.New("snapshot has no records")
	ErrNotFound       = errors.New("not found")
)

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// DaysBetween returns the whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func (s Snapshot) Validate() error {
	if _, err := time.Parse(MonthLayout, s.Month); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, s.Month)
	}
	if strings.TrimSpace(s.ClassCode) == "" && strings.TrimSpace(s.ClassLabel) == "" {
		return ErrMissingClass
	}
	if len(s.Records) == 0 {
		return ErrEmptyRecords
	}
	for i, r := range s.Records {
		if strings.TrimSpace(r.StudentName) == "" {
			return fmt.Errorf("record %d: %w", i, ErrMissingStudent)
		}
	}
	return nil
}

// MonthMismatches lists attendance dates that do not belong to the
// snapshot's month. The rule is soft: callers log and keep the snapshot.
func (s Snapshot) MonthMismatches() []string {
	var out []string
	prefix := s.Month + "-"
	for _, r := range s.Records {
		for date := range r.Attendance {
			if !strings.HasPrefix(date, prefix) {
				out = append(out, date)
			}
		}
	}
	return out
}

// Identifier returns the label when present, otherwise the code.
func (s Snapshot) Identifier() string {
	if strings.TrimSpace(s.ClassLabel) != "" {
		return s.ClassLabel
	}
	return s.ClassCode
}

func (e Exclusion) Validate() error {
	if strings.TrimSpace(e.StudentName) == "" {
		return ErrMissingStudent
	}
	if _, err := ParseExclusionDate(e.Date); err != nil {
		return err
	}
	return nil
}

// ParseExclusionDate reads the DD/MM/YYYY exclusion convention and
// tolerates ISO dates.
func ParseExclusionDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(ExclusionDateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: exclusion date %q", ErrInvalidDate, s)
}

func (c CalendarSettings) Validate() error {
	for name, v := range map[string]string{
		"academic year start": c.AcademicYearStart,
		"academic year end":   c.AcademicYearEnd,
		"winter break start":  c.WinterBreakStart,
		"winter break end":    c.WinterBreakEnd,
	} {
		if v == "" {
			continue
		}
		if _, err := ParseDate(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for _, d := range c.ClosedDates {
		if _, err := ParseDate(d); err != nil {
			return fmt.Errorf("closed date: %w", err)
		}
	}
	for _, ev := range c.Events {
		if _, err := ParseDate(ev.Date); err != nil {
			return fmt.Errorf("event %q: %w", ev.Description, err)
		}
	}
	return nil
}

package core

import "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"

// Status is a recognized attendance outcome.
type Status int

const (
	StatusUnknown Status = iota
	StatusPresent
	StatusAbsent
	StatusExcused
)

// ParseStatus maps a raw grid token to a Status. Unrecognized tokens return
// false and are dropped by callers.
func ParseStatus(raw string) (Status, bool) {
	switch normalize.Fold(raw) {
	case "presente", "c":
		return StatusPresent, true
	case "falta", "f":
		return StatusAbsent, true
	case "justificado", "justificada", "j":
		return StatusExcused, true
	}
	return StatusUnknown, false
}

// Code is the single-letter grid code: c, f or j.
func (s Status) Code() string {
	switch s {
	case StatusPresent:
		return "c"
	case StatusAbsent:
		return "f"
	case StatusExcused:
		return "j"
	}
	return ""
}

// Attended reports whether the status counts toward frequency.
func (s Status) Attended() bool {
	return s == StatusPresent || s == StatusExcused
}

func (s Status) String() string {
	switch s {
	case StatusPresent:
		return "presente"
	case StatusAbsent:
		return "falta"
	case StatusExcused:
		return "justificado"
	}
	return "desconhecido"
}

// Tally counts attendance outcomes.
type Tally struct {
	Present int `json:"presencas"`
	Absent  int `json:"faltas"`
	Excused int `json:"justificativas"`
}

func (t *Tally) Add(s Status) {
	switch s {
	case StatusPresent:
		t.Present++
	case StatusAbsent:
		t.Absent++
	case StatusExcused:
		t.Excused++
	}
}

func (t Tally) Total() int {
	return t.Present + t.Absent + t.Excused
}

// Frequency is 100*(present+excused)/total rounded to one decimal, 0 when
// nothing was recorded.
func (t Tally) Frequency() float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	return Round1(100 * float64(t.Present+t.Excused) / float64(total))
}

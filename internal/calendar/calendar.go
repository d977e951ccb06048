// Package calendar decides which dates are real class days for the two
// fixed weekly patterns of the school.
package calendar

import (
	"strings"
	"time"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
)

// Group is a recognized weekly class pattern.
type Group string

const (
	GroupTQ    Group = "TQ"    // Tuesday and Thursday
	GroupQS    Group = "QS"    // Wednesday and Friday
	GroupOther Group = "OTHER" // irregular, never validated
)

var weekdays = map[Group][]time.Weekday{
	GroupTQ: {time.Tuesday, time.Thursday},
	GroupQS: {time.Wednesday, time.Friday},
}

// InferGroup classifies a class by its folded label and code.
func InferGroup(label, code string) Group {
	text := normalize.Fold(label + " " + code)
	switch {
	case strings.Contains(text, "terca") && strings.Contains(text, "quinta"),
		strings.Contains(text, "tq"):
		return GroupTQ
	case strings.Contains(text, "quarta") && strings.Contains(text, "sexta"),
		strings.Contains(text, "qs"):
		return GroupQS
	}
	return GroupOther
}

// Weekdays returns the meeting days of g, nil for GroupOther.
func (g Group) Weekdays() []time.Weekday {
	return weekdays[g]
}

// MeetsOn reports whether g meets on wd.
func (g Group) MeetsOn(wd time.Weekday) bool {
	for _, d := range weekdays[g] {
		if d == wd {
			return true
		}
	}
	return false
}

// Calendar is an immutable view over academic calendar settings.
type Calendar struct {
	start       time.Time
	end         time.Time
	winterStart time.Time
	winterEnd   time.Time
	closed      map[string]bool
}

// New builds a Calendar. Unparseable settings fields are ignored; a missing
// academic year start leaves the calendar unconfigured.
func New(s core.CalendarSettings) *Calendar {
	c := &Calendar{closed: make(map[string]bool)}
	c.start = parseOptional(s.AcademicYearStart)
	c.end = parseOptional(s.AcademicYearEnd)
	c.winterStart = parseOptional(s.WinterBreakStart)
	c.winterEnd = parseOptional(s.WinterBreakEnd)

	for _, d := range s.ClosedDates {
		if t := parseOptional(d); !t.IsZero() {
			c.closed[t.Format(core.DateLayout)] = true
		}
	}
	for _, ev := range s.Events {
		t := parseOptional(ev.Date)
		if t.IsZero() {
			continue
		}
		switch normalize.Fold(ev.Type) {
		case core.EventHoliday, core.EventBridge:
			c.closed[t.Format(core.DateLayout)] = true
		case core.EventMeeting:
			if ev.AllDay {
				c.closed[t.Format(core.DateLayout)] = true
			}
		}
	}
	return c
}

func parseOptional(s string) time.Time {
	if strings.TrimSpace(s) == "" {
		return time.Time{}
	}
	t, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Configured reports whether an academic year start is known.
func (c *Calendar) Configured() bool {
	return !c.start.IsZero()
}

// Closed reports whether no class is held on day regardless of group.
func (c *Calendar) Closed(day time.Time) bool {
	if c.closed[day.Format(core.DateLayout)] {
		return true
	}
	if !c.end.IsZero() && day.After(c.end) {
		return true
	}
	if !c.winterStart.IsZero() && !c.winterEnd.IsZero() &&
		!day.Before(c.winterStart) && !day.After(c.winterEnd) {
		return true
	}
	return false
}

// AllowedDays lists every class day of g from the academic year start
// through the given date inclusive. It is empty for GroupOther and for an
// unconfigured calendar.
func (c *Calendar) AllowedDays(g Group, through time.Time) map[string]bool {
	out := make(map[string]bool)
	if !c.Configured() || len(g.Weekdays()) == 0 {
		return out
	}
	through = time.Date(through.Year(), through.Month(), through.Day(), 0, 0, 0, 0, time.UTC)
	for day := c.start; !day.After(through); day = day.AddDate(0, 0, 1) {
		if g.MeetsOn(day.Weekday()) && !c.Closed(day) {
			out[day.Format(core.DateLayout)] = true
		}
	}
	return out
}

// Allows reports whether date is a valid class day for g. OTHER accepts
// every date; an unconfigured calendar only checks the weekday.
func (c *Calendar) Allows(g Group, date string) bool {
	if g == GroupOther {
		return true
	}
	day, err := core.ParseDate(date)
	if err != nil {
		return false
	}
	if !g.MeetsOn(day.Weekday()) {
		return false
	}
	if !c.Configured() {
		return true
	}
	return !day.Before(c.start) && !c.Closed(day)
}

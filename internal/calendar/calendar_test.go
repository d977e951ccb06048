package calendar

import (
	"testing"
	"time"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

func TestInferGroup(t *testing.T) {
	cases := []struct {
		label, code string
		want        Group
	}{
		{"Terça e Quinta 08h", "", GroupTQ},
		{"", "TQ1", GroupTQ},
		{"Quarta e Sexta", "", GroupQS},
		{"Natação adulto", "QS2", GroupQS},
		{"Sábado", "SAB", GroupOther},
		{"Terça", "", GroupOther},
	}
	for _, tc := range cases {
		if got := InferGroup(tc.label, tc.code); got != tc.want {
			t.Fatalf("InferGroup(%q, %q) = %s, want %s", tc.label, tc.code, got, tc.want)
		}
	}
}

func date(s string) time.Time {
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAllowedDaysWeekdaysAndClosed(t *testing.T) {
	cal := New(core.CalendarSettings{
		AcademicYearStart: "2026-02-02",
		ClosedDates:       []string{"2026-02-17"},
	})
	tq := cal.AllowedDays(GroupTQ, date("2026-02-28"))
	for d := range tq {
		wd := date(d).Weekday()
		if wd != time.Tuesday && wd != time.Thursday {
			t.Fatalf("TQ allowed day %s falls on %s", d, wd)
		}
	}
	if tq["2026-02-17"] {
		t.Fatalf("closed date 2026-02-17 must not be allowed")
	}
	if !tq["2026-02-03"] || !tq["2026-02-26"] {
		t.Fatalf("expected 2026-02-03 and 2026-02-26 allowed, got %v", tq)
	}
	// Tue/Thu in Feb 2026 from the 2nd: 3,5,10,12,17,19,24,26 minus the 17th.
	if len(tq) != 7 {
		t.Fatalf("expected 7 TQ days, got %d", len(tq))
	}

	qs := cal.AllowedDays(GroupQS, date("2026-02-06"))
	if len(qs) != 2 || !qs["2026-02-04"] || !qs["2026-02-06"] {
		t.Fatalf("unexpected QS days %v", qs)
	}
}

func TestAllowedDaysEvents(t *testing.T) {
	cal := New(core.CalendarSettings{
		AcademicYearStart: "2026-02-02",
		AcademicYearEnd:   "2026-12-10",
		WinterBreakStart:  "2026-07-13",
		WinterBreakEnd:    "2026-07-24",
		Events: []core.CalendarEvent{
			{Date: "2026-04-21", Type: "feriado"},
			{Date: "2026-06-05", Type: "ponte"},
			{Date: "2026-03-10", Type: "reuniao", AllDay: true},
			{Date: "2026-03-12", Type: "reuniao"},
			{Date: "2026-03-17", Type: "evento"},
		},
	})
	tq := cal.AllowedDays(GroupTQ, date("2026-12-31"))
	for _, closed := range []string{"2026-04-21", "2026-03-10", "2026-07-14", "2026-12-15"} {
		if tq[closed] {
			t.Fatalf("%s should be closed", closed)
		}
	}
	for _, open := range []string{"2026-03-12", "2026-03-17", "2026-12-10"} {
		if !tq[open] {
			t.Fatalf("%s should be open", open)
		}
	}
	if cal.AllowedDays(GroupQS, date("2026-12-31"))["2026-06-05"] {
		t.Fatalf("bridge day should be closed")
	}
}

func TestAllowedDaysNeutralResults(t *testing.T) {
	unconfigured := New(core.CalendarSettings{ClosedDates: []string{"2026-02-17"}})
	if unconfigured.Configured() {
		t.Fatalf("calendar without start must be unconfigured")
	}
	if got := unconfigured.AllowedDays(GroupTQ, date("2026-03-01")); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
	cal := New(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	if got := cal.AllowedDays(GroupOther, date("2026-03-01")); len(got) != 0 {
		t.Fatalf("OTHER has no allowed-day set, got %v", got)
	}
	if got := cal.AllowedDays(GroupTQ, date("2026-01-01")); len(got) != 0 {
		t.Fatalf("through before start must be empty, got %v", got)
	}
}

func TestAllows(t *testing.T) {
	cal := New(core.CalendarSettings{
		AcademicYearStart: "2026-02-02",
		ClosedDates:       []string{"2026-02-17"},
	})
	unconfigured := New(core.CalendarSettings{})

	tests := []struct {
		name string
		cal  *Calendar
		g    Group
		date string
		want bool
	}{
		{"tuesday open", cal, GroupTQ, "2026-02-10", true},
		{"closed tuesday", cal, GroupTQ, "2026-02-17", false},
		{"wrong weekday", cal, GroupTQ, "2026-02-11", false},
		{"before start", cal, GroupQS, "2026-01-30", false},
		{"other always", cal, GroupOther, "2026-01-01", true},
		{"garbage date", cal, GroupTQ, "10/02", false},
		{"unconfigured weekday only", unconfigured, GroupQS, "2026-02-17", false},
		{"unconfigured wednesday", unconfigured, GroupQS, "2026-02-18", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cal.Allows(tt.g, tt.date); got != tt.want {
				t.Errorf("Allows(%s, %s) = %v, want %v", tt.g, tt.date, got, tt.want)
			}
		})
	}
}

package stats

import (
	"testing"
	"time"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/calendar"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/overrides"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/reconcile"
)

var (
	tqClass = core.ClassRecord{ID: "c1", Code: "T1", Label: "Terça e Quinta", Schedule: "0800", Teacher: "Ana", Level: "Nível 1"}
	qsClass = core.ClassRecord{ID: "c2", Code: "Q1", Label: "Quarta e Sexta", Schedule: "0900", Teacher: "Bia", Level: "Nível 2"}
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
}

func aggregator(settings core.CalendarSettings) Aggregator {
	return Aggregator{Calendar: calendar.New(settings), Overrides: overrides.Default(), Now: fixedNow}
}

func snapOf(c core.ClassRecord, savedAt, name string, attendance map[string]string) core.Snapshot {
	return core.Snapshot{
		ClassCode:  c.Code,
		ClassLabel: c.Label,
		Schedule:   c.Schedule,
		Teacher:    c.Teacher,
		Month:      "2026-02",
		SavedAt:    savedAt,
		Records:    []core.AttendanceRecord{{StudentName: name, Attendance: attendance}},
	}
}

func only(t *testing.T, got []core.StudentStatistics) core.StudentStatistics {
	t.Helper()
	if len(got) != 1 {
		t.Fatalf("expected 1 student, got %d: %+v", len(got), got)
	}
	return got[0]
}

func TestRetentionUntilExclusion(t *testing.T) {
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	got := only(t, agg.Compute(Input{
		Classes:    []core.ClassRecord{tqClass},
		Snapshots:  []core.Snapshot{snapOf(tqClass, "2026-02-03T10:00:00", "Carla", map[string]string{"2026-02-03": "presente"})},
		Exclusions: []core.Exclusion{{StudentName: "carla", Date: "10/03/2026"}},
	}))
	if got.RetentionDays != 35 {
		t.Fatalf("expected 35 retention days, got %d", got.RetentionDays)
	}
	if got.FirstPresence == nil || *got.FirstPresence != "2026-02-03" {
		t.Fatalf("unexpected first presence %v", got.FirstPresence)
	}
	if got.ExclusionDate == nil || *got.ExclusionDate != "2026-03-10" {
		t.Fatalf("unexpected exclusion date %v", got.ExclusionDate)
	}
	if len(got.Levels) != 1 || got.Levels[0].Level != "Nível 1" || got.Levels[0].Days < 1 {
		t.Fatalf("unexpected levels %+v", got.Levels)
	}
	if got.CurrentLevel == nil || *got.CurrentLevel != "Nível 1" {
		t.Fatalf("unexpected current level %v", got.CurrentLevel)
	}
}

func TestRetentionUntilToday(t *testing.T) {
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	got := only(t, agg.Compute(Input{
		Classes:   []core.ClassRecord{tqClass},
		Snapshots: []core.Snapshot{snapOf(tqClass, "2026-10-01T10:00:00", "Carla", map[string]string{"2026-10-13": "c"})},
	}))
	if got.RetentionDays != 6 {
		t.Fatalf("expected 6 days to today, got %d", got.RetentionDays)
	}
}

func TestRetentionClampedToZero(t *testing.T) {
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	got := only(t, agg.Compute(Input{
		Classes:    []core.ClassRecord{tqClass},
		Snapshots:  []core.Snapshot{snapOf(tqClass, "2026-02-28T10:00:00", "Carla", map[string]string{"2026-02-26": "c"})},
		Exclusions: []core.Exclusion{{StudentName: "Carla", Date: "01/02/2026"}},
	}))
	if got.RetentionDays != 0 {
		t.Fatalf("expected clamp to 0, got %d", got.RetentionDays)
	}

	absentOnly := only(t, agg.Compute(Input{
		Classes:   []core.ClassRecord{tqClass},
		Snapshots: []core.Snapshot{snapOf(tqClass, "2026-02-28T10:00:00", "Davi", map[string]string{"2026-02-26": "f"})},
	}))
	if absentOnly.RetentionDays != 0 || absentOnly.FirstPresence != nil {
		t.Fatalf("student without presence must have no retention: %+v", absentOnly)
	}
}

func TestClosedDateDropped(t *testing.T) {
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02", ClosedDates: []string{"2026-02-17"}})
	got := only(t, agg.Compute(Input{
		Classes: []core.ClassRecord{tqClass},
		Snapshots: []core.Snapshot{snapOf(tqClass, "2026-02-28T10:00:00", "Carla", map[string]string{
			"2026-02-17": "c",
			"2026-02-19": "f",
		})},
	}))
	if got.FirstPresence != nil {
		t.Fatalf("closed-day presence must not count, got %v", *got.FirstPresence)
	}
	lv := got.Levels[0]
	if lv.Present != 0 || lv.Absent != 1 || *lv.FirstDate != "2026-02-19" {
		t.Fatalf("unexpected level %+v", lv)
	}
}

func TestClosedDateKeptInReportDroppedInStats(t *testing.T) {
	settings := core.CalendarSettings{AcademicYearStart: "2026-02-02", ClosedDates: []string{"2026-02-17"}}
	snap := snapOf(tqClass, "2026-02-28T10:00:00", "Carla", map[string]string{"2026-02-17": "c"})

	reports := reconcile.BuildClassReports(reconcile.Input{
		Month:     "2026-02",
		Classes:   []core.ClassRecord{tqClass},
		Snapshots: []core.Snapshot{snap},
	})
	if len(reports) != 1 || len(reports[0].Students) != 1 {
		t.Fatalf("unexpected reports %+v", reports)
	}
	if got := reports[0].Students[0].History["17"]; got != "c" {
		t.Fatalf("report must keep the entered closed day, got %q in %v", got, reports[0].Students[0].History)
	}

	got := only(t, aggregator(settings).Compute(Input{
		Classes:   []core.ClassRecord{tqClass},
		Snapshots: []core.Snapshot{snap},
	}))
	if got.FirstPresence != nil || got.LastPresence != nil {
		t.Fatalf("closed day must not count in statistics: %+v", got)
	}
	for _, lv := range got.Levels {
		if lv.Present != 0 || lv.Absent != 0 || lv.Excused != 0 {
			t.Fatalf("closed day leaked into level %+v", lv)
		}
	}
}

func TestScheduleDayFiltering(t *testing.T) {
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	got := agg.Compute(Input{
		Classes: []core.ClassRecord{tqClass, qsClass},
		Snapshots: []core.Snapshot{
			snapOf(tqClass, "2026-02-28T10:00:00", "Carla", map[string]string{
				"2026-02-03": "c", // Tue
				"2026-02-04": "c", // Wed
				"2026-02-09": "c", // Mon
				"2026-02-12": "c", // Thu
			}),
			snapOf(qsClass, "2026-02-28T10:00:00", "Davi", map[string]string{
				"2026-02-04": "c", // Wed
				"2026-02-05": "c", // Thu
				"2026-02-06": "c", // Fri
			}),
		},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 students, got %d", len(got))
	}
	carla, davi := got[0], got[1]
	if carla.Levels[0].Present != 2 || *carla.LastPresence != "2026-02-12" {
		t.Fatalf("TQ kept days outside Tue/Thu: %+v", carla.Levels[0])
	}
	if davi.Levels[0].Present != 2 || *davi.LastPresence != "2026-02-06" {
		t.Fatalf("QS kept days outside Wed/Fri: %+v", davi.Levels[0])
	}
}

func TestUnconfiguredCalendarFallsBackToWeekdays(t *testing.T) {
	agg := aggregator(core.CalendarSettings{})
	got := only(t, agg.Compute(Input{
		Classes: []core.ClassRecord{tqClass},
		Snapshots: []core.Snapshot{snapOf(tqClass, "2026-02-28T10:00:00", "Carla", map[string]string{
			"2026-02-03": "c",
			"2026-02-04": "c",
		})},
	}))
	if got.Levels[0].Present != 1 {
		t.Fatalf("expected only the Tuesday, got %+v", got.Levels[0])
	}
}

func TestIrregularClassNotValidated(t *testing.T) {
	other := core.ClassRecord{ID: "c3", Code: "SAB", Label: "Sábado", Schedule: "1000", Teacher: "Caio", Level: "Adulto"}
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	got := only(t, agg.Compute(Input{
		Classes:   []core.ClassRecord{other},
		Snapshots: []core.Snapshot{snapOf(other, "2026-02-28T10:00:00", "Eva", map[string]string{"2026-02-07": "c", "2026-02-14": "c"})},
	}))
	if got.Levels[0].Present != 2 {
		t.Fatalf("irregular class events must be kept, got %+v", got.Levels[0])
	}
}

func TestLastWriteWinsAcrossLabelVariants(t *testing.T) {
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	older := snapOf(tqClass, "2026-02-10T08:00:00", "joão", map[string]string{"2026-02-10": "falta"})
	newer := snapOf(tqClass, "2026-02-10T09:00:00", "JOAO", map[string]string{"2026-02-10": "presente"})
	newer.ClassCode, newer.ClassLabel = "", "terca/quinta TQ"

	for _, order := range [][]core.Snapshot{{older, newer}, {newer, older}} {
		got := only(t, agg.Compute(Input{Classes: []core.ClassRecord{tqClass}, Snapshots: order}))
		total := 0
		for _, lv := range got.Levels {
			total += lv.Present + lv.Absent + lv.Excused
		}
		if total != 1 {
			t.Fatalf("expected a single event for the date, got %d", total)
		}
		if got.FirstPresence == nil || *got.FirstPresence != "2026-02-10" {
			t.Fatalf("newest submission must win, got %+v", got)
		}
	}
}

func TestLevelTransferSegments(t *testing.T) {
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	feb := snapOf(tqClass, "2026-02-28T10:00:00", "Carla", map[string]string{"2026-02-03": "c", "2026-02-10": "f", "2026-02-12": "j"})
	mar := snapOf(qsClass, "2026-03-31T10:00:00", "Carla", map[string]string{"2026-03-04": "c", "2026-03-06": "c"})
	mar.Month = "2026-03"

	got := only(t, agg.Compute(Input{Classes: []core.ClassRecord{tqClass, qsClass}, Snapshots: []core.Snapshot{mar, feb}}))
	if len(got.Levels) != 2 {
		t.Fatalf("expected two levels, got %+v", got.Levels)
	}
	n1, n2 := got.Levels[0], got.Levels[1]
	if n1.Level != "Nível 1" || n2.Level != "Nível 2" {
		t.Fatalf("levels not in chronological order: %q, %q", n1.Level, n2.Level)
	}
	if n1.Days != 10 || n1.Frequency != 66.7 {
		t.Fatalf("unexpected first segment %+v", n1)
	}
	if n2.Days != 3 || n2.Frequency != 100 {
		t.Fatalf("unexpected second segment %+v", n2)
	}
	if *got.CurrentLevel != "Nível 2" {
		t.Fatalf("expected current level Nível 2, got %s", *got.CurrentLevel)
	}
	for _, lv := range got.Levels {
		if lv.Frequency < 0 || lv.Frequency > 100 {
			t.Fatalf("frequency out of bounds %+v", lv)
		}
		if *lv.FirstDate > *lv.LastDate {
			t.Fatalf("malformed segment %+v", lv)
		}
	}
}

func TestNoRecognizedLevel(t *testing.T) {
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	orphan := core.Snapshot{ClassLabel: "Turma avulsa", Month: "2026-02", SavedAt: "2026-02-28T10:00:00",
		Records: []core.AttendanceRecord{{StudentName: "Eva", Attendance: map[string]string{"2026-02-07": "c"}}}}
	got := only(t, agg.Compute(Input{Snapshots: []core.Snapshot{orphan}}))
	if got.CurrentLevel != nil {
		t.Fatalf("expected no current level, got %s", *got.CurrentLevel)
	}
	if len(got.Levels) != 1 || got.Levels[0].Level != NoLevel {
		t.Fatalf("expected the no-level bucket, got %+v", got.Levels)
	}
}

func TestRosterStudentsListedAndSorted(t *testing.T) {
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	got := agg.Compute(Input{
		Classes:   []core.ClassRecord{tqClass},
		Students:  []core.StudentRecord{{ID: "s9", ClassID: "c1", Name: "zélia"}, {ID: "s1", ClassID: "c1", Name: "ÁLVARO DA COSTA"}},
		Snapshots: []core.Snapshot{snapOf(tqClass, "2026-02-28T10:00:00", "alvaro da costa", map[string]string{"2026-02-03": "c"})},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 students, got %d", len(got))
	}
	if got[0].Name != "Álvaro da Costa" || got[0].ID != "s1" || got[0].RetentionDays == 0 {
		t.Fatalf("unexpected first student %+v", got[0])
	}
	if got[1].Name != "Zélia" || len(got[1].Levels) != 0 {
		t.Fatalf("unexpected second student %+v", got[1])
	}
}

// Hardcoded one-off correction: see overrides.Known.
func TestHardcodedTransferPatchApplied(t *testing.T) {
	name := "Matheus Henrique de Souza Marciano"
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02", ClosedDates: []string{"2026-02-11"}})
	prev := snapOf(qsClass, "2026-02-28T10:00:00", name, map[string]string{
		"2026-02-04": "f", "2026-02-11": "f", "2026-02-18": "f",
	})
	cur := snapOf(tqClass, "2026-02-28T10:00:00", name, map[string]string{
		"2026-02-19": "f", "2026-02-24": "f", "2026-02-26": "f",
	})
	prev.Source, cur.Source = "jefferson", "jefferson"

	got := only(t, agg.Compute(Input{Classes: []core.ClassRecord{tqClass, qsClass}, Snapshots: []core.Snapshot{prev, cur}}))
	levels := map[string]core.LevelStats{}
	for _, lv := range got.Levels {
		levels[lv.Level] = lv
	}
	old := levels["Nível 2"]
	if old.Present != 2 || old.Excused != 1 || old.Absent != 0 {
		t.Fatalf("previous class must follow the pinned outcomes, got %+v", old)
	}
	now := levels["Nível 1"]
	if now.Present != 2 || now.Absent != 1 {
		t.Fatalf("current class must follow the pinned outcomes, got %+v", now)
	}

	prev.Source, cur.Source = "daniela", "daniela"
	other := only(t, agg.Compute(Input{Classes: []core.ClassRecord{tqClass, qsClass}, Snapshots: []core.Snapshot{prev, cur}}))
	if other.FirstPresence != nil {
		t.Fatalf("patch must not apply to another source, got %+v", other)
	}
}

func TestTransferPatchKeepsSegments(t *testing.T) {
	name := "Matheus Henrique de Souza Marciano"
	agg := aggregator(core.CalendarSettings{AcademicYearStart: "2026-02-02"})
	// Hand-entered old grid that also carries the new class days.
	prev := snapOf(qsClass, "2026-02-28T10:00:00", name, map[string]string{
		"2026-02-04": "f", "2026-02-11": "f", "2026-02-18": "f",
		"2026-02-19": "f", "2026-02-24": "f",
	})
	prev.Source = "jefferson"

	got := only(t, agg.Compute(Input{Classes: []core.ClassRecord{tqClass, qsClass}, Snapshots: []core.Snapshot{prev}}))
	if len(got.Levels) != 1 || got.Levels[0].Level != "Nível 2" {
		t.Fatalf("unexpected levels %+v", got.Levels)
	}
	lv := got.Levels[0]
	if lv.Present != 2 || lv.Excused != 1 || lv.Absent != 0 {
		t.Fatalf("new class days must not be pinned on the old grid, got %+v", lv)
	}
	if got.LastPresence == nil || *got.LastPresence != "2026-02-18" {
		t.Fatalf("unexpected last presence %v", got.LastPresence)
	}
}

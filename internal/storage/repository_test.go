package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "chamada.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSnapshotsAppendOnlyOrder(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	months := []string{"2026-02", "2026-03", "2026-02"}
	for i, m := range months {
		err := repo.Append(ctx, core.Snapshot{
			ClassCode: "T1",
			Month:     m,
			SavedAt:   m + "-0" + string(rune('1'+i)) + "T10:00:00",
			Source:    "jefferson",
			Records: []core.AttendanceRecord{{
				StudentName: "Conceição Ávila",
				Attendance:  map[string]string{m + "-03": "presente"},
			}},
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	all, err := repo.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("list all: %v (%d)", err, len(all))
	}
	feb, err := repo.List(ctx, "2026-02")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(feb) != 2 || feb[0].SavedAt != "2026-02-01T10:00:00" || feb[1].SavedAt != "2026-02-03T10:00:00" {
		t.Fatalf("unexpected order %+v", feb)
	}
	if feb[0].Records[0].StudentName != "Conceição Ávila" || feb[0].Source != "jefferson" {
		t.Fatalf("fields lost: %+v", feb[0])
	}
}

func TestRosterUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	c, err := repo.UpsertClass(ctx, core.ClassRecord{Code: "T1", Label: "Terça e Quinta", Schedule: "08:00", Level: "Nível 1"})
	if err != nil {
		t.Fatalf("upsert class: %v", err)
	}
	again, err := repo.UpsertClass(ctx, core.ClassRecord{Code: "t1", Label: "Terça e Quinta", Schedule: "0800", Level: "Nível 2"})
	if err != nil {
		t.Fatalf("upsert class again: %v", err)
	}
	if again.ID != c.ID {
		t.Fatalf("expected same id, got %s and %s", c.ID, again.ID)
	}
	classes, _ := repo.ListClasses(ctx)
	if len(classes) != 1 || classes[0].Level != "Nível 2" {
		t.Fatalf("unexpected classes %+v", classes)
	}

	s1, err := repo.UpsertStudent(ctx, core.StudentRecord{ClassID: c.ID, Name: "João"})
	if err != nil {
		t.Fatalf("upsert student: %v", err)
	}
	s2, _ := repo.UpsertStudent(ctx, core.StudentRecord{ClassID: c.ID, Name: "joao", HasCertificate: true})
	if s1.ID != s2.ID {
		t.Fatalf("expected same student id")
	}
	students, _ := repo.ListStudents(ctx)
	if len(students) != 1 || !students[0].HasCertificate {
		t.Fatalf("unexpected students %+v", students)
	}
}

func TestExclusions(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.AddExclusion(ctx, core.Exclusion{StudentName: "Carla", ClassLabel: "TQ", Date: "10/03/2026", Reason: "mudou"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	list, _ := repo.ListExclusions(ctx)
	if len(list) != 1 || list[0].Date != "10/03/2026" {
		t.Fatalf("unexpected %+v", list)
	}
	if err := repo.DeleteExclusion(ctx, list[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteExclusion(ctx, list[0].ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCalendarReplace(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	empty, err := repo.LoadCalendar(ctx)
	if err != nil || empty.AcademicYearStart != "" {
		t.Fatalf("expected empty calendar, got %+v (%v)", empty, err)
	}
	first := core.CalendarSettings{
		AcademicYearStart: "2026-02-02",
		ClosedDates:       []string{"2026-02-17", "2026-02-16"},
		Events:            []core.CalendarEvent{{Date: "2026-04-21", Type: "feriado", Description: "Tiradentes"}},
	}
	if err := repo.SaveCalendar(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := core.CalendarSettings{AcademicYearStart: "2026-02-03", ClosedDates: []string{"2026-03-01"}}
	if err := repo.SaveCalendar(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.LoadCalendar(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AcademicYearStart != "2026-02-03" || len(got.ClosedDates) != 1 || len(got.Events) != 0 {
		t.Fatalf("calendar not replaced: %+v", got)
	}
}

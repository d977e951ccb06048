package memory

import (
	"context"
	"testing"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

func TestStore_ReplacesMonth(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.PublishClassReports(ctx, "2026-03", []core.ClassReport{{Label: "A"}, {Label: "B"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := s.PublishClassReports(ctx, "2026-03", []core.ClassReport{{Label: "C"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := s.PublishClassReports(ctx, "2026-02", nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := s.Reports("2026-03")
	if len(got) != 1 || got[0].Label != "C" {
		t.Errorf("expected the last publication to win, got %+v", got)
	}
	if m := s.Months(); len(m) != 2 || m[0] != "2026-02" {
		t.Errorf("Months() = %v", m)
	}
	if s.Publishes() != 3 {
		t.Errorf("Publishes() = %d, want 3", s.Publishes())
	}
}

func TestStore_Statistics(t *testing.T) {
	s := New()
	in := []core.StudentStatistics{{Name: "Ana"}}
	if err := s.PublishStatistics(context.Background(), in); err != nil {
		t.Fatalf("publish: %v", err)
	}
	in[0].Name = "changed"
	if got := s.Statistics(); len(got) != 1 || got[0].Name != "Ana" {
		t.Errorf("Statistics() = %+v", got)
	}
}

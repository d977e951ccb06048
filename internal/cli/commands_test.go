package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/xuri/excelize/v2"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/config"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/overrides"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/sheets/memory"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/store/file"
)

func newToolbox(t *testing.T) (Toolbox, *bytes.Buffer, *memory.Store) {
	t.Helper()
	st, err := file.New(t.TempDir())
	if err != nil {
		t.Fatalf("file.New: %v", err)
	}
	var out bytes.Buffer
	pub := memory.New()
	return Toolbox{
		Store:     st,
		Publisher: pub,
		Location:  time.UTC,
		Overrides: overrides.Table{},
		Stdout:    &out,
		Now:       func() time.Time { return time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC) },
	}, &out, pub
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const grid = "Turma:Nível 1\nHorário:09:00\nProfessor:Jefferson\nAlunos;3;5\nAna;c;f\nBruno;j;c\n"

func TestRunUsage(t *testing.T) {
	tb, out, _ := newToolbox(t)
	if err := tb.Run(context.Background(), nil); !errors.Is(err, ErrUsage) {
		t.Fatalf("no args: %v", err)
	}
	if err := tb.Run(context.Background(), []string{"frobnicate"}); !errors.Is(err, ErrUsage) {
		t.Fatalf("unknown command: %v", err)
	}
	if !strings.Contains(out.String(), "usage: chamada-import") {
		t.Errorf("usage not printed: %q", out.String())
	}
	if err := tb.Run(context.Background(), []string{"grid", "x.csv"}); !errors.Is(err, ErrUsage) {
		t.Errorf("grid without month: %v", err)
	}
}

func TestGridThenReports(t *testing.T) {
	tb, out, _ := newToolbox(t)
	ctx := context.Background()
	path := writeFile(t, "chamada.csv", grid)

	if err := tb.Run(ctx, []string{"grid", "-month", "2026-03", "-source", "jefferson", "-utf8", path}); err != nil {
		t.Fatalf("grid: %v", err)
	}
	if !strings.Contains(out.String(), "1 snapshots imported") {
		t.Errorf("grid output = %q", out.String())
	}

	snaps, err := tb.Store.List(ctx, "2026-03")
	if err != nil || len(snaps) != 1 || snaps[0].Source != "jefferson" {
		t.Fatalf("stored snapshots = %+v (%v)", snaps, err)
	}

	out.Reset()
	if err := tb.Run(ctx, []string{"statistics"}); err != nil {
		t.Fatalf("statistics: %v", err)
	}
	var stats []core.StudentStatistics
	if err := json.Unmarshal(out.Bytes(), &stats); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if len(stats) != 2 {
		t.Errorf("statistics = %+v", stats)
	}
}

func TestReportsXLSXToFile(t *testing.T) {
	tb, _, _ := newToolbox(t)
	ctx := context.Background()
	if _, err := tb.Store.UpsertClass(ctx, core.ClassRecord{Code: "N1", Label: "Nível 1", Schedule: "0900", Teacher: "Jefferson"}); err != nil {
		t.Fatalf("UpsertClass: %v", err)
	}

	path := filepath.Join(t.TempDir(), "chamada.xlsx")
	if err := tb.Run(ctx, []string{"reports", "-format", "xlsx", "-o", path}); err != nil {
		t.Fatalf("reports: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) != 1 {
		t.Errorf("sheets = %v", f.GetSheetList())
	}

	if err := tb.Run(ctx, []string{"reports", "-format", "pdf"}); !errors.Is(err, ErrUsage) {
		t.Errorf("unknown format: %v", err)
	}
}

func TestPublish(t *testing.T) {
	tb, out, pub := newToolbox(t)
	ctx := context.Background()
	if err := tb.Run(ctx, []string{"grid", "-month", "2026-03", "-utf8", writeFile(t, "c.csv", grid)}); err != nil {
		t.Fatalf("grid: %v", err)
	}

	out.Reset()
	if err := tb.Run(ctx, []string{"publish", "-statistics"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if months := pub.Months(); len(months) != 1 || months[0] != "2026-03" {
		t.Errorf("published months = %v", months)
	}
	if len(pub.Statistics()) != 2 {
		t.Errorf("published statistics = %+v", pub.Statistics())
	}

	tb.Publisher = nil
	if err := tb.Run(ctx, []string{"publish"}); err == nil {
		t.Error("publish without publisher should fail")
	}
}

func TestRoster(t *testing.T) {
	tb, out, _ := newToolbox(t)
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range [][]any{{"Turma", "Horário", "Aluno"}, {"Nível 1", "09:00", "Ana"}, {"Nível 1", "09:00", "Bruno"}} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "alunos.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	if err := tb.Run(context.Background(), []string{"roster", path}); err != nil {
		t.Fatalf("roster: %v", err)
	}
	if !strings.Contains(out.String(), "1 turmas\t2 alunos") {
		t.Errorf("roster output = %q", out.String())
	}
}

func TestNewPublisherWithoutSheets(t *testing.T) {
	pub, err := NewPublisher(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	if _, ok := pub.(*memory.Store); !ok {
		t.Errorf("expected memory publisher, got %T", pub)
	}
}

func TestLocation(t *testing.T) {
	if loc := Location(&config.Config{Timezone: "America/Sao_Paulo"}); loc.String() != "America/Sao_Paulo" {
		t.Errorf("Location = %v", loc)
	}
	if loc := Location(&config.Config{Timezone: "Nowhere/Land"}); loc != time.UTC {
		t.Errorf("unknown zone should fall back to UTC, got %v", loc)
	}
}

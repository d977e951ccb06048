package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

func ptr(s string) *string { return &s }

func sampleReports() []core.ClassReport {
	return []core.ClassReport{
		{
			Label: "Nível 1 A", Schedule: "0900", Teacher: "Jefferson", Level: "1",
			Students: []core.StudentReport{
				{Name: "Ana", Present: 1, Absent: 1, Frequency: 50, History: map[string]string{"10": "f", "03": "c"}},
				{Name: "Bruno", Excused: 1, Frequency: 100, History: map[string]string{"05": "j"}, Notes: map[string]string{"2026-03-05": "atestado"}},
			},
		},
		{Label: "Nível 1 A", Schedule: "0900", Teacher: "Daniela"},
	}
}

func TestClassReportTable(t *testing.T) {
	rows := ClassReportTable("2026-03", sampleReports()[0])

	if rows[1][1] != "09:00" {
		t.Errorf("schedule = %v, want 09:00", rows[1][1])
	}
	header := rows[6]
	want := []any{"Aluno", "03", "05", "10", "Presenças"}
	for i, w := range want {
		if header[i] != w {
			t.Fatalf("header[%d] = %v, want %v", i, header[i], w)
		}
	}
	bruno := rows[8]
	if bruno[0] != "Bruno" || bruno[2] != "j" || bruno[1] != "" {
		t.Errorf("unexpected row %v", bruno)
	}
	if got := bruno[len(bruno)-1]; got != "2026-03-05: atestado" {
		t.Errorf("notes = %v", got)
	}
}

func TestStatisticsTable(t *testing.T) {
	stats := []core.StudentStatistics{
		{Name: "Ana", FirstPresence: ptr("2026-03-03"), LastPresence: ptr("2026-04-07"), RetentionDays: 35, CurrentLevel: ptr("2"),
			Levels: []core.LevelStats{{Level: "1", Days: 10}, {Level: "2", Days: 3}}},
		{Name: "Bruno"},
	}
	rows := StatisticsTable(stats)
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[1][6] != "1" || rows[2][6] != "2" || rows[2][0] != "Ana" {
		t.Errorf("one row per level expected: %v / %v", rows[1], rows[2])
	}
	if rows[3][0] != "Bruno" || rows[3][1] != "" {
		t.Errorf("student without levels: %v", rows[3])
	}
}

func TestSheetTitle(t *testing.T) {
	tests := []struct {
		in   core.ClassReport
		want string
	}{
		{core.ClassReport{Label: "Nível 1 A", Schedule: "0900"}, "Nível 1 A 09h00"},
		{core.ClassReport{Code: "N1/A"}, "N1-A"},
		{core.ClassReport{}, "Turma"},
		{core.ClassReport{Label: strings.Repeat("x", 40)}, strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		if got := SheetTitle(tt.in); got != tt.want {
			t.Errorf("SheetTitle(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassReportsXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := ClassReportsXLSX(&buf, "2026-03", sampleReports()); err != nil {
		t.Fatalf("ClassReportsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Nível 1 A 09h00" || sheets[1] != "Nível 1 A 09h00 (2)" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 9 || rows[7][0] != "Ana" || rows[7][1] != "c" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestClassReportsXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ClassReportsXLSX(&buf, "2026-03", nil); err != nil {
		t.Fatalf("ClassReportsXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()
	if v, _ := f.GetCellValue(f.GetSheetName(0), "A1"); !strings.Contains(v, "2026-03") {
		t.Errorf("A1 = %q", v)
	}
}

func TestStatisticsXLSX(t *testing.T) {
	var buf bytes.Buffer
	stats := []core.StudentStatistics{{Name: "Ana", RetentionDays: 12}}
	if err := StatisticsXLSX(&buf, stats); err != nil {
		t.Fatalf("StatisticsXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(StatisticsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Ana" || rows[1][4] != "12" {
		t.Errorf("unexpected rows %v", rows)
	}
}

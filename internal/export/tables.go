// Package export renders class reports and statistics as tables, shared by
// the XLSX writer and the Google Sheets publisher.
package export

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
)

const maxSheetName = 31

// ClassReportTable lays a class report out as rows: a short header block,
// then one line per student with a column for every recorded day.
func ClassReportTable(month string, r core.ClassReport) [][]any {
	days := reportDays(r)

	rows := [][]any{
		{"Turma", r.Label},
		{"Horário", normalize.ClockTime(r.Schedule)},
		{"Professor", r.Teacher},
		{"Nível", r.Level},
		{"Mês", month},
		{},
	}

	header := []any{"Aluno"}
	for _, d := range days {
		header = append(header, d)
	}
	header = append(header, "Presenças", "Faltas", "Justificativas", "Frequência (%)", "Anotações")
	rows = append(rows, header)

	for _, s := range r.Students {
		row := []any{s.Name}
		for _, d := range days {
			row = append(row, s.History[d])
		}
		row = append(row, s.Present, s.Absent, s.Excused, s.Frequency, notes(s.Notes))
		rows = append(rows, row)
	}
	return rows
}

// reportDays lists every day key present in any student history, in order.
func reportDays(r core.ClassReport) []string {
	seen := map[string]bool{}
	var days []string
	for _, s := range r.Students {
		for d := range s.History {
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
	}
	sort.Strings(days)
	return days
}

func notes(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+m[k])
	}
	return strings.Join(parts, "; ")
}

// StatisticsHeader is the column header of StatisticsTable.
var StatisticsHeader = []any{
	"Aluno", "Primeira presença", "Última presença", "Data de exclusão",
	"Permanência (dias)", "Nível atual", "Nível", "Início no nível",
	"Fim no nível", "Dias no nível", "Presenças", "Faltas",
	"Justificativas", "Frequência (%)",
}

// StatisticsTable flattens student statistics into one row per level; a
// student without levels still gets a single row.
func StatisticsTable(stats []core.StudentStatistics) [][]any {
	rows := [][]any{StatisticsHeader}
	for _, s := range stats {
		base := []any{
			s.Name, str(s.FirstPresence), str(s.LastPresence), str(s.ExclusionDate),
			s.RetentionDays, str(s.CurrentLevel),
		}
		if len(s.Levels) == 0 {
			rows = append(rows, append(base, "", "", "", 0, 0, 0, 0, 0.0))
			continue
		}
		for _, l := range s.Levels {
			row := append(append([]any{}, base...),
				l.Level, str(l.FirstDate), str(l.LastDate), l.Days,
				l.Present, l.Absent, l.Excused, l.Frequency)
			rows = append(rows, row)
		}
	}
	return rows
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// SheetTitle names the tab of a class report: label and clock time, cut to
// the 31 character worksheet limit and stripped of forbidden characters.
func SheetTitle(r core.ClassReport) string {
	title := strings.TrimSpace(r.Label)
	if title == "" {
		title = r.Code
	}
	if t := normalize.ClockTime(r.Schedule); t != "" {
		title += " " + strings.ReplaceAll(t, ":", "h")
	}
	title = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, title)
	if title == "" {
		title = "Turma"
	}
	return truncate(title, maxSheetName)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

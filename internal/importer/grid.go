// Package importer turns instructor spreadsheets into attendance snapshots
// and roster records.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/overrides"
)

// Columns holding the class a student came from in the same month.
const (
	colPrevClass    = 9
	colPrevSchedule = 10
	colPrevTeacher  = 11
)

// GridOptions configures ParseGrid.
type GridOptions struct {
	// Month is the YYYY-MM the grid days belong to.
	Month string
	// Source tags the produced snapshots, usually the instructor's sheet.
	Source string
	// SavedAt stamps every snapshot; defaults to now.
	SavedAt string
	// UTF8 skips the Windows-1252 decoding of the input.
	UTF8      bool
	Overrides overrides.Table
	// Resolver maps grid classes onto roster classes when set.
	Resolver *Resolver
}

type gridClass struct {
	label, schedule, teacher string
}

// gridRow is one parsed student line before grouping.
type gridRow struct {
	name  string
	class gridClass
	prev  gridClass
	marks map[string]core.Status
}

// ParseGrid reads a semicolon separated attendance grid. The grid is a
// sequence of blocks introduced by "Turma:", "Horário:" and "Professor:"
// rows and an "Alunos" row listing the day columns; every following row is
// a student with one c/f/j cell per day.
func ParseGrid(r io.Reader, opts GridOptions) ([]core.Snapshot, error) {
	if _, err := time.Parse(core.MonthLayout, opts.Month); err != nil {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidMonth, opts.Month)
	}
	if !opts.UTF8 {
		r = charmap.Windows1252.NewDecoder().Reader(r)
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		current gridClass
		days    []string
		rows    []gridRow
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read grid: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		first := strings.TrimSpace(rec[0])
		key := normalize.Fold(first)
		switch {
		case strings.HasPrefix(key, "turma:"):
			current.label = afterColon(first)
			continue
		case strings.HasPrefix(key, "horario:"):
			current.schedule = normalize.Schedule(afterColon(first))
			continue
		case strings.HasPrefix(key, "professor:"):
			current.teacher = afterColon(first)
			continue
		case strings.HasPrefix(key, "alunos"):
			days = dayColumns(rec[1:])
			continue
		}
		if first == "" || current.label == "" || current.schedule == "" || current.teacher == "" || len(days) == 0 {
			continue
		}

		row := gridRow{name: first, class: current, marks: map[string]core.Status{}}
		for i, day := range days {
			if i+1 >= len(rec) || day == "" {
				continue
			}
			if status, ok := core.ParseStatus(rec[i+1]); ok {
				row.marks[opts.Month+"-"+day] = status
			}
		}
		row.prev = gridClass{
			label:    cell(rec, colPrevClass),
			schedule: normalize.Schedule(cell(rec, colPrevSchedule)),
			teacher:  cell(rec, colPrevTeacher),
		}
		rows = append(rows, row)
	}

	savedAt := opts.SavedAt
	if savedAt == "" {
		savedAt = time.Now().Format(time.RFC3339)
	}
	return buildSnapshots(rows, opts, savedAt), nil
}

func afterColon(s string) string {
	if _, after, ok := strings.Cut(s, ":"); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// dayColumns keeps the positions of the header so that cells stay aligned;
// non numeric headers become empty placeholders.
func dayColumns(header []string) []string {
	var days []string
	for _, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		n, err := strconv.Atoi(h)
		if err != nil || n < 1 || n > 31 {
			days = append(days, "")
			continue
		}
		days = append(days, fmt.Sprintf("%02d", n))
	}
	return days
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

type target struct {
	code, label, schedule, teacher string
}

func buildSnapshots(rows []gridRow, opts GridOptions, savedAt string) []core.Snapshot {
	grouped := make(map[target]map[string]map[string]core.Status)
	names := make(map[string]string)

	add := func(name string, c gridClass, date string, status core.Status) {
		t := target{label: c.label, schedule: c.schedule, teacher: c.teacher}
		if opts.Resolver != nil {
			t = opts.Resolver.Pick(name, c.label, c.schedule, c.teacher)
		}
		if grouped[t] == nil {
			grouped[t] = make(map[string]map[string]core.Status)
		}
		key := normalize.Fold(name)
		if _, ok := names[key]; !ok {
			names[key] = name
		}
		if grouped[t][key] == nil {
			grouped[t][key] = make(map[string]core.Status)
		}
		grouped[t][key][date] = status
	}

	for _, row := range rows {
		patch, patched := opts.Overrides.Lookup(row.name, opts.Source)
		hasPrev := row.prev.label != "" && row.prev.schedule != "" && row.prev.teacher != ""
		if patched && hasPrev && patch.Month == opts.Month {
			for _, ev := range patch.Events {
				c := row.class
				if ev.Segment == overrides.SegmentPrevious {
					c = row.prev
				}
				add(row.name, c, patch.Date(ev), ev.Status)
			}
			continue
		}
		for date, status := range row.marks {
			add(row.name, row.class, date, status)
		}
	}

	targets := make([]target, 0, len(grouped))
	for t := range grouped {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool {
		a, b := targets[i], targets[j]
		if a.label != b.label {
			return a.label < b.label
		}
		if a.schedule != b.schedule {
			return a.schedule < b.schedule
		}
		return a.teacher < b.teacher
	})

	out := make([]core.Snapshot, 0, len(targets))
	for _, t := range targets {
		students := grouped[t]
		keys := make([]string, 0, len(students))
		for k := range students {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		records := make([]core.AttendanceRecord, 0, len(keys))
		for _, k := range keys {
			rec := core.AttendanceRecord{StudentName: names[k], Attendance: map[string]string{}}
			for date, status := range students[k] {
				rec.Attendance[date] = status.String()
				if status == core.StatusExcused {
					if rec.Justifications == nil {
						rec.Justifications = map[string]string{}
					}
					rec.Justifications[date] = "importação CSV"
				}
			}
			records = append(records, rec)
		}
		out = append(out, core.Snapshot{
			ClassCode:  t.code,
			ClassLabel: t.label,
			Schedule:   t.schedule,
			Teacher:    t.teacher,
			Month:      opts.Month,
			SavedAt:    savedAt,
			Source:     opts.Source,
			Records:    records,
		})
	}
	return out
}

// Package reconcile merges attendance snapshots into one report per roster
// class for a month.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/snapshots"
)

// Input is everything a month's reports are computed from.
type Input struct {
	Month      string
	Classes    []core.ClassRecord
	Students   []core.StudentRecord
	Snapshots  []core.Snapshot
	Exclusions []core.Exclusion
}

// BuildClassReports produces one report per roster class. Each class takes
// the latest snapshot found under its probe keys; classes without one list
// their roster students with no attendance. Raw entered dates are kept as
// they are.
func BuildClassReports(in Input) []core.ClassReport {
	idx := snapshots.LatestByKey(in.Snapshots, in.Month)

	byClass := make(map[string][]core.StudentRecord)
	for _, st := range in.Students {
		byClass[st.ClassID] = append(byClass[st.ClassID], st)
	}

	reports := make([]core.ClassReport, 0, len(in.Classes))
	for _, class := range in.Classes {
		excluded := ExcludedStudents(class, in.Exclusions)
		roster := byClass[class.ID]

		var students []core.StudentReport
		if snap, ok := idx.Resolve(class); ok {
			students = fromSnapshot(snap, roster, excluded)
		} else {
			students = fromRoster(roster, excluded)
		}
		sortStudents(students)

		label := class.Label
		if strings.TrimSpace(label) == "" {
			label = class.Code
		}
		reports = append(reports, core.ClassReport{
			Label:    label,
			Code:     class.Code,
			Schedule: class.Schedule,
			Teacher:  class.Teacher,
			Level:    class.Level,
			Students: students,
		})
	}

	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if la, lb := normalize.Fold(a.Label), normalize.Fold(b.Label); la != lb {
			return la < lb
		}
		if sa, sb := normalize.Schedule(a.Schedule), normalize.Schedule(b.Schedule); sa != sb {
			return sa < sb
		}
		return normalize.Fold(a.Teacher) < normalize.Fold(b.Teacher)
	})
	return reports
}

type merged struct {
	name       string
	attendance map[string]string
	notes      map[string]string
}

func fromSnapshot(snap core.Snapshot, roster []core.StudentRecord, excluded map[string]bool) []core.StudentReport {
	ids := make(map[string]string, len(roster))
	for _, st := range roster {
		ids[normalize.Fold(st.Name)] = st.ID
	}

	var order []string
	rows := make(map[string]*merged)
	for _, rec := range snap.Records {
		key := normalize.Fold(rec.StudentName)
		if key == "" || excluded[key] {
			continue
		}
		m, ok := rows[key]
		if !ok {
			m = &merged{name: rec.StudentName, attendance: map[string]string{}, notes: map[string]string{}}
			rows[key] = m
			order = append(order, key)
		}
		for date, raw := range rec.Attendance {
			m.attendance[date] = raw
		}
		for date, note := range rec.Justifications {
			if strings.TrimSpace(note) != "" {
				m.notes[date] = note
			}
		}
	}

	out := make([]core.StudentReport, 0, len(order))
	for _, key := range order {
		m := rows[key]
		var tally core.Tally
		history := make(map[string]string, len(m.attendance))
		for date, raw := range m.attendance {
			status, ok := core.ParseStatus(raw)
			if !ok {
				continue
			}
			tally.Add(status)
			history[dayKey(date)] = status.Code()
		}
		var notes map[string]string
		if len(m.notes) > 0 {
			notes = make(map[string]string, len(m.notes))
			for date, note := range m.notes {
				notes[dayKey(date)] = note
			}
		}
		out = append(out, core.StudentReport{
			ID:        ids[key],
			Name:      normalize.ProperCase(m.name),
			Present:   tally.Present,
			Absent:    tally.Absent,
			Excused:   tally.Excused,
			Frequency: tally.Frequency(),
			History:   history,
			Notes:     notes,
		})
	}
	return out
}

func fromRoster(roster []core.StudentRecord, excluded map[string]bool) []core.StudentReport {
	out := make([]core.StudentReport, 0, len(roster))
	seen := make(map[string]bool, len(roster))
	for _, st := range roster {
		key := normalize.Fold(st.Name)
		if key == "" || excluded[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, core.StudentReport{
			ID:      st.ID,
			Name:    normalize.ProperCase(st.Name),
			History: map[string]string{},
		})
	}
	return out
}

// dayKey turns an ISO date into its zero-padded day of month. Anything
// else is kept verbatim.
func dayKey(date string) string {
	t, err := core.ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%02d", t.Day())
}

func sortStudents(students []core.StudentReport) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := normalize.Fold(students[i].Name), normalize.Fold(students[j].Name)
		if a != b {
			return a < b
		}
		return students[i].Name < students[j].Name
	})
}

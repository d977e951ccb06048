package importer

import (
	"strings"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
)

// Resolver places a grid row onto a roster class: first by the grid's own
// (class, schedule, teacher), then by the classes the student is enrolled
// in.
type Resolver struct {
	byTuple   map[string]target
	byStudent map[string][]target
}

func tupleKey(label, schedule, teacher string) string {
	return normalize.Fold(label) + "|" + normalize.Schedule(schedule) + "|" + normalize.Fold(teacher)
}

func NewResolver(classes []core.ClassRecord, students []core.StudentRecord) *Resolver {
	r := &Resolver{byTuple: map[string]target{}, byStudent: map[string][]target{}}
	byID := make(map[string]target, len(classes))
	for _, c := range classes {
		label := c.Label
		if strings.TrimSpace(label) == "" {
			label = c.Code
		}
		t := target{
			code:     strings.TrimSpace(c.Code),
			label:    strings.TrimSpace(label),
			schedule: normalize.Schedule(c.Schedule),
			teacher:  strings.TrimSpace(c.Teacher),
		}
		byID[c.ID] = t
		r.byTuple[tupleKey(t.label, t.schedule, t.teacher)] = t
	}
	for _, s := range students {
		if t, ok := byID[s.ClassID]; ok {
			key := normalize.Fold(s.Name)
			r.byStudent[key] = append(r.byStudent[key], t)
		}
	}
	return r
}

// Pick returns the roster class for a student row, or the grid class
// unchanged when nothing fits.
func (r *Resolver) Pick(name, label, schedule, teacher string) target {
	if t, ok := r.byTuple[tupleKey(label, schedule, teacher)]; ok {
		return t
	}
	fallback := target{label: label, schedule: schedule, teacher: teacher}
	candidates := r.byStudent[normalize.Fold(name)]
	if len(candidates) == 0 {
		return fallback
	}

	want := tupleKey(label, schedule, teacher)
	for _, c := range candidates {
		if tupleKey(c.label, c.schedule, c.teacher) == want {
			return c
		}
	}

	sched, prof := normalize.Schedule(schedule), normalize.Fold(teacher)
	for _, c := range candidates {
		cp := normalize.Fold(c.teacher)
		if c.schedule == sched && (strings.Contains(cp, prof) || strings.Contains(prof, cp)) {
			return c
		}
	}

	if len(candidates) == 1 {
		return candidates[0]
	}
	return fallback
}

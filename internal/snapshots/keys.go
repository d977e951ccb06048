// Package snapshots derives lookup keys for attendance snapshots and resolves
// the latest snapshot of a class.
package snapshots

import (
	"strings"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
)

const sep = "|"

// keyer accumulates unique keys in insertion order.
type keyer struct {
	seen map[string]bool
	keys []string
}

func (k *keyer) add(id, schedule, teacher string) {
	if id == "" {
		return
	}
	key := id + sep + schedule + sep + teacher
	if k.seen == nil {
		k.seen = make(map[string]bool)
	}
	if k.seen[key] {
		return
	}
	k.seen[key] = true
	k.keys = append(k.keys, key)
}

func (k *keyer) combine(ids, schedules, teachers []string) {
	for _, id := range ids {
		for _, s := range schedules {
			for _, t := range teachers {
				k.add(id, s, t)
			}
		}
	}
}

func scheduleVariants(s string) []string {
	s = strings.TrimSpace(s)
	return uniq(s, normalize.Digits(s), normalize.ClockTime(s))
}

func teacherVariants(s string) []string {
	s = strings.TrimSpace(s)
	return uniq(s, normalize.Fold(s))
}

func labelVariants(s string) []string {
	s = strings.TrimSpace(s)
	return uniq(s, normalize.Fold(s))
}

// uniq drops duplicates, keeping the first occurrence. Empty strings are
// kept once since they are meaningful key fields.
func uniq(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		dup := false
		for _, o := range out {
			if o == v {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// compact drops empty variants unless nothing else is left.
func compact(vals []string) []string {
	out := vals[:0:0]
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

func composite(k *keyer, code, label, schedule, teacher string) {
	schedules := compact(scheduleVariants(schedule))
	teachers := compact(teacherVariants(teacher))
	k.combine([]string{strings.TrimSpace(code)}, schedules, teachers)
	k.combine(labelVariants(label), schedules, teachers)
}

// LookupKeys returns the keys a snapshot is indexed under: every
// combination of identifier (code, raw label, folded label), schedule (raw,
// digits, HH:MM) and teacher (raw, folded).
func LookupKeys(s core.Snapshot) []string {
	var k keyer
	composite(&k, s.ClassCode, s.ClassLabel, s.Schedule, s.Teacher)
	return k.keys
}

// ClassKeys returns the probe keys of a roster class in precedence order:
// code composites, then label composites, then the legacy keys of older
// snapshots saved without teacher or schedule.
func ClassKeys(c core.ClassRecord) []string {
	var k keyer
	composite(&k, c.Code, c.Label, c.Schedule, c.Teacher)

	ids := append([]string{strings.TrimSpace(c.Code)}, labelVariants(c.Label)...)
	for _, id := range ids {
		for _, s := range compact(scheduleVariants(c.Schedule)) {
			k.add(id, s, "")
		}
		k.add(id, "", "")
	}
	return k.keys
}

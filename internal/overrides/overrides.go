// Package overrides holds hand-entered attendance corrections that replace
// whatever a source spreadsheet says for a given student. Entries are data,
// not rules: each one documents a single manual correction.
package overrides

import (
	"fmt"
	"strings"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
)

// Segment tells which of a student's two classes a pinned day belongs to
// when the source row carries a previous class.
type Segment int

const (
	SegmentPrevious Segment = iota
	SegmentCurrent
)

// PinnedEvent fixes the outcome of one day of the patch month.
type PinnedEvent struct {
	Day     int
	Status  core.Status
	Segment Segment
}

// Patch pins the attendance of one student under one data source.
type Patch struct {
	Name       string
	StudentKey string
	Source     string
	Month      string
	Events     []PinnedEvent
}

// Date returns the ISO date of a pinned event.
func (p Patch) Date(ev PinnedEvent) string {
	return fmt.Sprintf("%s-%02d", p.Month, ev.Day)
}

// PinnedIn returns the forced status of date within one segment, if any.
func (p Patch) PinnedIn(date string, seg Segment) (core.Status, bool) {
	for _, ev := range p.Events {
		if ev.Segment == seg && p.Date(ev) == date {
			return ev.Status, true
		}
	}
	return core.StatusUnknown, false
}

// SegmentOf tells which segment a record of attendance dates belongs to:
// the one with more of its pinned days present. It reports false when no
// pinned day is present or both segments tie.
func (p Patch) SegmentOf(attendance map[string]string) (Segment, bool) {
	var counts [2]int
	for _, ev := range p.Events {
		if _, ok := attendance[p.Date(ev)]; ok && ev.Segment >= SegmentPrevious && ev.Segment <= SegmentCurrent {
			counts[ev.Segment]++
		}
	}
	switch {
	case counts[SegmentPrevious] > counts[SegmentCurrent]:
		return SegmentPrevious, true
	case counts[SegmentCurrent] > counts[SegmentPrevious]:
		return SegmentCurrent, true
	}
	return SegmentPrevious, false
}

// Known lists every manual correction in force.
var Known = []Patch{
	{
		// Mid-month level transfer split across two class grids; the cells
		// of the old grid were unreadable after the move.
		Name:       "marciano-transfer-2026-02",
		StudentKey: "matheus henrique de souza marciano",
		Source:     "jefferson",
		Month:      "2026-02",
		Events: []PinnedEvent{
			{Day: 4, Status: core.StatusPresent, Segment: SegmentPrevious},
			{Day: 11, Status: core.StatusExcused, Segment: SegmentPrevious},
			{Day: 18, Status: core.StatusPresent, Segment: SegmentPrevious},
			{Day: 19, Status: core.StatusPresent, Segment: SegmentCurrent},
			{Day: 24, Status: core.StatusPresent, Segment: SegmentCurrent},
		},
	},
}

// Table looks patches up by folded student name and source tag.
type Table struct {
	patches map[string]Patch
}

func tableKey(studentKey, source string) string {
	return normalize.Fold(studentKey) + "|" + strings.ToLower(strings.TrimSpace(source))
}

// NewTable indexes the given patches.
func NewTable(patches []Patch) Table {
	t := Table{patches: make(map[string]Patch, len(patches))}
	for _, p := range patches {
		t.patches[tableKey(p.StudentKey, p.Source)] = p
	}
	return t
}

// Default is the table of Known patches.
func Default() Table {
	return NewTable(Known)
}

// Lookup finds the patch of a student under a source.
func (t Table) Lookup(studentName, source string) (Patch, bool) {
	if len(t.patches) == 0 {
		return Patch{}, false
	}
	p, ok := t.patches[tableKey(studentName, source)]
	return p, ok
}

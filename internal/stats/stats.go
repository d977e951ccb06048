// Package stats replays the whole attendance history of every student to
// compute retention and per-level permanence.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/calendar"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/overrides"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/snapshots"
)

// NoLevel buckets events of classes without a level.
const NoLevel = "(sem-nivel)"

// Input is the full history statistics are computed from.
type Input struct {
	Classes    []core.ClassRecord
	Students   []core.StudentRecord
	Snapshots  []core.Snapshot
	Exclusions []core.Exclusion
}

// Aggregator computes StudentStatistics. The zero value uses an
// unconfigured calendar, no overrides and the wall clock.
type Aggregator struct {
	Calendar  *calendar.Calendar
	Overrides overrides.Table
	Now       func() time.Time
}

type entry struct {
	date    string
	day     time.Time
	status  core.Status
	level   string
	group   calendar.Group
	savedAt string
	pinned  bool
}

type student struct {
	id     string
	name   string
	events map[string]entry
}

type levelAcc struct {
	name        string
	tally       core.Tally
	first, last time.Time
}

func (a Aggregator) today() time.Time {
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Compute returns one StudentStatistics per student found in the roster or
// in any snapshot, sorted by display name.
func (a Aggregator) Compute(in Input) []core.StudentStatistics {
	cal := a.Calendar
	if cal == nil {
		cal = calendar.New(core.CalendarSettings{})
	}
	today := a.today()
	allowed := map[calendar.Group]map[string]bool{
		calendar.GroupTQ: cal.AllowedDays(calendar.GroupTQ, today),
		calendar.GroupQS: cal.AllowedDays(calendar.GroupQS, today),
	}
	valid := func(e entry) bool {
		if e.pinned || e.group == calendar.GroupOther {
			return true
		}
		if !cal.Configured() {
			return e.group.MeetsOn(e.day.Weekday())
		}
		return allowed[e.group][e.date]
	}

	classes := indexClasses(in.Classes)
	students := make(map[string]*student)
	var order []string
	get := func(name string) *student {
		key := normalize.Fold(name)
		if key == "" {
			return nil
		}
		st, ok := students[key]
		if !ok {
			st = &student{name: name, events: make(map[string]entry)}
			students[key] = st
			order = append(order, key)
		}
		return st
	}

	for _, r := range in.Students {
		if st := get(r.Name); st != nil && st.id == "" {
			st.id = r.ID
		}
	}

	for _, snap := range in.Snapshots {
		class, hasClass := classes.resolve(snap)
		group := calendar.InferGroup(snap.ClassLabel, snap.ClassCode)
		if group == calendar.GroupOther && hasClass {
			group = calendar.InferGroup(class.Label, class.Code)
		}
		level := class.Level
		ident := normalize.Fold(snap.Identifier())
		sched := normalize.Schedule(snap.Schedule)
		teacher := normalize.Fold(snap.Teacher)

		for _, rec := range snap.Records {
			st := get(rec.StudentName)
			if st == nil {
				continue
			}
			patch, patched := a.Overrides.Lookup(rec.StudentName, snap.Source)
			var seg overrides.Segment
			if patched {
				seg, patched = patch.SegmentOf(rec.Attendance)
			}
			for date, raw := range rec.Attendance {
				status, ok := core.ParseStatus(raw)
				pinned := false
				if patched {
					if forced, hit := patch.PinnedIn(date, seg); hit {
						status, ok, pinned = forced, true, true
					}
				}
				if !ok {
					continue
				}
				day, err := core.ParseDate(date)
				if err != nil {
					continue
				}
				date = day.Format(core.DateLayout)

				scope := date + "|" + string(group)
				if group == calendar.GroupOther {
					scope = strings.Join([]string{date, ident, sched, teacher}, "|")
				}
				if cur, ok := st.events[scope]; ok && cur.savedAt > snap.SavedAt {
					continue
				}
				st.events[scope] = entry{
					date:    date,
					day:     day,
					status:  status,
					level:   level,
					group:   group,
					savedAt: snap.SavedAt,
					pinned:  pinned,
				}
			}
		}
	}

	exclusionDates := latestExclusions(in.Exclusions)

	out := make([]core.StudentStatistics, 0, len(order))
	for _, key := range order {
		st := students[key]
		out = append(out, summarize(st, exclusionDates[key], today, valid))
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := normalize.Fold(out[i].Name), normalize.Fold(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func summarize(st *student, excludedOn, today time.Time, valid func(entry) bool) core.StudentStatistics {
	events := make([]entry, 0, len(st.events))
	for _, e := range st.events {
		if valid(e) {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].date != events[j].date {
			return events[i].date < events[j].date
		}
		return events[i].savedAt < events[j].savedAt
	})

	var first, last time.Time
	levels := make(map[string]*levelAcc)
	var levelOrder []string
	for _, e := range events {
		if e.status.Attended() {
			if first.IsZero() || e.day.Before(first) {
				first = e.day
			}
			if last.IsZero() || e.day.After(last) {
				last = e.day
			}
		}
		name := strings.TrimSpace(e.level)
		if name == "" {
			name = NoLevel
		}
		acc, ok := levels[name]
		if !ok {
			acc = &levelAcc{name: name}
			levels[name] = acc
			levelOrder = append(levelOrder, name)
		}
		acc.tally.Add(e.status)
		if acc.first.IsZero() || e.day.Before(acc.first) {
			acc.first = e.day
		}
		if acc.last.IsZero() || e.day.After(acc.last) {
			acc.last = e.day
		}
	}

	result := core.StudentStatistics{
		ID:     st.id,
		Name:   normalize.ProperCase(st.name),
		Levels: make([]core.LevelStats, 0, len(levels)),
	}
	if !first.IsZero() {
		result.FirstPresence = datePtr(first)
		result.LastPresence = datePtr(last)
	}
	end := today
	if !excludedOn.IsZero() {
		result.ExclusionDate = datePtr(excludedOn)
		end = excludedOn
	}
	if !first.IsZero() {
		if days := core.DaysBetween(first, end); days > 0 {
			result.RetentionDays = days
		}
	}

	var current *levelAcc
	for _, name := range levelOrder {
		acc := levels[name]
		if name != NoLevel && (current == nil || acc.last.After(current.last)) {
			current = acc
		}
		result.Levels = append(result.Levels, core.LevelStats{
			Level:     name,
			FirstDate: datePtr(acc.first),
			LastDate:  datePtr(acc.last),
			Days:      core.DaysBetween(acc.first, acc.last) + 1,
			Present:   acc.tally.Present,
			Absent:    acc.tally.Absent,
			Excused:   acc.tally.Excused,
			Frequency: acc.tally.Frequency(),
		})
	}
	if current != nil {
		name := current.name
		result.CurrentLevel = &name
	}
	return result
}

func datePtr(t time.Time) *string {
	s := t.Format(core.DateLayout)
	return &s
}

// latestExclusions maps folded names to their most recent exclusion date.
// Unparseable dates are ignored.
func latestExclusions(exclusions []core.Exclusion) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, ex := range exclusions {
		key := normalize.Fold(ex.StudentName)
		d, err := core.ParseExclusionDate(ex.Date)
		if key == "" || err != nil {
			continue
		}
		if cur, ok := out[key]; !ok || d.After(cur) {
			out[key] = d
		}
	}
	return out
}

type classIndex map[string]core.ClassRecord

func indexClasses(classes []core.ClassRecord) classIndex {
	idx := make(classIndex)
	for _, c := range classes {
		for _, key := range snapshots.ClassKeys(c) {
			if _, taken := idx[key]; !taken {
				idx[key] = c
			}
		}
	}
	return idx
}

func (idx classIndex) resolve(s core.Snapshot) (core.ClassRecord, bool) {
	for _, key := range snapshots.LookupKeys(s) {
		if c, ok := idx[key]; ok {
			return c, true
		}
	}
	return core.ClassRecord{}, false
}

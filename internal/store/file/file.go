// Package file persists the engine's data as JSON documents in a directory.
// Writes go to a temporary file that is renamed over the target, so readers
// never observe partial documents.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
)

const (
	snapshotsFile  = "baseChamada.json"
	exclusionsFile = "excludedStudents.json"
	calendarFile   = "calendar.json"
	classesFile    = "classes.json"
	studentsFile   = "students.json"
)

type Store struct {
	mu  sync.Mutex
	dir string
}

// New returns a Store rooted at dir, creating it when missing.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readJSON decodes name into v. A missing or empty file leaves v untouched.
func (s *Store) readJSON(name string, v any) error {
	b, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Append adds a snapshot to the end of the log.
func (s *Store) Append(_ context.Context, snap core.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []core.Snapshot
	if err := s.readJSON(snapshotsFile, &all); err != nil {
		return err
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	all = append(all, snap)
	return s.writeJSON(snapshotsFile, all)
}

// List returns the snapshots of month in insertion order.
func (s *Store) List(_ context.Context, month string) ([]core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []core.Snapshot
	if err := s.readJSON(snapshotsFile, &all); err != nil {
		return nil, err
	}
	if month == "" {
		return all, nil
	}
	out := make([]core.Snapshot, 0, len(all))
	for _, snap := range all {
		if snap.Month == month {
			out = append(out, snap)
		}
	}
	return out, nil
}

// exclusionDoc accepts the legacy "Nome" and "turma" spellings.
type exclusionDoc struct {
	core.Exclusion
	LegacyName  string `json:"Nome,omitempty"`
	LegacyClass string `json:"turma,omitempty"`
}

func (s *Store) loadExclusions() ([]core.Exclusion, error) {
	var docs []exclusionDoc
	if err := s.readJSON(exclusionsFile, &docs); err != nil {
		return nil, err
	}
	out := make([]core.Exclusion, 0, len(docs))
	for _, d := range docs {
		e := d.Exclusion
		if e.StudentName == "" {
			e.StudentName = d.LegacyName
		}
		if e.ClassLabel == "" {
			e.ClassLabel = d.LegacyClass
		}
		if e.ID == "" {
			e.ID = legacyID(e)
		}
		out = append(out, e)
	}
	return out, nil
}

// legacyID derives a stable ID for exclusions written without one.
func legacyID(e core.Exclusion) string {
	seed := strings.Join([]string{normalize.Fold(e.StudentName), e.ClassCode, e.ClassLabel, e.Schedule, e.Date}, "|")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func (s *Store) ListExclusions(_ context.Context) ([]core.Exclusion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadExclusions()
}

func (s *Store) AddExclusion(_ context.Context, e core.Exclusion) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadExclusions()
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return s.writeJSON(exclusionsFile, append(all, e))
}

func (s *Store) DeleteExclusion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadExclusions()
	if err != nil {
		return err
	}
	kept := all[:0]
	found := false
	for _, e := range all {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("exclusion %s: %w", id, core.ErrNotFound)
	}
	return s.writeJSON(exclusionsFile, kept)
}

func (s *Store) LoadCalendar(_ context.Context) (core.CalendarSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cs core.CalendarSettings
	if err := s.readJSON(calendarFile, &cs); err != nil {
		return core.CalendarSettings{}, err
	}
	return cs, nil
}

func (s *Store) SaveCalendar(_ context.Context, cs core.CalendarSettings) error {
	if err := cs.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(calendarFile, cs)
}

func (s *Store) ListClasses(_ context.Context) ([]core.ClassRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ClassRecord
	if err := s.readJSON(classesFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListStudents(_ context.Context) ([]core.StudentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.StudentRecord
	if err := s.readJSON(studentsFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func classKey(c core.ClassRecord) string {
	return c.UnitID + "|" + normalize.Fold(c.Code) + "|" + normalize.Schedule(c.Schedule)
}

// UpsertClass replaces the class with the same (unit, code, schedule).
func (s *Store) UpsertClass(_ context.Context, c core.ClassRecord) (core.ClassRecord, error) {
	if strings.TrimSpace(c.Code) == "" && strings.TrimSpace(c.Label) == "" {
		return core.ClassRecord{}, core.ErrMissingClass
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []core.ClassRecord
	if err := s.readJSON(classesFile, &all); err != nil {
		return core.ClassRecord{}, err
	}
	key := classKey(c)
	for i, cur := range all {
		if classKey(cur) == key {
			c.ID = cur.ID
			all[i] = c
			return c, s.writeJSON(classesFile, all)
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return c, s.writeJSON(classesFile, append(all, c))
}

// UpsertStudent replaces the student with the same (class, folded name).
func (s *Store) UpsertStudent(_ context.Context, st core.StudentRecord) (core.StudentRecord, error) {
	if strings.TrimSpace(st.Name) == "" {
		return core.StudentRecord{}, core.ErrMissingStudent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []core.StudentRecord
	if err := s.readJSON(studentsFile, &all); err != nil {
		return core.StudentRecord{}, err
	}
	key := normalize.Fold(st.Name)
	for i, cur := range all {
		if cur.ClassID == st.ClassID && normalize.Fold(cur.Name) == key {
			st.ID = cur.ID
			all[i] = st
			return st, s.writeJSON(studentsFile, all)
		}
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	return st, s.writeJSON(studentsFile, append(all, st))
}

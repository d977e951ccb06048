package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/importer"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/overrides"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/store"
)

// ImportStores is what imports read and write.
type ImportStores interface {
	store.RosterReader
	store.RosterWriter
}

// ImportService feeds instructor spreadsheets into the snapshot log and
// the roster.
type ImportService struct {
	roster     ImportStores
	attendance *AttendanceService
	overrides  overrides.Table
}

func NewImportService(roster ImportStores, attendance *AttendanceService, table overrides.Table) *ImportService {
	return &ImportService{roster: roster, attendance: attendance, overrides: table}
}

// GridImport configures ImportGrid.
type GridImport struct {
	Month  string
	Source string
	UTF8   bool
}

// ImportGrid parses a CSV attendance grid and submits one snapshot per
// class found in it. Rows are matched against the roster when it has
// classes.
func (s *ImportService) ImportGrid(ctx context.Context, r io.Reader, opts GridImport) ([]core.Snapshot, error) {
	classes, err := s.roster.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	students, err := s.roster.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	gridOpts := importer.GridOptions{
		Month:     opts.Month,
		Source:    strings.TrimSpace(opts.Source),
		UTF8:      opts.UTF8,
		Overrides: s.overrides,
	}
	if len(classes) > 0 {
		gridOpts.Resolver = importer.NewResolver(classes, students)
	}
	parsed, err := importer.ParseGrid(r, gridOpts)
	if err != nil {
		return nil, fmt.Errorf("parse grid: %w", err)
	}

	saved := make([]core.Snapshot, 0, len(parsed))
	for _, snap := range parsed {
		if len(snap.Records) == 0 {
			continue
		}
		out, err := s.attendance.Submit(ctx, snap)
		if err != nil {
			return saved, fmt.Errorf("submit %s %s: %w", snap.Identifier(), snap.Schedule, err)
		}
		saved = append(saved, out)
	}
	slog.InfoContext(ctx, "Attendance grid imported",
		applog.FieldMonth, opts.Month,
		applog.FieldSource, gridOpts.Source,
		applog.FieldCount, len(saved))
	return saved, nil
}

// RosterResult counts the rows touched by ImportRoster.
type RosterResult struct {
	Classes  int `json:"classes"`
	Students int `json:"students"`
}

// ImportRoster upserts every class and student of an XLSX roster.
func (s *ImportService) ImportRoster(ctx context.Context, r io.Reader) (RosterResult, error) {
	entries, err := importer.ReadRoster(r)
	if err != nil {
		return RosterResult{}, fmt.Errorf("read roster: %w", err)
	}

	var res RosterResult
	classIDs := make(map[string]string)
	for _, e := range entries {
		key := normalize.Fold(e.Class.Code) + "|" + e.Class.Schedule
		id, ok := classIDs[key]
		if !ok {
			c, err := s.roster.UpsertClass(ctx, e.Class)
			if err != nil {
				return res, fmt.Errorf("upsert class %s: %w", e.Class.Code, err)
			}
			id = c.ID
			classIDs[key] = id
			res.Classes++
		}
		e.Student.ClassID = id
		if _, err := s.roster.UpsertStudent(ctx, e.Student); err != nil {
			return res, fmt.Errorf("upsert student %s: %w", e.Student.Name, err)
		}
		res.Students++
	}
	slog.InfoContext(ctx, "Roster imported", "classes", res.Classes, "students", res.Students)
	return res, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/calendar"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/overrides"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/reconcile"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/stats"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/store"
)

// ReportStores is the read side ReportService needs.
type ReportStores interface {
	store.RosterReader
	store.SnapshotStore
	store.ExclusionStore
	store.CalendarStore
}

// ReportService recomputes reports and statistics from storage on every
// call.
type ReportService struct {
	stores    ReportStores
	overrides overrides.Table
	location  *time.Location
	now       func() time.Time
}

func NewReportService(stores ReportStores, table overrides.Table, location *time.Location) *ReportService {
	if location == nil {
		location = time.UTC
	}
	return &ReportService{stores: stores, overrides: table, location: location, now: time.Now}
}

// ClassReports builds the reports of every roster class for month.
func (s *ReportService) ClassReports(ctx context.Context, month string) ([]core.ClassReport, error) {
	if _, err := time.Parse(core.MonthLayout, month); err != nil {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidMonth, month)
	}

	in := reconcile.Input{Month: month}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.Classes, err = s.stores.ListClasses(gctx)
		return wrap("list classes", err)
	})
	g.Go(func() (err error) {
		in.Students, err = s.stores.ListStudents(gctx)
		return wrap("list students", err)
	})
	g.Go(func() (err error) {
		in.Snapshots, err = s.stores.List(gctx, month)
		return wrap("list snapshots", err)
	})
	g.Go(func() (err error) {
		in.Exclusions, err = s.stores.ListExclusions(gctx)
		return wrap("list exclusions", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reconcile.BuildClassReports(in), nil
}

// Statistics replays the full history of every student.
func (s *ReportService) Statistics(ctx context.Context) ([]core.StudentStatistics, error) {
	var (
		in       stats.Input
		settings core.CalendarSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.Classes, err = s.stores.ListClasses(gctx)
		return wrap("list classes", err)
	})
	g.Go(func() (err error) {
		in.Students, err = s.stores.ListStudents(gctx)
		return wrap("list students", err)
	})
	g.Go(func() (err error) {
		in.Snapshots, err = s.stores.List(gctx, "")
		return wrap("list snapshots", err)
	})
	g.Go(func() (err error) {
		in.Exclusions, err = s.stores.ListExclusions(gctx)
		return wrap("list exclusions", err)
	})
	g.Go(func() error {
		cs, err := s.stores.LoadCalendar(gctx)
		if err != nil {
			// An unreadable calendar degrades to weekday-only validation.
			slog.WarnContext(gctx, "Calendar settings unavailable, using unconfigured calendar",
				applog.FieldComponent, applog.ComponentReports,
				"error", err)
			return nil
		}
		settings = cs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := stats.Aggregator{
		Calendar:  calendar.New(settings),
		Overrides: s.overrides,
		Now:       func() time.Time { return s.now().In(s.location) },
	}
	start := time.Now()
	out := agg.Compute(in)
	slog.DebugContext(ctx, "Statistics computed",
		applog.FieldComponent, applog.ComponentReports,
		applog.FieldStudents, len(out),
		applog.FieldCount, len(in.Snapshots),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return out, nil
}

func wrap(op string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

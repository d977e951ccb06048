// Package worker keeps the published spreadsheet in step with the
// attendance log.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/amqp"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/sheets"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/store"
)

// MonthQueue collects months waiting for publication.
type MonthQueue interface {
	Enqueue(month string)
}

// StatisticsSource computes the statistics of every student.
type StatisticsSource interface {
	Statistics(ctx context.Context) ([]core.StudentStatistics, error)
}

// SyncWorker turns snapshot events into spreadsheet publications and
// publishes statistics on a schedule.
type SyncWorker struct {
	snapshots store.SnapshotStore
	queue     MonthQueue
	stats     StatisticsSource
	publisher sheets.StatisticsPublisher
	cron      *cron.Cron
}

func NewSyncWorker(snapshots store.SnapshotStore, queue MonthQueue, stats StatisticsSource, publisher sheets.StatisticsPublisher) *SyncWorker {
	return &SyncWorker{
		snapshots: snapshots,
		queue:     queue,
		stats:     stats,
		publisher: publisher,
	}
}

// HandleSnapshotSaved processes a single snapshot saved message from AMQP.
func (w *SyncWorker) HandleSnapshotSaved(ctx context.Context, msg *amqp.SnapshotSavedMessage) error {
	if _, err := time.Parse(core.MonthLayout, msg.Month); err != nil {
		// A bad month will never become valid; acking is the only way out.
		slog.WarnContext(ctx, "Ignoring snapshot message with invalid month",
			applog.FieldSnapshotID, msg.SnapshotID,
			applog.FieldMonth, msg.Month)
		return nil
	}
	slog.InfoContext(ctx, "Processing snapshot saved message",
		applog.FieldSnapshotID, msg.SnapshotID,
		applog.FieldMonth, msg.Month,
		applog.FieldClass, msg.Class)
	w.queue.Enqueue(msg.Month)
	return nil
}

// StartupSyncCheck enqueues every month present in the log. This recovers
// from messages lost while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	all, err := w.snapshots.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list snapshots for startup check: %w", err)
	}
	seen := make(map[string]bool)
	for _, s := range all {
		seen[s.Month] = true
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		w.queue.Enqueue(m)
	}
	slog.InfoContext(ctx, "Startup sync check completed",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpStartup,
		applog.FieldCount, len(months))
	return nil
}

// PublishStatistics recomputes and publishes the statistics tab.
func (w *SyncWorker) PublishStatistics(ctx context.Context) error {
	start := time.Now()
	stats, err := w.stats.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("compute statistics: %w", err)
	}
	if err := w.publisher.PublishStatistics(ctx, stats); err != nil {
		return fmt.Errorf("publish statistics: %w", err)
	}
	slog.InfoContext(ctx, "Statistics published",
		applog.FieldStudents, len(stats),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// ScheduleStatistics runs PublishStatistics on a standard five-field cron
// spec in loc. Overlapping runs are skipped.
func (w *SyncWorker) ScheduleStatistics(ctx context.Context, spec string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if err := w.PublishStatistics(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled statistics publication failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule statistics %q: %w", spec, err)
	}
	w.cron = c
	c.Start()
	slog.InfoContext(ctx, "Statistics publication scheduled", "schedule", spec, "timezone", loc.String())
	return nil
}

// Stop halts the scheduler and waits for a running job.
func (w *SyncWorker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	slog.Info("Statistics schedule stopped",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpShutdown)
}

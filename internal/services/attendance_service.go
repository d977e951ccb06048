package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/store"
)

// SnapshotPublisher announces stored snapshots to downstream consumers.
type SnapshotPublisher interface {
	PublishSnapshotSaved(ctx context.Context, s core.Snapshot) error
}

// AttendanceService records attendance submissions and announces them.
type AttendanceService struct {
	snapshots store.SnapshotStore
	publisher SnapshotPublisher
	location  *time.Location
	now       func() time.Time
}

// NewAttendanceService wires the snapshot log. publisher may be nil.
func NewAttendanceService(snapshots store.SnapshotStore, publisher SnapshotPublisher, location *time.Location) *AttendanceService {
	if location == nil {
		location = time.UTC
	}
	return &AttendanceService{
		snapshots: snapshots,
		publisher: publisher,
		location:  location,
		now:       time.Now,
	}
}

// Submit validates and appends a snapshot, assigning its ID and SavedAt
// when missing. Publishing is best effort: the snapshot is stored even if
// the broker is down.
func (s *AttendanceService) Submit(ctx context.Context, snap core.Snapshot) (core.Snapshot, error) {
	if err := snap.Validate(); err != nil {
		return core.Snapshot{}, fmt.Errorf("validate snapshot: %w", err)
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.SavedAt == "" {
		snap.SavedAt = s.now().In(s.location).Format(time.RFC3339)
	}

	if mismatches := snap.MonthMismatches(); len(mismatches) > 0 {
		slog.WarnContext(ctx, "Snapshot has dates outside its month",
			applog.FieldSnapshotID, snap.ID,
			applog.FieldMonth, snap.Month,
			"dates", mismatches)
	}

	if err := s.snapshots.Append(ctx, snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("append snapshot: %w", err)
	}
	sl := applog.NewStructuredLogger(applog.FromContext(ctx))
	sl.LogSnapshotSaved(ctx, snap.ID, snap.Month, snap.Identifier(), snap.Schedule, snap.Teacher, len(snap.Records))

	if err := s.publish(ctx, snap); err != nil {
		sl.LogError(ctx, "Failed to publish snapshot saved message", err,
			applog.ComponentAttendance, applog.OpSync,
			applog.NewFields().WithSnapshot(snap.ID, snap.Month, snap.Identifier(), snap.Schedule, snap.Teacher))
	}
	return snap, nil
}

// List returns the snapshots of month, or all of them for "".
func (s *AttendanceService) List(ctx context.Context, month string) ([]core.Snapshot, error) {
	if month != "" {
		if _, err := time.Parse(core.MonthLayout, month); err != nil {
			return nil, fmt.Errorf("%w: %q", core.ErrInvalidMonth, month)
		}
	}
	snaps, err := s.snapshots.List(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}

func (s *AttendanceService) publish(ctx context.Context, snap core.Snapshot) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping snapshot saved message")
		return nil
	}
	return s.publisher.PublishSnapshotSaved(ctx, snap)
}

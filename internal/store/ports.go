// Package store declares the persistence ports of the attendance engine.
package store

import (
	"context"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

// Ports for outbound adapters.
type (
	RosterReader interface {
		ListClasses(ctx context.Context) ([]core.ClassRecord, error)
		ListStudents(ctx context.Context) ([]core.StudentRecord, error)
	}

	// RosterWriter inserts or updates roster rows by their natural keys:
	// (unit, code, schedule) for classes and (class, name) for students.
	RosterWriter interface {
		UpsertClass(ctx context.Context, c core.ClassRecord) (core.ClassRecord, error)
		UpsertStudent(ctx context.Context, s core.StudentRecord) (core.StudentRecord, error)
	}

	// SnapshotStore is an append-only log. List preserves insertion order;
	// an empty month lists everything.
	SnapshotStore interface {
		Append(ctx context.Context, s core.Snapshot) error
		List(ctx context.Context, month string) ([]core.Snapshot, error)
	}

	ExclusionStore interface {
		ListExclusions(ctx context.Context) ([]core.Exclusion, error)
		AddExclusion(ctx context.Context, e core.Exclusion) error
		DeleteExclusion(ctx context.Context, id string) error
	}

	// CalendarStore returns zero settings when none were saved.
	CalendarStore interface {
		LoadCalendar(ctx context.Context) (core.CalendarSettings, error)
		SaveCalendar(ctx context.Context, s core.CalendarSettings) error
	}

	// Backend bundles every port behind one storage implementation.
	Backend interface {
		RosterReader
		RosterWriter
		SnapshotStore
		ExclusionStore
		CalendarStore
	}
)

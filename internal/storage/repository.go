package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements store.Backend on a SQLite database.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append stores one snapshot; records are kept as a JSON document.
func (r *SQLiteRepository) Append(ctx context.Context, s core.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	records, err := json.Marshal(s.Records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	err = r.queries.InsertSnapshot(ctx, InsertSnapshotParams{
		ID:          s.ID,
		TurmaCodigo: s.ClassCode,
		TurmaLabel:  s.ClassLabel,
		Horario:     s.Schedule,
		Professor:   s.Teacher,
		Mes:         s.Month,
		SavedAt:     s.SavedAt,
		Source:      s.Source,
		Registros:   string(records),
	})
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldSnapshotID, s.ID,
		applog.FieldMonth, s.Month,
		applog.FieldClass, s.Identifier(),
		"records", len(s.Records))
	return nil
}

// List returns snapshots in insertion order. Rows whose records cannot be
// decoded are skipped and logged.
func (r *SQLiteRepository) List(ctx context.Context, month string) ([]core.Snapshot, error) {
	rows, err := r.queries.ListSnapshots(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]core.Snapshot, 0, len(rows))
	for _, row := range rows {
		var records []core.AttendanceRecord
		if err := json.Unmarshal([]byte(row.Registros), &records); err != nil {
			slog.WarnContext(ctx, "Skipping unreadable snapshot",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldSnapshotID, row.ID,
				"error", err)
			continue
		}
		out = append(out, core.Snapshot{
			ID:         row.ID,
			ClassCode:  row.TurmaCodigo,
			ClassLabel: row.TurmaLabel,
			Schedule:   row.Horario,
			Teacher:    row.Professor,
			Month:      row.Mes,
			SavedAt:    row.SavedAt,
			Source:     row.Source,
			Records:    records,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) ListClasses(ctx context.Context) ([]core.ClassRecord, error) {
	rows, err := r.queries.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	out := make([]core.ClassRecord, 0, len(rows))
	for _, c := range rows {
		out = append(out, core.ClassRecord{
			ID:       c.ID,
			UnitID:   c.UnitID,
			Code:     c.Codigo,
			Label:    c.TurmaLabel,
			Schedule: c.Horario,
			Teacher:  c.Professor,
			Level:    c.Nivel,
			AgeRange: c.FaixaEtaria,
			Capacity: int(c.Capacidade),
			Weekdays: c.DiasSemana,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) ListStudents(ctx context.Context) ([]core.StudentRecord, error) {
	rows, err := r.queries.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make([]core.StudentRecord, 0, len(rows))
	for _, s := range rows {
		out = append(out, core.StudentRecord{
			ID:               s.ID,
			ClassID:          s.ClassID,
			Name:             s.Nome,
			WhatsApp:         s.Whatsapp,
			BirthDate:        s.DataNascimento,
			CertificateDate:  s.DataAtestado,
			Category:         s.Categoria,
			Gender:           s.Genero,
			MedicalClearance: s.Parq,
			HasCertificate:   s.Atestado,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) UpsertClass(ctx context.Context, c core.ClassRecord) (core.ClassRecord, error) {
	if c.Code == "" && c.Label == "" {
		return core.ClassRecord{}, core.ErrMissingClass
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	code := c.Code
	if code == "" {
		code = c.Label
	}
	id, err := r.queries.UpsertClass(ctx, UpsertClassParams{
		ID:          c.ID,
		UnitID:      c.UnitID,
		Codigo:      c.Code,
		CodigoKey:   normalize.Fold(code),
		TurmaLabel:  c.Label,
		Horario:     c.Schedule,
		HorarioKey:  normalize.Schedule(c.Schedule),
		Professor:   c.Teacher,
		Nivel:       c.Level,
		FaixaEtaria: c.AgeRange,
		Capacidade:  int64(c.Capacity),
		DiasSemana:  c.Weekdays,
	})
	if err != nil {
		return core.ClassRecord{}, fmt.Errorf("upsert class: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *SQLiteRepository) UpsertStudent(ctx context.Context, s core.StudentRecord) (core.StudentRecord, error) {
	key := normalize.Fold(s.Name)
	if key == "" {
		return core.StudentRecord{}, core.ErrMissingStudent
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	id, err := r.queries.UpsertStudent(ctx, UpsertStudentParams{
		ID:             s.ID,
		ClassID:        s.ClassID,
		Nome:           s.Name,
		NomeKey:        key,
		Whatsapp:       s.WhatsApp,
		DataNascimento: s.BirthDate,
		DataAtestado:   s.CertificateDate,
		Categoria:      s.Category,
		Genero:         s.Gender,
		Parq:           s.MedicalClearance,
		Atestado:       s.HasCertificate,
	})
	if err != nil {
		return core.StudentRecord{}, fmt.Errorf("upsert student: %w", err)
	}
	s.ID = id
	return s, nil
}

func (r *SQLiteRepository) ListExclusions(ctx context.Context) ([]core.Exclusion, error) {
	rows, err := r.queries.ListExclusions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exclusions: %w", err)
	}
	out := make([]core.Exclusion, 0, len(rows))
	for _, e := range rows {
		out = append(out, core.Exclusion{
			ID:          e.ID,
			StudentName: e.Nome,
			ClassCode:   e.TurmaCodigo,
			ClassLabel:  e.TurmaLabel,
			Schedule:    e.Horario,
			Teacher:     e.Professor,
			Date:        e.DataExclusao,
			Reason:      e.MotivoExclusao,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) AddExclusion(ctx context.Context, e core.Exclusion) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.queries.InsertExclusion(ctx, Exclusion{
		ID:             e.ID,
		Nome:           e.StudentName,
		TurmaCodigo:    e.ClassCode,
		TurmaLabel:     e.ClassLabel,
		Horario:        e.Schedule,
		Professor:      e.Teacher,
		DataExclusao:   e.Date,
		MotivoExclusao: e.Reason,
	})
	if err != nil {
		return fmt.Errorf("insert exclusion: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExclusion(ctx context.Context, id string) error {
	n, err := r.queries.DeleteExclusion(ctx, id)
	if err != nil {
		return fmt.Errorf("delete exclusion: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("exclusion %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) LoadCalendar(ctx context.Context) (core.CalendarSettings, error) {
	var cs core.CalendarSettings
	settings, err := r.queries.GetCalendarSettings(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return cs, fmt.Errorf("get calendar settings: %w", err)
	default:
		cs.AcademicYearStart = settings.AcademicYearStart
		cs.AcademicYearEnd = settings.AcademicYearEnd
		cs.WinterBreakStart = settings.WinterBreakStart
		cs.WinterBreakEnd = settings.WinterBreakEnd
	}

	if cs.ClosedDates, err = r.queries.ListClosedDates(ctx); err != nil {
		return cs, fmt.Errorf("list closed dates: %w", err)
	}
	events, err := r.queries.ListCalendarEvents(ctx)
	if err != nil {
		return cs, fmt.Errorf("list calendar events: %w", err)
	}
	for _, ev := range events {
		cs.Events = append(cs.Events, core.CalendarEvent{
			Date:        ev.Date,
			Type:        ev.Type,
			AllDay:      ev.AllDay,
			Description: ev.Description,
		})
	}
	return cs, nil
}

// SaveCalendar replaces the stored calendar in one transaction.
func (r *SQLiteRepository) SaveCalendar(ctx context.Context, cs core.CalendarSettings) error {
	if err := cs.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	if err := q.UpsertCalendarSettings(ctx, CalendarSetting{
		AcademicYearStart: cs.AcademicYearStart,
		AcademicYearEnd:   cs.AcademicYearEnd,
		WinterBreakStart:  cs.WinterBreakStart,
		WinterBreakEnd:    cs.WinterBreakEnd,
	}); err != nil {
		return fmt.Errorf("save calendar settings: %w", err)
	}
	if err := q.ClearClosedDates(ctx); err != nil {
		return fmt.Errorf("clear closed dates: %w", err)
	}
	for _, d := range cs.ClosedDates {
		if err := q.InsertClosedDate(ctx, d); err != nil {
			return fmt.Errorf("insert closed date %s: %w", d, err)
		}
	}
	if err := q.ClearCalendarEvents(ctx); err != nil {
		return fmt.Errorf("clear calendar events: %w", err)
	}
	for _, ev := range cs.Events {
		if err := q.InsertCalendarEvent(ctx, CalendarEvent{
			Date:        ev.Date,
			Type:        ev.Type,
			AllDay:      ev.AllDay,
			Description: ev.Description,
		}); err != nil {
			return fmt.Errorf("insert calendar event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit calendar: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Snapshot struct {
	Seq         int64
	ID          string
	TurmaCodigo string
	TurmaLabel  string
	Horario     string
	Professor   string
	Mes         string
	SavedAt     string
	Source      string
	Registros   string
}

const insertSnapshot = `-- name: InsertSnapshot :exec
INSERT INTO snapshots (id, turma_codigo, turma_label, horario, professor, mes, saved_at, source, registros)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertSnapshotParams struct {
	ID          string
	TurmaCodigo string
	TurmaLabel  string
	Horario     string
	Professor   string
	Mes         string
	SavedAt     string
	Source      string
	Registros   string
}

func (q *Queries) InsertSnapshot(ctx context.Context, arg InsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, insertSnapshot,
		arg.ID, arg.TurmaCodigo, arg.TurmaLabel, arg.Horario, arg.Professor,
		arg.Mes, arg.SavedAt, arg.Source, arg.Registros,
	)
	return err
}

const listSnapshots = `-- name: ListSnapshots :many
SELECT seq, id, turma_codigo, turma_label, horario, professor, mes, saved_at, source, registros
FROM snapshots
WHERE (?1 = '' OR mes = ?1)
ORDER BY seq`

func (q *Queries) ListSnapshots(ctx context.Context, mes string) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshots, mes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Snapshot
	for rows.Next() {
		var i Snapshot
		if err := rows.Scan(&i.Seq, &i.ID, &i.TurmaCodigo, &i.TurmaLabel, &i.Horario,
			&i.Professor, &i.Mes, &i.SavedAt, &i.Source, &i.Registros); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type Class struct {
	ID          string
	UnitID      string
	Codigo      string
	TurmaLabel  string
	Horario     string
	Professor   string
	Nivel       string
	FaixaEtaria string
	Capacidade  int64
	DiasSemana  string
}

const listClasses = `-- name: ListClasses :many
SELECT id, unit_id, codigo, turma_label, horario, professor, nivel, faixa_etaria, capacidade, dias_semana
FROM classes
ORDER BY turma_label, horario_key, codigo`

func (q *Queries) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := q.db.QueryContext(ctx, listClasses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Class
	for rows.Next() {
		var i Class
		if err := rows.Scan(&i.ID, &i.UnitID, &i.Codigo, &i.TurmaLabel, &i.Horario,
			&i.Professor, &i.Nivel, &i.FaixaEtaria, &i.Capacidade, &i.DiasSemana); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertClass = `-- name: UpsertClass :one
INSERT INTO classes (id, unit_id, codigo, codigo_key, turma_label, horario, horario_key, professor, nivel, faixa_etaria, capacidade, dias_semana)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (unit_id, codigo_key, horario_key) DO UPDATE SET
    codigo = excluded.codigo,
    turma_label = excluded.turma_label,
    horario = excluded.horario,
    professor = excluded.professor,
    nivel = excluded.nivel,
    faixa_etaria = excluded.faixa_etaria,
    capacidade = excluded.capacidade,
    dias_semana = excluded.dias_semana
RETURNING id`

type UpsertClassParams struct {
	ID          string
	UnitID      string
	Codigo      string
	CodigoKey   string
	TurmaLabel  string
	Horario     string
	HorarioKey  string
	Professor   string
	Nivel       string
	FaixaEtaria string
	Capacidade  int64
	DiasSemana  string
}

func (q *Queries) UpsertClass(ctx context.Context, arg UpsertClassParams) (string, error) {
	row := q.db.QueryRowContext(ctx, upsertClass,
		arg.ID, arg.UnitID, arg.Codigo, arg.CodigoKey, arg.TurmaLabel, arg.Horario, arg.HorarioKey,
		arg.Professor, arg.Nivel, arg.FaixaEtaria, arg.Capacidade, arg.DiasSemana,
	)
	var id string
	err := row.Scan(&id)
	return id, err
}

type Student struct {
	ID             string
	ClassID        string
	Nome           string
	Whatsapp       string
	DataNascimento string
	DataAtestado   string
	Categoria      string
	Genero         string
	Parq           string
	Atestado       bool
}

const listStudents = `-- name: ListStudents :many
SELECT id, class_id, nome, whatsapp, data_nascimento, data_atestado, categoria, genero, parq, atestado
FROM students
ORDER BY nome_key`

func (q *Queries) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := q.db.QueryContext(ctx, listStudents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Student
	for rows.Next() {
		var i Student
		if err := rows.Scan(&i.ID, &i.ClassID, &i.Nome, &i.Whatsapp, &i.DataNascimento,
			&i.DataAtestado, &i.Categoria, &i.Genero, &i.Parq, &i.Atestado); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertStudent = `-- name: UpsertStudent :one
INSERT INTO students (id, class_id, nome, nome_key, whatsapp, data_nascimento, data_atestado, categoria, genero, parq, atestado)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (class_id, nome_key) DO UPDATE SET
    nome = excluded.nome,
    whatsapp = excluded.whatsapp,
    data_nascimento = excluded.data_nascimento,
    data_atestado = excluded.data_atestado,
    categoria = excluded.categoria,
    genero = excluded.genero,
    parq = excluded.parq,
    atestado = excluded.atestado
RETURNING id`

type UpsertStudentParams struct {
	ID             string
	ClassID        string
	Nome           string
	NomeKey        string
	Whatsapp       string
	DataNascimento string
	DataAtestado   string
	Categoria      string
	Genero         string
	Parq           string
	Atestado       bool
}

func (q *Queries) UpsertStudent(ctx context.Context, arg UpsertStudentParams) (string, error) {
	row := q.db.QueryRowContext(ctx, upsertStudent,
		arg.ID, arg.ClassID, arg.Nome, arg.NomeKey, arg.Whatsapp, arg.DataNascimento,
		arg.DataAtestado, arg.Categoria, arg.Genero, arg.Parq, arg.Atestado,
	)
	var id string
	err := row.Scan(&id)
	return id, err
}

type Exclusion struct {
	ID             string
	Nome           string
	TurmaCodigo    string
	TurmaLabel     string
	Horario        string
	Professor      string
	DataExclusao   string
	MotivoExclusao string
}

const listExclusions = `-- name: ListExclusions :many
SELECT id, nome, turma_codigo, turma_label, horario, professor, data_exclusao, motivo_exclusao
FROM exclusions
ORDER BY created_at, id`

func (q *Queries) ListExclusions(ctx context.Context) ([]Exclusion, error) {
	rows, err := q.db.QueryContext(ctx, listExclusions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Exclusion
	for rows.Next() {
		var i Exclusion
		if err := rows.Scan(&i.ID, &i.Nome, &i.TurmaCodigo, &i.TurmaLabel, &i.Horario,
			&i.Professor, &i.DataExclusao, &i.MotivoExclusao); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const insertExclusion = `-- name: InsertExclusion :exec
INSERT INTO exclusions (id, nome, turma_codigo, turma_label, horario, professor, data_exclusao, motivo_exclusao)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertExclusion(ctx context.Context, arg Exclusion) error {
	_, err := q.db.ExecContext(ctx, insertExclusion,
		arg.ID, arg.Nome, arg.TurmaCodigo, arg.TurmaLabel, arg.Horario,
		arg.Professor, arg.DataExclusao, arg.MotivoExclusao,
	)
	return err
}

const deleteExclusion = `-- name: DeleteExclusion :execrows
DELETE FROM exclusions WHERE id = ?`

func (q *Queries) DeleteExclusion(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExclusion, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type CalendarSetting struct {
	AcademicYearStart string
	AcademicYearEnd   string
	WinterBreakStart  string
	WinterBreakEnd    string
}

const getCalendarSettings = `-- name: GetCalendarSettings :one
SELECT academic_year_start, academic_year_end, winter_break_start, winter_break_end
FROM calendar_settings WHERE id = 1`

func (q *Queries) GetCalendarSettings(ctx context.Context) (CalendarSetting, error) {
	row := q.db.QueryRowContext(ctx, getCalendarSettings)
	var i CalendarSetting
	err := row.Scan(&i.AcademicYearStart, &i.AcademicYearEnd, &i.WinterBreakStart, &i.WinterBreakEnd)
	return i, err
}

const upsertCalendarSettings = `-- name: UpsertCalendarSettings :exec
INSERT INTO calendar_settings (id, academic_year_start, academic_year_end, winter_break_start, winter_break_end)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    academic_year_start = excluded.academic_year_start,
    academic_year_end = excluded.academic_year_end,
    winter_break_start = excluded.winter_break_start,
    winter_break_end = excluded.winter_break_end`

func (q *Queries) UpsertCalendarSettings(ctx context.Context, arg CalendarSetting) error {
	_, err := q.db.ExecContext(ctx, upsertCalendarSettings,
		arg.AcademicYearStart, arg.AcademicYearEnd, arg.WinterBreakStart, arg.WinterBreakEnd,
	)
	return err
}

const listClosedDates = `-- name: ListClosedDates :many
SELECT date FROM calendar_closed_dates ORDER BY date`

func (q *Queries) ListClosedDates(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listClosedDates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

const clearClosedDates = `-- name: ClearClosedDates :exec
DELETE FROM calendar_closed_dates`

func (q *Queries) ClearClosedDates(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearClosedDates)
	return err
}

const insertClosedDate = `-- name: InsertClosedDate :exec
INSERT OR IGNORE INTO calendar_closed_dates (date) VALUES (?)`

func (q *Queries) InsertClosedDate(ctx context.Context, date string) error {
	_, err := q.db.ExecContext(ctx, insertClosedDate, date)
	return err
}

type CalendarEvent struct {
	Date        string
	Type        string
	AllDay      bool
	Description string
}

const listCalendarEvents = `-- name: ListCalendarEvents :many
SELECT date, type, all_day, description FROM calendar_events ORDER BY date, id`

func (q *Queries) ListCalendarEvents(ctx context.Context) ([]CalendarEvent, error) {
	rows, err := q.db.QueryContext(ctx, listCalendarEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CalendarEvent
	for rows.Next() {
		var i CalendarEvent
		if err := rows.Scan(&i.Date, &i.Type, &i.AllDay, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const clearCalendarEvents = `-- name: ClearCalendarEvents :exec
DELETE FROM calendar_events`

func (q *Queries) ClearCalendarEvents(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearCalendarEvents)
	return err
}

const insertCalendarEvent = `-- name: InsertCalendarEvent :exec
INSERT INTO calendar_events (date, type, all_day, description) VALUES (?, ?, ?, ?)`

func (q *Queries) InsertCalendarEvent(ctx context.Context, arg CalendarEvent) error {
	_, err := q.db.ExecContext(ctx, insertCalendarEvent, arg.Date, arg.Type, arg.AllDay, arg.Description)
	return err
}

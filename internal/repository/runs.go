package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/dist1-extractor/internal/common"
	"github.com/joseph-ayodele/dist1-extractor/internal/entity"
)

type RunRepository interface {
	SaveRun(ctx context.Context, run entity.Run, measurements []entity.Measurement) error
	GetRun(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	ListRuns(ctx context.Context, limit int) ([]entity.Run, error)
	ListMeasurements(ctx context.Context, runID uuid.UUID) ([]entity.Measurement, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log}
}

const runColumns = `id, folder, lang, state, percent, message, submitted_at, started_at, finished_at,
	workbook_path, csv_path, error, workbook_error`

// SaveRun upserts the run and replaces its measurements in one transaction.
func (r *runRepo) SaveRun(ctx context.Context, run entity.Run, measurements []entity.Measurement) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, r.db.rebind(`INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			folder = excluded.folder,
			lang = excluded.lang,
			state = excluded.state,
			percent = excluded.percent,
			message = excluded.message,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			workbook_path = excluded.workbook_path,
			csv_path = excluded.csv_path,
			error = excluded.error,
			workbook_error = excluded.workbook_error`),
		run.ID.String(), run.Folder, run.Lang, run.State, run.Percent, run.Message,
		formatTime(run.SubmittedAt), nullTime(run.StartedAt), nullTime(run.FinishedAt),
		run.WorkbookPath, run.CSVPath, run.Error, run.WorkbookError,
	)
	if err != nil {
		r.log.Error("run upsert failed", "run_id", run.ID, "err", err)
		return fmt.Errorf("upsert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, r.db.rebind(`DELETE FROM measurements WHERE run_id = ?`), run.ID.String()); err != nil {
		return fmt.Errorf("clear measurements: %w", err)
	}
	insert := r.db.rebind(`INSERT INTO measurements
		(run_id, seq, file_name, value, grp, is_group_max, tier, missing)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, m := range measurements {
		if _, err := tx.ExecContext(ctx, insert,
			run.ID.String(), i, m.FileName, m.Value, m.Group, m.IsGroupMax, m.Tier, m.Missing,
		); err != nil {
			return fmt.Errorf("insert measurement %s: %w", m.FileName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Info("run saved", "run_id", run.ID, "state", run.State, "measurements", len(measurements))
	return nil
}

func (r *runRepo) GetRun(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", "run "+id.String()+" not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (r *runRepo) ListRuns(ctx context.Context, limit int) ([]entity.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.SQL.QueryContext(ctx,
		r.db.rebind(`SELECT `+runColumns+` FROM runs ORDER BY submitted_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func (r *runRepo) ListMeasurements(ctx context.Context, runID uuid.UUID) ([]entity.Measurement, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT file_name, value, grp, is_group_max, tier, missing
		FROM measurements WHERE run_id = ? ORDER BY seq`), runID.String())
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.Measurement
	for rows.Next() {
		var m entity.Measurement
		if err := rows.Scan(&m.FileName, &m.Value, &m.Group, &m.IsGroupMax, &m.Tier, &m.Missing); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*entity.Run, error) {
	var (
		run               entity.Run
		id, submitted     string
		started, finished sql.NullString
	)
	if err := s.Scan(&id, &run.Folder, &run.Lang, &run.State, &run.Percent, &run.Message,
		&submitted, &started, &finished,
		&run.WorkbookPath, &run.CSVPath, &run.Error, &run.WorkbookError,
	); err != nil {
		return nil, err
	}
	var err error
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse run id: %w", err)
	}
	if run.SubmittedAt, err = time.Parse(time.RFC3339Nano, submitted); err != nil {
		return nil, fmt.Errorf("parse submitted_at: %w", err)
	}
	run.StartedAt = parseNullTime(started)
	run.FinishedAt = parseNullTime(finished)
	return &run, nil
}

// timeLayout keeps all nine fractional digits so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}

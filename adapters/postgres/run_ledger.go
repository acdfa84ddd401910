// Package postgres persists verification runs and their checks.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	// Registers the postgres driver for sqlx.Connect.
	_ "github.com/lib/pq"

	"gocascade/domain/core"
	"gocascade/domain/run"
	"gocascade/ports"
)

// runLedger implements the RunLedger interface on PostgreSQL
type runLedger struct {
	db *sqlx.DB
}

// Connect opens a database handle and verifies it with a ping
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// NewRunLedger creates a postgres-backed run ledger
func NewRunLedger(db *sqlx.DB) ports.RunLedger {
	return &runLedger{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	suite         TEXT NOT NULL,
	target        TEXT NOT NULL DEFAULT '',
	seed          BIGINT NOT NULL DEFAULT 0,
	status        TEXT NOT NULL,
	passed        INTEGER NOT NULL DEFAULT 0,
	failed        INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS checks (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	name         TEXT NOT NULL,
	column_name  TEXT NOT NULL DEFAULT '',
	stat         TEXT NOT NULL DEFAULT '',
	remote_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	local_value  DOUBLE PRECISION NOT NULL DEFAULT 0,
	delta        DOUBLE PRECISION NOT NULL DEFAULT 0,
	tolerance    DOUBLE PRECISION NOT NULL DEFAULT 0,
	passed       BOOLEAN NOT NULL,
	detail       TEXT NOT NULL DEFAULT '',
	checked_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_suite ON runs(suite);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_checks_run_id ON checks(run_id);
`

// EnsureSchema creates the runs and checks tables if they do not exist
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return nil
}

// RecordRun inserts a run summary row, replacing any prior row with the same id
func (l *runLedger) RecordRun(ctx context.Context, r run.Run) error {
	query := `INSERT INTO runs (
		id, suite, target, seed, status, passed, failed, error_message, started_at, finished_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		passed = EXCLUDED.passed,
		failed = EXCLUDED.failed,
		error_message = EXCLUDED.error_message,
		finished_at = EXCLUDED.finished_at`

	_, err := l.db.ExecContext(ctx, query,
		r.ID, r.Suite, r.Target, r.Seed, r.Status, r.Passed, r.Failed,
		r.Error, r.StartedAt.Time(), r.FinishedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.ID, err)
	}
	return nil
}

// RecordChecks inserts the checks belonging to one or more runs
func (l *runLedger) RecordChecks(ctx context.Context, checks []run.Check) error {
	if len(checks) == 0 {
		return nil
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO checks (
		id, run_id, name, column_name, stat, remote_value, local_value,
		delta, tolerance, passed, detail, checked_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, c := range checks {
		if _, err := tx.ExecContext(ctx, query,
			c.ID, c.RunID, c.Name, c.Column, c.Stat, c.Remote, c.Local,
			c.Delta, c.Tolerance, c.Passed, c.Detail, c.CheckedAt.Time(),
		); err != nil {
			return fmt.Errorf("failed to record check %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checks: %w", err)
	}
	return nil
}

// ListRuns returns run summaries, newest first
func (l *runLedger) ListRuns(ctx context.Context, filters ports.RunFilters) ([]run.Run, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, suite, target, seed, status, passed, failed,
		error_message, started_at, finished_at FROM runs`)

	var conds []string
	var args []interface{}
	if filters.Suite != "" {
		args = append(args, filters.Suite)
		conds = append(conds, "suite = $"+strconv.Itoa(len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY started_at DESC")
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	rows, err := l.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []run.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run and its checks
func (l *runLedger) GetRun(ctx context.Context, id core.RunID) (run.Run, []run.Check, error) {
	query := `SELECT id, suite, target, seed, status, passed, failed,
		error_message, started_at, finished_at FROM runs WHERE id = $1`

	row := l.db.QueryRowContext(ctx, query, id)
	r, err := scanRunRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run.Run{}, nil, fmt.Errorf("%w: run %s", core.ErrNotFound, id)
		}
		return run.Run{}, nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	checks, err := l.checksForRun(ctx, id)
	if err != nil {
		return run.Run{}, nil, err
	}
	return r, checks, nil
}

func (l *runLedger) checksForRun(ctx context.Context, id core.RunID) ([]run.Check, error) {
	query := `SELECT id, run_id, name, column_name, stat, remote_value, local_value,
		delta, tolerance, passed, detail, checked_at
	FROM checks WHERE run_id = $1 ORDER BY checked_at, id`

	rows, err := l.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list checks for run %s: %w", id, err)
	}
	defer rows.Close()

	var checks []run.Check
	for rows.Next() {
		var c run.Check
		var checkedAt sql.NullTime
		if err := rows.Scan(
			&c.ID, &c.RunID, &c.Name, &c.Column, &c.Stat, &c.Remote, &c.Local,
			&c.Delta, &c.Tolerance, &c.Passed, &c.Detail, &checkedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		if checkedAt.Valid {
			c.CheckedAt = core.NewTimestamp(checkedAt.Time)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s rowScanner) (run.Run, error) {
	r, err := scanRunRow(s)
	if err != nil {
		return run.Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	return r, nil
}

func scanRunRow(s rowScanner) (run.Run, error) {
	var r run.Run
	var started, finished sql.NullTime
	if err := s.Scan(
		&r.ID, &r.Suite, &r.Target, &r.Seed, &r.Status, &r.Passed, &r.Failed,
		&r.Error, &started, &finished,
	); err != nil {
		return run.Run{}, err
	}
	if started.Valid {
		r.StartedAt = core.NewTimestamp(started.Time)
	}
	if finished.Valid {
		r.FinishedAt = core.NewTimestamp(finished.Time)
	}
	return r, nil
}

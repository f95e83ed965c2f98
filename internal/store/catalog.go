package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Catalog records every run in a SQLite database so past result documents
// can be found and re-enriched later.
type Catalog struct {
	db *sqlx.DB
}

// RunRecord is one catalog row.
type RunRecord struct {
	ID           string       `db:"id" json:"id"`
	Industry     string       `db:"industry" json:"industry"`
	Market       string       `db:"market" json:"market"`
	Mode         string       `db:"mode" json:"mode"`
	Status       string       `db:"status" json:"status"`
	OutputPath   string       `db:"output_path" json:"output_path"`
	StartedAt    time.Time    `db:"started_at" json:"started_at"`
	FinishedAt   sql.NullTime `db:"finished_at" json:"finished_at,omitempty"`
	Questions    int          `db:"questions_processed" json:"questions_processed"`
	APICalls     int          `db:"api_calls" json:"api_calls"`
	FailureCause string       `db:"failure_cause" json:"failure_cause,omitempty"`
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

var catalogSchema = []string{
	`PRAGMA journal_mode = WAL;`,
	`CREATE TABLE IF NOT EXISTS runs (
                id TEXT PRIMARY KEY,
                industry TEXT NOT NULL,
                market TEXT NOT NULL,
                mode TEXT NOT NULL,
                status TEXT NOT NULL,
                output_path TEXT NOT NULL DEFAULT '',
                started_at TIMESTAMP NOT NULL,
                finished_at TIMESTAMP,
                questions_processed INTEGER NOT NULL DEFAULT 0,
                api_calls INTEGER NOT NULL DEFAULT 0,
                failure_cause TEXT NOT NULL DEFAULT ''
        );`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);`,
}

// OpenCatalog opens (and migrates) the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", abs)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	for i, stmt := range catalogSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database resources.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RecordStart inserts a new running row.
func (c *Catalog) RecordStart(ctx context.Context, rec RunRecord) error {
	if rec.Status == "" {
		rec.Status = RunStatusRunning
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	_, err := c.db.NamedExecContext(ctx, `INSERT INTO runs
                (id, industry, market, mode, status, output_path, started_at, questions_processed, api_calls, failure_cause)
                VALUES (:id, :industry, :market, :mode, :status, :output_path, :started_at, :questions_processed, :api_calls, :failure_cause)`, rec)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// RecordCompletion marks a run as completed with its final counters.
func (c *Catalog) RecordCompletion(ctx context.Context, id string, questions, apiCalls int) error {
	res, err := c.db.ExecContext(ctx, `UPDATE runs
                SET status = ?, finished_at = ?, questions_processed = ?, api_calls = ?
                WHERE id = ?`, RunStatusCompleted, time.Now().UTC(), questions, apiCalls, id)
	if err != nil {
		return fmt.Errorf("record run completion: %w", err)
	}
	return requireRow(res, id)
}

// RecordFailure marks a run as failed with its cause.
func (c *Catalog) RecordFailure(ctx context.Context, id, cause string) error {
	res, err := c.db.ExecContext(ctx, `UPDATE runs
                SET status = ?, finished_at = ?, failure_cause = ?
                WHERE id = ?`, RunStatusFailed, time.Now().UTC(), cause, id)
	if err != nil {
		return fmt.Errorf("record run failure: %w", err)
	}
	return requireRow(res, id)
}

// ListRuns returns catalog rows, newest first.
func (c *Catalog) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []RunRecord
	err := c.db.SelectContext(ctx, &runs,
		`SELECT * FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one catalog row by id.
func (c *Catalog) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	var rec RunRecord
	err := c.db.GetContext(ctx, &rec, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &rec, nil
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

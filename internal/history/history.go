// Package history persists verification runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/neboloop/pageverify/internal/logging"
	"github.com/neboloop/pageverify/internal/verify"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// DefaultLimit is the number of runs List returns for a non-positive limit.
const DefaultLimit = 20

// Run is a persisted verification run.
type Run struct {
	ID              string               `json:"id"`
	Plan            string               `json:"plan"`
	Input           string               `json:"input"`
	URL             string               `json:"url,omitempty"`
	Driver          string               `json:"driver"`
	Status          verify.Status        `json:"status"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
	Screenshot      string               `json:"screenshot,omitempty"`
	ScreenshotBytes int                  `json:"screenshot_bytes,omitempty"`
	Error           string               `json:"error,omitempty"`
	Checks          []verify.CheckResult `json:"checks"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store is the run history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	// Watch and schedule triggers share one store
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history: %w", err)
	}

	logging.Debugf("history database opened at %s", path)
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		logging.Debugf("history migration applied: %s", r.Source.Path)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores res. Recording the same run id twice replaces the row.
func (s *Store) Record(ctx context.Context, res *verify.Result) error {
	checks, err := json.Marshal(res.Checks)
	if err != nil {
		return fmt.Errorf("encode checks: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, plan, input, url, driver, status, started_at, finished_at,
			 screenshot, screenshot_bytes, error, checks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Plan, res.Input, res.URL, res.Driver, string(res.Status),
		res.StartedAt.UnixMilli(), res.FinishedAt.UnixMilli(),
		res.Screenshot, res.ScreenshotBytes, res.Error, string(checks),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", res.ID, err)
	}
	return nil
}

const selectRuns = `
	SELECT id, plan, input, url, driver, status, started_at, finished_at,
	       screenshot, screenshot_bytes, error, checks
	FROM runs`

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run               Run
		status            string
		started, finished int64
		checks            string
	)
	err := sc.Scan(&run.ID, &run.Plan, &run.Input, &run.URL, &run.Driver, &status,
		&started, &finished, &run.Screenshot, &run.ScreenshotBytes, &run.Error, &checks)
	if err != nil {
		return Run{}, err
	}

	run.Status = verify.Status(status)
	run.StartedAt = time.UnixMilli(started)
	run.FinishedAt = time.UnixMilli(finished)
	if err := json.Unmarshal([]byte(checks), &run.Checks); err != nil {
		return Run{}, fmt.Errorf("decode checks for run %s: %w", run.ID, err)
	}
	return run, nil
}

// Result converts the stored run back to a verify.Result. Snapshot and
// console output are not persisted.
func (r Run) Result() *verify.Result {
	return &verify.Result{
		ID:              r.ID,
		Plan:            r.Plan,
		Input:           r.Input,
		URL:             r.URL,
		Driver:          r.Driver,
		Status:          r.Status,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		Checks:          r.Checks,
		Screenshot:      r.Screenshot,
		ScreenshotBytes: r.ScreenshotBytes,
		Error:           r.Error,
	}
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/removalscan/internal/model"
)

// DefaultFilename is the history database file name inside its directory.
const DefaultFilename = "history.db"

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores update runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DefaultFilename)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return h, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		collected INTEGER NOT NULL,
		added INTEGER NOT NULL,
		total INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS source_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		records INTEGER NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_source_runs_run ON source_runs(run_id);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a run and its per-source results in one transaction. It
// sets run.ID and returns it.
func (h *HistoryDB) SaveRun(ctx context.Context, run *model.Run) (id int64, err error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, collected, added, total)
	VALUES (?, ?, ?, ?, ?)
	`,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		run.Collected, run.Added, run.Total,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for i, s := range run.Sources {
		var errText sql.NullString
		if s.Error != "" {
			errText = sql.NullString{String: s.Error, Valid: true}
		}
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO source_runs (run_id, position, name, records, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, s.Name, s.Records, errText, s.Duration.Milliseconds()); err != nil {
			return 0, fmt.Errorf("failed to insert source run: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	run.ID = id
	return id, nil
}

// ListRuns returns the most recent runs, newest first, without their
// per-source results. A limit of zero or less returns every run.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	query := `
	SELECT id, started_at, finished_at, collected, added, total
	FROM runs
	ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]model.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its per-source results.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	row := h.db.QueryRowContext(ctx, `
	SELECT id, started_at, finished_at, collected, added, total
	FROM runs
	WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := h.db.QueryContext(ctx, `
	SELECT name, records, error, duration_ms
	FROM source_runs
	WHERE run_id = ?
	ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get source runs: %w", err)
	}
	defer rows.Close()

	run.Sources = make([]model.SourceRun, 0)
	for rows.Next() {
		var s model.SourceRun
		var errText sql.NullString
		var ms int64
		if err := rows.Scan(&s.Name, &s.Records, &errText, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan source run: %w", err)
		}
		s.Error = errText.String
		s.Duration = time.Duration(ms) * time.Millisecond
		run.Sources = append(run.Sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.Run, error) {
	var run model.Run
	var started, finished string
	if err := s.Scan(&run.ID, &started, &finished, &run.Collected, &run.Added, &run.Total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	return run, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that may be stored.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a stored timestamp, returning the zero time if no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

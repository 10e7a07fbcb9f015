// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records conversion runs and per-file outcomes in a SQLite
// database kept next to the Markdown output. The ledger lets later runs skip
// unchanged sources and backs the history command.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/textmify/pkg/types"
)

const (
	// Dir is the hidden directory under the output folder holding the ledger.
	Dir    = ".textmify"
	dbFile = "ledger.db"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run summarises one invocation of the converter.
type Run struct {
	ID         int64     `json:"id" yaml:"id"`
	InputDir   string    `json:"input_dir" yaml:"input_dir"`
	OutputDir  string    `json:"output_dir" yaml:"output_dir"`
	Backend    string    `json:"backend" yaml:"backend"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`

	Counts Counts `json:"counts" yaml:"counts"`

	Interrupted bool `json:"interrupted" yaml:"interrupted"`
}

// Counts holds the per-status totals of a run.
type Counts struct {
	Converted   int `json:"converted" yaml:"converted"`
	Partial     int `json:"partial" yaml:"partial"`
	Skipped     int `json:"skipped" yaml:"skipped"`
	Unsupported int `json:"unsupported" yaml:"unsupported"`
	Failed      int `json:"failed" yaml:"failed"`
}

// Total returns the number of files the run processed.
func (c Counts) Total() int {
	return c.Converted + c.Partial + c.Skipped + c.Unsupported + c.Failed
}

// Entry is one recorded conversion.
type Entry struct {
	RunID      int64                  `json:"run_id" yaml:"run_id"`
	SourcePath string                 `json:"source_path" yaml:"source_path"`
	Size       int64                  `json:"size" yaml:"size"`
	ModTime    time.Time              `json:"mod_time" yaml:"mod_time"`
	OutputPath string                 `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Status     types.ConversionStatus `json:"status" yaml:"status"`
	Attempts   int                    `json:"attempts" yaml:"attempts"`
	Words      int                    `json:"words" yaml:"words"`
	Error      string                 `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS int64                  `json:"duration_ms" yaml:"duration_ms"`
	RecordedAt time.Time              `json:"recorded_at" yaml:"recorded_at"`
}

// Store manages the ledger database.
type Store struct {
	db   *sql.DB
	path string
}

// Path returns the ledger location for an output directory.
func Path(outputDir string) string {
	return filepath.Join(outputDir, Dir, dbFile)
}

// Open opens or creates the ledger under outputDir/.textmify/ledger.db and
// creates the schema if it does not exist.
func Open(outputDir string) (*Store, error) {
	path := Path(outputDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Exists reports whether outputDir already holds a ledger.
func Exists(outputDir string) bool {
	_, err := os.Stat(Path(outputDir))
	return err == nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input_dir TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			backend TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			converted INTEGER NOT NULL DEFAULT 0,
			partial INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			unsupported INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			interrupted INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS conversions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			source_path TEXT NOT NULL,
			size INTEGER,
			mod_time TEXT,
			output_path TEXT,
			status TEXT NOT NULL,
			attempts INTEGER,
			words INTEGER,
			error TEXT,
			duration_ms INTEGER,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_run_id ON conversions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_source ON conversions(source_path)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun inserts a new run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, inputDir, outputDir, backend string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (input_dir, output_dir, backend, started_at) VALUES (?, ?, ?, ?)`,
		inputDir, outputDir, backend, formatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// Record stores the outcome of one file under runID.
func (s *Store) Record(ctx context.Context, runID int64, r types.ConversionResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (run_id, source_path, size, mod_time, output_path, status, attempts, words, error, duration_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, absPath(r.Source.Path), r.Source.Size, formatTime(r.Source.ModTime),
		r.OutputPath, string(r.Status), r.Attempts, r.Words, r.Error,
		r.Duration.Milliseconds(), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", r.Source.Path, err)
	}
	return nil
}

// FinishRun stores the final counts of runID.
func (s *Store) FinishRun(ctx context.Context, runID int64, c Counts, interrupted bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, converted = ?, partial = ?, skipped = ?,
			unsupported = ?, failed = ?, interrupted = ?
		 WHERE id = ?`,
		formatTime(time.Now()), c.Converted, c.Partial, c.Skipped,
		c.Unsupported, c.Failed, interrupted, runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %d: %w", runID, ErrRunNotFound)
	}
	return nil
}

// LastSuccess returns the most recent entry for sourcePath whose status left
// a Markdown file behind. ok is false when there is none.
func (s *Store) LastSuccess(ctx context.Context, sourcePath string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM conversions
		 WHERE source_path = ? AND status IN (?, ?, ?) AND output_path != ''
		 ORDER BY rowid DESC LIMIT 1`,
		absPath(sourcePath),
		string(types.ConversionDone), string(types.ConversionPartial), string(types.ConversionNone),
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("querying %s: %w", sourcePath, err)
	}
	return e, true, nil
}

// UpToDate reports whether src matches its last successful entry by size and
// modification time and outPath still exists. Ledger errors count as stale.
func (s *Store) UpToDate(ctx context.Context, src types.SourceFile, outPath string) bool {
	e, ok, err := s.LastSuccess(ctx, src.Path)
	if err != nil || !ok {
		return false
	}
	if e.Size != src.Size || !e.ModTime.Equal(src.ModTime.UTC()) {
		return false
	}
	if absPath(e.OutputPath) != absPath(outPath) {
		return false
	}
	_, err = os.Stat(outPath)
	return err == nil
}

// Runs returns the most recent runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, input_dir, output_dir, backend, started_at, finished_at,
			converted, partial, skipped, unsupported, failed, interrupted
		 FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a single run.
func (s *Store) GetRun(ctx context.Context, id int64) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input_dir, output_dir, backend, started_at, finished_at,
			converted, partial, skipped, unsupported, failed, interrupted
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	return r, err
}

// Conversions returns the entries recorded for runID in insertion order.
func (s *Store) Conversions(ctx context.Context, runID int64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM conversions WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const entryColumns = `run_id, source_path, size, mod_time, output_path, status, attempts, words, error, duration_ms, recorded_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e                   Entry
		status              string
		modTime, recordedAt string
		outputPath, errText sql.NullString
	)
	err := sc.Scan(&e.RunID, &e.SourcePath, &e.Size, &modTime, &outputPath,
		&status, &e.Attempts, &e.Words, &errText, &e.DurationMS, &recordedAt)
	if err != nil {
		return Entry{}, err
	}
	e.Status = types.ConversionStatus(status)
	e.OutputPath = outputPath.String
	e.Error = errText.String
	e.ModTime = parseTime(modTime)
	e.RecordedAt = parseTime(recordedAt)
	return e, nil
}

func scanRun(sc scanner) (Run, error) {
	var (
		r          Run
		backend    sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	err := sc.Scan(&r.ID, &r.InputDir, &r.OutputDir, &backend, &startedAt, &finishedAt,
		&r.Counts.Converted, &r.Counts.Partial, &r.Counts.Skipped,
		&r.Counts.Unsupported, &r.Counts.Failed, &r.Interrupted)
	if err != nil {
		return Run{}, err
	}
	r.Backend = backend.String
	r.StartedAt = parseTime(startedAt)
	r.FinishedAt = parseTime(finishedAt.String)
	return r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func absPath(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

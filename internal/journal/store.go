// Package journal keeps a SQLite history of documentation flushes so that
// `autodocs status` can report what was documented, when, and what failed.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mvp-joe/autodocs/internal/processor"
)

// timeFormat keeps a fixed-width fraction so stored times sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrFlushNotFound is returned by GetFlush for an unknown flush ID.
var ErrFlushNotFound = errors.New("flush not found")

// Flush is a stored flush summary.
type Flush struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	FileCount     int
	FailureCount  int
	Components    int
	ProgressError string
}

// File is a stored per-file outcome.
type File struct {
	FlushID    string
	Path       string
	Language   string
	LineCount  int
	Completion string
	PromptPath string
	Error      string
}

// Store reads and writes the journal database.
type Store struct {
	db   *sql.DB
	keep int
}

// Option configures a Store.
type Option func(*Store)

// WithRetention keeps only the newest keep flushes after each recorded
// flush. Zero or less keeps everything.
func WithRetention(keep int) Option {
	return func(s *Store) {
		s.keep = keep
	}
}

// Open opens (creating if needed) the journal at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordFlush writes a flush and its files in one transaction.
func (s *Store) RecordFlush(ctx context.Context, res *processor.FlushResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	progressErr := ""
	if res.ProgressErr != nil {
		progressErr = res.ProgressErr.Error()
	}

	_, err = sq.Insert("flushes").
		Columns("id", "started_at", "finished_at", "file_count", "failure_count", "components", "progress_error").
		Values(
			res.ID,
			res.StartedAt.UTC().Format(timeFormat),
			res.FinishedAt.UTC().Format(timeFormat),
			len(res.Files),
			res.Failed(),
			res.Components,
			progressErr,
		).
		Options("OR REPLACE").
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert flush %s: %w", res.ID, err)
	}

	for _, f := range res.Files {
		var language, completion, errText string
		var lines int
		if f.Analysis != nil {
			language = f.Analysis.Language.Label
			lines = f.Analysis.LineCount
			completion = string(f.Analysis.Completion.Level)
		}
		if f.Err != nil {
			errText = f.Err.Error()
		}

		_, err := sq.Insert("flush_files").
			Columns("flush_id", "file_path", "language", "line_count", "completion", "prompt_path", "error").
			Values(res.ID, f.Path, language, lines, completion, f.PromptPath, errText).
			Options("OR REPLACE").
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flush %s: %w", res.ID, err)
	}

	if s.keep > 0 {
		if _, err := s.Prune(ctx, s.keep); err != nil {
			return err
		}
	}
	return nil
}

const flushColumns = "id, started_at, finished_at, file_count, failure_count, components, progress_error"

// RecentFlushes returns up to limit flushes, newest first.
func (s *Store) RecentFlushes(ctx context.Context, limit int) ([]Flush, error) {
	query := sq.Select(flushColumns).
		From("flushes").
		OrderBy("started_at DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query flushes: %w", err)
	}
	defer rows.Close()

	flushes := []Flush{}
	for rows.Next() {
		f, err := scanFlush(rows)
		if err != nil {
			return nil, err
		}
		flushes = append(flushes, *f)
	}
	return flushes, rows.Err()
}

// GetFlush returns one flush by ID, or ErrFlushNotFound.
func (s *Store) GetFlush(ctx context.Context, flushID string) (*Flush, error) {
	row := sq.Select(flushColumns).
		From("flushes").
		Where(sq.Eq{"id": flushID}).
		RunWith(s.db).
		QueryRowContext(ctx)

	f, err := scanFlush(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrFlushNotFound, flushID)
	}
	return f, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlush(row scanner) (*Flush, error) {
	var f Flush
	var started, finished string
	if err := row.Scan(&f.ID, &started, &finished, &f.FileCount, &f.FailureCount, &f.Components, &f.ProgressError); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan flush: %w", err)
	}
	f.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	f.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	return &f, nil
}

// FlushFiles returns the files of one flush ordered by path.
func (s *Store) FlushFiles(ctx context.Context, flushID string) ([]File, error) {
	rows, err := sq.Select("flush_id", "file_path", "language", "line_count", "completion", "prompt_path", "error").
		From("flush_files").
		Where(sq.Eq{"flush_id": flushID}).
		OrderBy("file_path").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query files for flush %s: %w", flushID, err)
	}
	defer rows.Close()

	files := []File{}
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.FlushID, &f.Path, &f.Language, &f.LineCount, &f.Completion, &f.PromptPath, &f.Error); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Prune deletes all but the newest keep flushes. Returns the number removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	sub := sq.Select("id").From("flushes").OrderBy("started_at DESC").Limit(uint64(keep))
	subSQL, subArgs, err := sub.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build prune query: %w", err)
	}

	result, err := sq.Delete("flushes").
		Where("id NOT IN ("+subSQL+")", subArgs...).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune flushes: %w", err)
	}
	return result.RowsAffected()
}

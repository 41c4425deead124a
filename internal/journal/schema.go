package journal

import (
	"database/sql"
	"fmt"
)

const createFlushesTable = `
CREATE TABLE IF NOT EXISTS flushes (
	id            TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL,
	file_count    INTEGER NOT NULL,
	failure_count INTEGER NOT NULL,
	components    INTEGER NOT NULL,
	progress_error TEXT NOT NULL DEFAULT ''
)`

const createFlushFilesTable = `
CREATE TABLE IF NOT EXISTS flush_files (
	flush_id    TEXT NOT NULL REFERENCES flushes(id) ON DELETE CASCADE,
	file_path   TEXT NOT NULL,
	language    TEXT NOT NULL DEFAULT '',
	line_count  INTEGER NOT NULL DEFAULT 0,
	completion  TEXT NOT NULL DEFAULT '',
	prompt_path TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (flush_id, file_path)
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_flushes_started_at ON flushes(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_flush_files_path ON flush_files(file_path)`,
}

// CreateSchema creates the journal tables. Idempotent.
// Must be called with SQLite PRAGMA foreign_keys = ON for cascade deletes.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"flushes", createFlushesTable},
		{"flush_files", createFlushFilesTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

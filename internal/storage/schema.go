package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const schemaVersion = "1.0"

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS snapshots (
	snapshot_id      TEXT PRIMARY KEY,
	root_path        TEXT NOT NULL,
	complete         INTEGER NOT NULL,
	files_loaded     INTEGER NOT NULL,
	cache_hits       INTEGER NOT NULL,
	imports_resolved INTEGER NOT NULL,
	imports_failed   INTEGER NOT NULL,
	max_depth        INTEGER NOT NULL,
	duration_ns      INTEGER NOT NULL,
	document         TEXT,
	created_at       TEXT NOT NULL
)`

const createModulesTable = `
CREATE TABLE IF NOT EXISTS modules (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(snapshot_id) ON DELETE CASCADE,
	path        TEXT NOT NULL,
	source_hash TEXT NOT NULL,
	depth       INTEGER NOT NULL,
	from_cache  INTEGER NOT NULL,
	PRIMARY KEY (snapshot_id, path)
)`

const createImportsTable = `
CREATE TABLE IF NOT EXISTS imports (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(snapshot_id) ON DELETE CASCADE,
	module_path TEXT NOT NULL,
	target_path TEXT,
	raw_path    TEXT NOT NULL,
	alias       TEXT,
	line        INTEGER NOT NULL,
	col         INTEGER NOT NULL,
	status      TEXT NOT NULL
)`

const createImportErrorsTable = `
CREATE TABLE IF NOT EXISTS import_errors (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(snapshot_id) ON DELETE CASCADE,
	module_path TEXT NOT NULL,
	line        INTEGER NOT NULL,
	col         INTEGER NOT NULL,
	message     TEXT NOT NULL
)`

const createPositionEntriesTable = `
CREATE TABLE IF NOT EXISTS position_entries (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(snapshot_id) ON DELETE CASCADE,
	module_path TEXT NOT NULL,
	pointer     TEXT NOT NULL,
	dotted      TEXT NOT NULL,
	line        INTEGER NOT NULL,
	col         INTEGER NOT NULL,
	token_type  TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, module_path, pointer)
)`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS snapshot_metadata (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// getAllIndexes returns secondary indexes for the read paths: listing
// snapshots by root, walking imports per module, scanning entries.
func getAllIndexes() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_snapshots_root ON snapshots(root_path, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_imports_snapshot ON imports(snapshot_id, module_path)`,
		`CREATE INDEX IF NOT EXISTS idx_errors_snapshot ON import_errors(snapshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_module ON position_entries(snapshot_id, module_path)`,
	}
}

// CreateSchema creates all tables and indexes for the snapshot store.
// Uses a transaction for atomicity - schema creation succeeds or fails
// together. Must be called with SQLite PRAGMA foreign_keys = ON.
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
		{"snapshots", createSnapshotsTable},
		{"modules", createModulesTable},
		{"imports", createImportsTable},
		{"import_errors", createImportErrorsTable},
		{"position_entries", createPositionEntriesTable},
		{"snapshot_metadata", createMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	bootstrapSQL := `
		INSERT INTO snapshot_metadata (key, value, updated_at) VALUES
			('schema_version', ?, ?)
	`
	if _, err := tx.Exec(bootstrapSQL, schemaVersion, now); err != nil {
		return fmt.Errorf("failed to bootstrap snapshot_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion retrieves the schema version from snapshot_metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='snapshot_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check snapshot_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM snapshot_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

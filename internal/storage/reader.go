package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ErrSnapshotNotFound indicates a snapshot ID with no row behind it.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshots lists saved snapshots, newest first.
func (s *Store) Snapshots() ([]SnapshotInfo, error) {
	rows, err := sq.Select("snapshot_id", "root_path", "complete", "files_loaded", "cache_hits",
		"imports_resolved", "imports_failed", "max_depth", "duration_ns", "created_at").
		From("snapshots").
		OrderBy("created_at DESC", "rowid DESC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		info, err := scanSnapshotInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return infos, nil
}

// LatestID returns the newest snapshot ID, optionally filtered to one
// root path. Returns ErrSnapshotNotFound when nothing is saved.
func (s *Store) LatestID(rootPath string) (string, error) {
	q := sq.Select("snapshot_id").
		From("snapshots").
		OrderBy("created_at DESC", "rowid DESC").
		Limit(1)
	if rootPath != "" {
		q = q.Where(sq.Eq{"root_path": rootPath})
	}

	var id string
	err := q.RunWith(s.db).QueryRow().Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrSnapshotNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return id, nil
}

// Snapshot loads one saved resolution in full: summary, document,
// modules, imports, and errors.
func (s *Store) Snapshot(id string) (*Snapshot, error) {
	row := sq.Select("snapshot_id", "root_path", "complete", "files_loaded", "cache_hits",
		"imports_resolved", "imports_failed", "max_depth", "duration_ns", "created_at", "document").
		From("snapshots").
		Where(sq.Eq{"snapshot_id": id}).
		RunWith(s.db).
		QueryRow()

	var (
		info       SnapshotInfo
		durationNS int64
		createdAt  string
		document   sql.NullString
	)
	err := row.Scan(&info.ID, &info.RootPath, &info.Complete, &info.FilesLoaded, &info.CacheHits,
		&info.ImportsResolved, &info.ImportsFailed, &info.MaxDepth, &durationNS, &createdAt, &document)
	if err == sql.ErrNoRows {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	info.Duration = time.Duration(durationNS)
	if info.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
	}

	snap := &Snapshot{Info: info}
	if document.Valid && document.String != "" {
		if err := json.Unmarshal([]byte(document.String), &snap.Document); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot document: %w", err)
		}
	}

	if snap.Modules, err = s.readModules(id); err != nil {
		return nil, err
	}
	if snap.Imports, err = s.readImports(id); err != nil {
		return nil, err
	}
	if snap.Errors, err = s.readErrors(id); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) readModules(id string) ([]ModuleRow, error) {
	rows, err := sq.Select("path", "source_hash", "depth", "from_cache").
		From("modules").
		Where(sq.Eq{"snapshot_id": id}).
		OrderBy("path").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	var mods []ModuleRow
	for rows.Next() {
		var m ModuleRow
		if err := rows.Scan(&m.Path, &m.SourceHash, &m.Depth, &m.FromCache); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		mods = append(mods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating modules: %w", err)
	}
	return mods, nil
}

func (s *Store) readImports(id string) ([]ImportRow, error) {
	rows, err := sq.Select("module_path", "target_path", "raw_path", "alias", "line", "col", "status").
		From("imports").
		Where(sq.Eq{"snapshot_id": id}).
		OrderBy("module_path", "line", "col").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	var imps []ImportRow
	for rows.Next() {
		var (
			imp    ImportRow
			target sql.NullString
			alias  sql.NullString
		)
		if err := rows.Scan(&imp.ModulePath, &target, &imp.RawPath, &alias, &imp.Line, &imp.Column, &imp.Status); err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		imp.TargetPath = target.String
		imp.Alias = alias.String
		imps = append(imps, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating imports: %w", err)
	}
	return imps, nil
}

func (s *Store) readErrors(id string) ([]ErrorRow, error) {
	rows, err := sq.Select("module_path", "line", "col", "message").
		From("import_errors").
		Where(sq.Eq{"snapshot_id": id}).
		OrderBy("module_path", "line", "col").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query errors: %w", err)
	}
	defer rows.Close()

	var errs []ErrorRow
	for rows.Next() {
		var e ErrorRow
		if err := rows.Scan(&e.ModulePath, &e.Line, &e.Column, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan error: %w", err)
		}
		errs = append(errs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating errors: %w", err)
	}
	return errs, nil
}

// Entries loads the position entries of a snapshot, optionally filtered
// to one module path.
func (s *Store) Entries(id, modulePath string) ([]EntryRow, error) {
	q := sq.Select("module_path", "pointer", "dotted", "line", "col", "token_type").
		From("position_entries").
		Where(sq.Eq{"snapshot_id": id}).
		OrderBy("module_path", "pointer")
	if modulePath != "" {
		q = q.Where(sq.Eq{"module_path": modulePath})
	}

	rows, err := q.RunWith(s.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []EntryRow
	for rows.Next() {
		var e EntryRow
		if err := rows.Scan(&e.ModulePath, &e.Pointer, &e.Dotted, &e.Line, &e.Column, &e.TokenType); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// Dependencies loads the resolved import edges of a snapshot.
func (s *Store) Dependencies(id string) ([]Dependency, error) {
	rows, err := sq.Select("module_path", "target_path").
		From("imports").
		Where(sq.Eq{"snapshot_id": id, "status": "resolved"}).
		OrderBy("module_path", "target_path").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	var deps []Dependency
	for rows.Next() {
		var d Dependency
		var target sql.NullString
		if err := rows.Scan(&d.From, &target); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		d.To = target.String
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies: %w", err)
	}
	return deps, nil
}

func scanSnapshotInfo(rows *sql.Rows) (SnapshotInfo, error) {
	var (
		info       SnapshotInfo
		durationNS int64
		createdAt  string
	)
	err := rows.Scan(&info.ID, &info.RootPath, &info.Complete, &info.FilesLoaded, &info.CacheHits,
		&info.ImportsResolved, &info.ImportsFailed, &info.MaxDepth, &durationNS, &createdAt)
	if err != nil {
		return SnapshotInfo{}, err
	}
	info.Duration = time.Duration(durationNS)
	if info.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return SnapshotInfo{}, err
	}
	return info, nil
}

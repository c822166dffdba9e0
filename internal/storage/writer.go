package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/tracemap/internal/position"
	"github.com/mvp-joe/tracemap/internal/resolver"
)

// SaveSnapshot persists one resolution as a new snapshot and returns
// its ID. The write is a single transaction: the snapshot appears
// complete or not at all.
func (s *Store) SaveSnapshot(res *resolver.Resolution) (string, error) {
	id := uuid.NewString()

	doc, err := json.Marshal(res.Root.Document)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	now := time.Now().UTC()
	_, err = sq.Insert("snapshots").
		Columns("snapshot_id", "root_path", "complete", "files_loaded", "cache_hits",
			"imports_resolved", "imports_failed", "max_depth", "duration_ns", "document", "created_at").
		Values(
			id,
			res.Root.Path,
			res.Complete(),
			res.Stats.FilesLoaded,
			res.Stats.CacheHits,
			res.Stats.ImportsResolved,
			res.Stats.ImportsFailed,
			res.Stats.MaxDepth,
			int64(res.Stats.Duration),
			string(doc),
			now.Format(time.RFC3339),
		).
		RunWith(tx).
		Exec()
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	paths := make([]string, 0, len(res.Modules))
	for path := range res.Modules {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		mod := res.Modules[path]

		_, err = sq.Insert("modules").
			Columns("snapshot_id", "path", "source_hash", "depth", "from_cache").
			Values(id, mod.Path, mod.Source.Hash, mod.Depth, mod.FromCache).
			RunWith(tx).
			Exec()
		if err != nil {
			return "", fmt.Errorf("failed to insert module %s: %w", mod.Path, err)
		}

		for _, rec := range mod.Imports {
			_, err = sq.Insert("imports").
				Columns("snapshot_id", "module_path", "target_path", "raw_path", "alias", "line", "col", "status").
				Values(id, mod.Path, rec.Path, rec.Directive.RawPath, rec.Directive.Alias,
					rec.Directive.Line, rec.Directive.Column, string(rec.Status)).
				RunWith(tx).
				Exec()
			if err != nil {
				return "", fmt.Errorf("failed to insert import for %s: %w", mod.Path, err)
			}

			if rec.Status == resolver.StatusFailed {
				if err := insertError(tx, id, mod.Path, rec.Directive.Line, rec.Directive.Column, rec.Error); err != nil {
					return "", err
				}
			}
		}
		for _, inv := range mod.Extraction.Invalid {
			if err := insertError(tx, id, mod.Path, inv.Line, inv.Column, "invalid import directive: "+inv.Reason); err != nil {
				return "", err
			}
		}

		if mod.Index != nil {
			for ptr, e := range mod.Index.Pointers() {
				_, err = sq.Insert("position_entries").
					Columns("snapshot_id", "module_path", "pointer", "dotted", "line", "col", "token_type").
					Values(id, mod.Path, ptr, position.PointerToDotted(ptr), e.Line, e.Column, string(e.Type)).
					RunWith(tx).
					Exec()
				if err != nil {
					return "", fmt.Errorf("failed to insert entry %s for %s: %w", ptr, mod.Path, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

func insertError(tx sq.BaseRunner, id, modulePath string, line, col int, message string) error {
	_, err := sq.Insert("import_errors").
		Columns("snapshot_id", "module_path", "line", "col", "message").
		Values(id, modulePath, line, col, message).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert error for %s: %w", modulePath, err)
	}
	return nil
}

// DeleteSnapshot removes a snapshot and, via cascades, all its rows.
func (s *Store) DeleteSnapshot(id string) error {
	result, err := sq.Delete("snapshots").
		Where(sq.Eq{"snapshot_id": id}).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

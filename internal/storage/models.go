// Package storage persists resolution snapshots to SQLite so graphs,
// reports, and searches can run against past runs without re-resolving.
package storage

import "time"

// SnapshotInfo is the summary row for one saved resolution.
type SnapshotInfo struct {
	ID              string        `json:"id"`
	RootPath        string        `json:"root_path"`
	Complete        bool          `json:"complete"`
	FilesLoaded     int           `json:"files_loaded"`
	CacheHits       int           `json:"cache_hits"`
	ImportsResolved int           `json:"imports_resolved"`
	ImportsFailed   int           `json:"imports_failed"`
	MaxDepth        int           `json:"max_depth"`
	Duration        time.Duration `json:"duration"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ModuleRow is one module of a saved snapshot.
type ModuleRow struct {
	Path       string `json:"path"`
	SourceHash string `json:"source_hash"`
	Depth      int    `json:"depth"`
	FromCache  bool   `json:"from_cache"`
}

// ImportRow is one import directive outcome of a saved snapshot.
type ImportRow struct {
	ModulePath string `json:"module_path"`
	TargetPath string `json:"target_path,omitempty"`
	RawPath    string `json:"raw_path"`
	Alias      string `json:"alias,omitempty"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Status     string `json:"status"`
}

// ErrorRow is one recorded resolution error.
type ErrorRow struct {
	ModulePath string `json:"module_path"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Message    string `json:"message"`
}

// EntryRow is one position entry of a saved snapshot.
type EntryRow struct {
	ModulePath string `json:"module_path"`
	Pointer    string `json:"pointer"`
	Dotted     string `json:"dotted"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	TokenType  string `json:"token_type"`
}

// Snapshot is a fully loaded saved resolution.
type Snapshot struct {
	Info     SnapshotInfo `json:"info"`
	Document any          `json:"document,omitempty"`
	Modules  []ModuleRow  `json:"modules"`
	Imports  []ImportRow  `json:"imports"`
	Errors   []ErrorRow   `json:"errors,omitempty"`
}

// Dependency is one resolved import edge of a saved snapshot.
type Dependency struct {
	From string `json:"from"`
	To   string `json:"to"`
}

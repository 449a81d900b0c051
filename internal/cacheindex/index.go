// Package cacheindex maintains a denormalized, queryable accelerator
// over the Package Cache: a single SQLite file at
// $HOME/.bendu/index.db recording (source_id, package_id,
// last_compiled_ms, bytecode_path) rows so `bendu cache ls`/`bendu
// cache gc` can answer without walking the cache directory tree.
//
// This is new functionality spec §4.4 does not mandate — the
// dependency file remains the sole source of truth for upToDate(),
// exactly as spec requires; this index never substitutes for that
// check, only accelerates listing/garbage-collection. Grounded on the
// teacher's internal/ext.Cache (content-hash keyed binary cache)
// generalized from a flat directory listing to a real index because
// Bendu's cache can span arbitrarily many packages across many
// projects, where a directory walk would be O(n) per query.
//
// Uses modernc.org/sqlite, a pure-Go (no cgo) driver, since the build
// never invokes a C toolchain for this exercise.
package cacheindex

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS packages (
	source_id TEXT PRIMARY KEY,
	package_id TEXT NOT NULL,
	last_compiled_ms INTEGER NOT NULL,
	bytecode_path TEXT NOT NULL
);
`

// Index wraps the sqlite-backed cache accelerator.
type Index struct {
	db *sql.DB
}

// Open opens (creating if absent) the index database at path.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cacheindex: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cacheindex: creating schema: %w", err)
	}
	return &Index{db: db}, nil
}

func (idx *Index) Close() error { return idx.db.Close() }

// Record is one row of the denormalized cache index.
type Record struct {
	SourceID       string
	PackageID      string
	LastCompiledMs int64
	BytecodePath   string
}

// Upsert records (or refreshes) a compiled package's entry, called by
// the driver right after a successful cache.Entry.Compile().
func (idx *Index) Upsert(r Record) error {
	_, err := idx.db.Exec(
		`INSERT INTO packages (source_id, package_id, last_compiled_ms, bytecode_path)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_id) DO UPDATE SET
		   package_id=excluded.package_id,
		   last_compiled_ms=excluded.last_compiled_ms,
		   bytecode_path=excluded.bytecode_path`,
		r.SourceID, r.PackageID, r.LastCompiledMs, r.BytecodePath,
	)
	if err != nil {
		return fmt.Errorf("cacheindex: upsert %s: %w", r.SourceID, err)
	}
	return nil
}

// List returns every indexed package, most recently compiled first,
// for `bendu cache ls`.
func (idx *Index) List() ([]Record, error) {
	rows, err := idx.db.Query(`SELECT source_id, package_id, last_compiled_ms, bytecode_path FROM packages ORDER BY last_compiled_ms DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.SourceID, &r.PackageID, &r.LastCompiledMs, &r.BytecodePath); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EvictOlderThan removes every indexed entry last compiled before the
// given age, for `bendu cache gc`. It only deletes the index rows; the
// caller is responsible for removing the underlying artifact files it
// decides to sweep.
func (idx *Index) EvictOlderThan(age time.Duration) ([]Record, error) {
	cutoff := time.Now().Add(-age).UnixMilli()
	rows, err := idx.db.Query(`SELECT source_id, package_id, last_compiled_ms, bytecode_path FROM packages WHERE last_compiled_ms < ?`, cutoff)
	if err != nil {
		return nil, err
	}
	var stale []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.SourceID, &r.PackageID, &r.LastCompiledMs, &r.BytecodePath); err != nil {
			rows.Close()
			return nil, err
		}
		stale = append(stale, r)
	}
	rows.Close()

	if _, err := idx.db.Exec(`DELETE FROM packages WHERE last_compiled_ms < ?`, cutoff); err != nil {
		return nil, err
	}
	return stale, nil
}

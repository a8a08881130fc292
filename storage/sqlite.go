// Package storage provides SQLite content storage.
//
// Information Hiding:
// - SQLite connection management hidden behind ContentStore
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is bumped whenever a table or index is added. Upgrades are
// additive: missing tables are created, existing ones are never dropped.
const schemaVersion = 2

// SqliteStore implements ContentStore using SQLite.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// OpenMemory creates an in-memory database (useful for testing).
func OpenMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// A second connection would get its own empty memory database.
	db.SetMaxOpenConns(1)

	store := &SqliteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// migrate brings the schema up to schemaVersion via PRAGMA user_version.
func (s *SqliteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version < 1 {
		if _, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS analysis_cache (
				origin TEXT NOT NULL,
				content_hash TEXT NOT NULL,
				keypoints TEXT NOT NULL,
				created_at_ms INTEGER NOT NULL,
				PRIMARY KEY (origin, content_hash)
			);

			CREATE TABLE IF NOT EXISTS highlighted_urls (
				url TEXT PRIMARY KEY,
				origin TEXT NOT NULL,
				created_at_ms INTEGER NOT NULL
			);
		`); err != nil {
			return fmt.Errorf("migration to v1 failed: %w", err)
		}
	}

	if version < 2 {
		if _, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS auto_domains (
				origin TEXT PRIMARY KEY,
				created_at_ms INTEGER NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_highlighted_urls_origin
			ON highlighted_urls(origin);
		`); err != nil {
			return fmt.Errorf("migration to v2 failed: %w", err)
		}
	}

	if version != schemaVersion {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}
	return nil
}

// Get returns cached keypoints for (origin, contentHash) if the entry is
// younger than Expiration. Expired rows behave as absent; deleting them is
// the sweep's job.
func (s *SqliteStore) Get(ctx context.Context, origin, contentHash string) ([]string, bool, error) {
	cutoff := time.Now().Add(-Expiration).UnixMilli()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT keypoints FROM analysis_cache WHERE origin = ? AND content_hash = ? AND created_at_ms > ?",
		origin, contentHash, cutoff,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cache entry: %w", err)
	}

	var keypoints []string
	if err := json.Unmarshal([]byte(raw), &keypoints); err != nil {
		// A corrupt row is a miss; the next Put repairs it.
		return nil, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return keypoints, true, nil
}

// Put upserts the keypoints for (origin, contentHash), refreshing the timestamp.
func (s *SqliteStore) Put(ctx context.Context, origin, contentHash string, keypoints []string) error {
	raw, err := json.Marshal(keypoints)
	if err != nil {
		return fmt.Errorf("failed to encode keypoints: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO analysis_cache (origin, content_hash, keypoints, created_at_ms) VALUES (?, ?, ?, ?)",
		origin, contentHash, string(raw), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// MarkURLHighlighted upserts a marker for the exact URL.
func (s *SqliteStore) MarkURLHighlighted(ctx context.Context, url string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO highlighted_urls (url, origin, created_at_ms) VALUES (?, ?, ?)",
		url, OriginOf(url), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark url highlighted: %w", err)
	}
	return nil
}

// WasURLHighlighted reports whether the exact URL carries a live marker.
// Markers expire on the same window as cache entries, so auto-apply decays
// in lockstep with the cached analysis it would reuse.
func (s *SqliteStore) WasURLHighlighted(ctx context.Context, url string) (bool, error) {
	cutoff := time.Now().Add(-Expiration).UnixMilli()

	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM highlighted_urls WHERE url = ? AND created_at_ms > ?",
		url, cutoff,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query url marker: %w", err)
	}
	return true, nil
}

// SetAutoHighlight enables or disables auto-highlight for an origin.
// Enabling twice or disabling an absent entry is a no-op.
func (s *SqliteStore) SetAutoHighlight(ctx context.Context, origin string, enabled bool) error {
	var err error
	if enabled {
		_, err = s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO auto_domains (origin, created_at_ms) VALUES (?, ?)",
			origin, time.Now().UnixMilli(),
		)
	} else {
		_, err = s.db.ExecContext(ctx,
			"DELETE FROM auto_domains WHERE origin = ?", origin,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to set auto-highlight: %w", err)
	}
	return nil
}

// IsAutoHighlightEnabled reports whether the origin opted into auto-highlight.
func (s *SqliteStore) IsAutoHighlightEnabled(ctx context.Context, origin string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM auto_domains WHERE origin = ?", origin,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query auto-highlight: %w", err)
	}
	return true, nil
}

// ClearOriginCache removes all cache entries and URL markers for an origin.
func (s *SqliteStore) ClearOriginCache(ctx context.Context, origin string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op after Commit.
	defer func() { _ = tx.Rollback() }()

	var removed int64

	res, err := tx.ExecContext(ctx, "DELETE FROM analysis_cache WHERE origin = ?", origin)
	if err != nil {
		return false, fmt.Errorf("failed to clear cache entries: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		removed += n
	}

	res, err = tx.ExecContext(ctx, "DELETE FROM highlighted_urls WHERE origin = ?", origin)
	if err != nil {
		return false, fmt.Errorf("failed to clear url markers: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		removed += n
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return removed > 0, nil
}

// SweepExpired removes every cache entry and URL marker older than Expiration.
// Each table is swept independently; there is no cross-row atomicity to keep.
func (s *SqliteStore) SweepExpired(ctx context.Context) (SweepResult, error) {
	cutoff := time.Now().Add(-Expiration).UnixMilli()
	var result SweepResult

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM analysis_cache WHERE created_at_ms < ?", cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to sweep cache entries: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		result.CacheEntries = int(n)
	}

	res, err = s.db.ExecContext(ctx,
		"DELETE FROM highlighted_urls WHERE created_at_ms < ?", cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to sweep url markers: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		result.URLMarkers = int(n)
	}

	return result, nil
}

// Verify SqliteStore implements ContentStore
var _ ContentStore = (*SqliteStore)(nil)

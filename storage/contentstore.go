// Package storage provides the persistent content store backing analysis.
//
// Three logical tables live in one SQLite database shared by every page and
// every command of the same installation:
//   - analysis cache: keypoints memoized per (origin, content hash)
//   - highlighted URLs: "this exact URL was highlighted before" markers
//   - auto-highlight domains: origins opted into automatic re-analysis
//
// Caching is an optimization, never a correctness requirement: callers treat
// a store error as a cache miss on read and best-effort on write.

package storage

import (
	"context"
	"time"
)

// Expiration is the age past which cache entries and URL markers stop being
// visible to reads and become eligible for the sweep.
const Expiration = 30 * 24 * time.Hour

// SweepResult reports how many rows an expiration sweep removed.
type SweepResult struct {
	CacheEntries int
	URLMarkers   int
}

// ContentStore persists analysis results and per-origin/per-URL policy state.
type ContentStore interface {
	// Get returns the cached keypoints for (origin, contentHash), or
	// ok=false if there is no entry younger than Expiration. Expired rows
	// are left in place for the sweep.
	Get(ctx context.Context, origin, contentHash string) (keypoints []string, ok bool, err error)

	// Put upserts the keypoints for (origin, contentHash), refreshing the
	// entry's timestamp.
	Put(ctx context.Context, origin, contentHash string, keypoints []string) error

	// MarkURLHighlighted records that this exact URL had highlights applied.
	MarkURLHighlighted(ctx context.Context, url string) error

	// WasURLHighlighted reports whether the exact URL carries a marker
	// younger than Expiration.
	WasURLHighlighted(ctx context.Context, url string) (bool, error)

	// SetAutoHighlight enables or disables automatic re-analysis for an
	// origin. Idempotent in both directions.
	SetAutoHighlight(ctx context.Context, origin string, enabled bool) error

	// IsAutoHighlightEnabled reports whether the origin opted in.
	IsAutoHighlightEnabled(ctx context.Context, origin string) (bool, error)

	// ClearOriginCache removes every cache entry and URL marker belonging
	// to the origin. Reports whether anything was removed.
	ClearOriginCache(ctx context.Context, origin string) (bool, error)

	// SweepExpired removes every cache entry and URL marker older than
	// Expiration. Safe to run concurrently with reads and writes; a row
	// deleted under a reader degrades to a cache miss.
	SweepExpired(ctx context.Context) (SweepResult, error)

	// Close releases the underlying database.
	Close() error
}

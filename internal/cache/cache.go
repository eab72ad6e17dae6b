// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists search results in a SQLite database so repeated
// queries during a research run, and across runs, skip the network. Entries
// expire after a configurable TTL and are pruned lazily on read and in bulk
// via Prune.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// Store is a TTL cache of search results keyed by (engine, query).
type Store struct {
	db  *sql.DB
	ttl time.Duration

	// now is swappable in tests to simulate expiry.
	now func() time.Time
}

// Open opens or creates the cache database at cfg.Path, creating parent
// directories as needed.
func Open(cfg types.CacheConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS results (
			engine TEXT NOT NULL,
			query TEXT NOT NULL,
			payload TEXT NOT NULL,
			stored_at TEXT NOT NULL,
			PRIMARY KEY (engine, query)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_stored_at ON results(stored_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached results for (engine, query). The second return is
// false on a miss or when the entry has expired; expired entries are deleted
// on the way out.
func (s *Store) Get(ctx context.Context, engine, query string) ([]types.SearchResult, bool, error) {
	var payload, storedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM results WHERE engine = ? AND query = ?`,
		engine, query,
	).Scan(&payload, &storedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	stored, err := time.Parse(time.RFC3339Nano, storedAt)
	if err != nil || s.now().Sub(stored) > s.ttl {
		_, _ = s.db.ExecContext(ctx,
			`DELETE FROM results WHERE engine = ? AND query = ?`, engine, query)
		return nil, false, nil
	}

	var results []types.SearchResult
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry: %w", err)
	}
	return results, true, nil
}

// Put stores results for (engine, query), replacing any prior entry.
func (s *Store) Put(ctx context.Context, engine, query string, results []types.SearchResult) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (engine, query, payload, stored_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(engine, query) DO UPDATE SET
			payload=excluded.payload, stored_at=excluded.stored_at`,
		engine, query, string(payload), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Prune deletes all expired entries and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}

// Len returns the number of entries currently stored, expired or not.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

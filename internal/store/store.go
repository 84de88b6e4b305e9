// Package store provides SQLite persistence for the trending counters.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/cinefind/internal/trending"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex // Protects all database operations
	now func() time.Time
}

var _ trending.Store = (*Store)(nil)

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
		// Other processes may hold the write lock briefly
		if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_counts (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL UNIQUE,
		count INTEGER NOT NULL DEFAULT 1,
		movie_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		poster_url TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_search_counts_count ON search_counts(count DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Increment counts one search for hit.Query in a single upsert statement.
// A new row starts at 1 and keeps the hit's movie fields; later hits only
// bump the count and updated_at.
// Thread-safe: acquires write lock.
func (s *Store) Increment(ctx context.Context, hit trending.Hit) error {
	if hit.Query == "" {
		return trending.ErrEmptyQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_counts (
			id, query, count, movie_id, title, poster_url, created_at, updated_at
		) VALUES (?, ?, 1, ?, ?, ?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET
			count = count + 1,
			updated_at = excluded.updated_at
	`,
		ksuid.New().String(),
		hit.Query,
		hit.MovieID,
		hit.Title,
		hit.PosterURL,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("increment %q: %w", hit.Query, err)
	}
	return nil
}

// Top returns the n highest counts. Ties keep insertion order.
// Thread-safe: acquires read lock.
func (s *Store) Top(ctx context.Context, n int) ([]trending.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, count, movie_id, title, poster_url
		FROM search_counts
		ORDER BY count DESC, rowid ASC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query top: %w", err)
	}
	defer rows.Close()

	entries := []trending.Entry{}
	for rows.Next() {
		var e trending.Entry
		if err := rows.Scan(&e.ID, &e.Query, &e.Count, &e.MovieID, &e.Title, &e.PosterURL); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Get looks up the counter for a normalized query.
// Returns (Entry{}, false, nil) when the query has never been counted.
// Thread-safe: acquires read lock.
func (s *Store) Get(ctx context.Context, query string) (trending.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e trending.Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, query, count, movie_id, title, poster_url
		FROM search_counts
		WHERE query = ?
	`, query).Scan(&e.ID, &e.Query, &e.Count, &e.MovieID, &e.Title, &e.PosterURL)
	if errors.Is(err, sql.ErrNoRows) {
		return trending.Entry{}, false, nil
	}
	if err != nil {
		return trending.Entry{}, false, fmt.Errorf("get %q: %w", query, err)
	}
	return e, true, nil
}

// Package cache stores decoded stars in a local SQLite database so a large
// catalog can be parsed once and queried by sky region afterwards. Row
// order in the table preserves catalog order: window queries return stars
// in the same order the loader produced them.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/starmap/internal/catalog"
	"github.com/papapumpkin/starmap/internal/filter"
)

// ErrEmpty is returned by Info and QueryWindow when the store holds no
// stars (cache build has not run).
var ErrEmpty = errors.New("star cache is empty")

// schema contains the DDL executed on first open. Using IF NOT EXISTS
// makes it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS stars (
    id  INTEGER PRIMARY KEY AUTOINCREMENT,
    ra  REAL NOT NULL,
    dec REAL NOT NULL,
    mag REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS stars_window ON stars (ra, dec, mag);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Store is a SQLite-backed star cache.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a star cache at dbPath, enables WAL mode and a
// busy timeout, and creates the schema if needed.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	// Limit to one connection. SQLite only supports a single writer;
	// one connection avoids SQLITE_BUSY contention between pooled
	// connections that each need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("cache: close: %w", err)
	}
	return nil
}

// Replace drops any previously cached stars and inserts the given ones in
// a single transaction, preserving their order. Source records where the
// stars came from, for Info.
func (s *Store) Replace(ctx context.Context, source string, stars []catalog.Star) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache: begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM stars"); err != nil {
		return fmt.Errorf("cache: clear stars: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO stars (ra, dec, mag) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("cache: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, star := range stars {
		if _, err := stmt.ExecContext(ctx, star.RA, star.Dec, star.Mag); err != nil {
			return fmt.Errorf("cache: insert star: %w", err)
		}
	}

	meta := map[string]string{
		"source":   source,
		"built_at": time.Now().UTC().Format(time.RFC3339),
		"count":    fmt.Sprintf("%d", len(stars)),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value); err != nil {
			return fmt.Errorf("cache: set meta %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache: commit replace: %w", err)
	}
	return nil
}

// QueryWindow returns the cached stars inside the window with magnitude at
// or below maxMag, in catalog order.
func (s *Store) QueryWindow(ctx context.Context, w filter.Window, maxMag float64) ([]catalog.Star, error) {
	n, err := s.count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmpty
	}

	const q = `
		SELECT ra, dec, mag FROM stars
		WHERE ra >= ? AND ra <= ? AND dec >= ? AND dec <= ? AND mag <= ?
		ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, w.MinRA, w.MaxRA, w.MinDec, w.MaxDec, maxMag)
	if err != nil {
		return nil, fmt.Errorf("cache: query window: %w", err)
	}
	defer rows.Close()

	var stars []catalog.Star
	for rows.Next() {
		var star catalog.Star
		if err := rows.Scan(&star.RA, &star.Dec, &star.Mag); err != nil {
			return nil, fmt.Errorf("cache: scan star: %w", err)
		}
		stars = append(stars, star)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache: iterate stars: %w", err)
	}
	return stars, nil
}

// BuildInfo describes the current cache contents.
type BuildInfo struct {
	Source  string
	BuiltAt time.Time
	Count   int
}

// Info returns metadata about the cached stars, or ErrEmpty if the cache
// has never been built.
func (s *Store) Info(ctx context.Context) (BuildInfo, error) {
	n, err := s.count(ctx)
	if err != nil {
		return BuildInfo{}, err
	}
	if n == 0 {
		return BuildInfo{}, ErrEmpty
	}

	info := BuildInfo{Count: n}
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return BuildInfo{}, fmt.Errorf("cache: query meta: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return BuildInfo{}, fmt.Errorf("cache: scan meta: %w", err)
		}
		switch key {
		case "source":
			info.Source = value
		case "built_at":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				info.BuiltAt = t
			}
		}
	}
	if err := rows.Err(); err != nil {
		return BuildInfo{}, fmt.Errorf("cache: iterate meta: %w", err)
	}
	return info, nil
}

func (s *Store) count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stars").Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count stars: %w", err)
	}
	return n, nil
}

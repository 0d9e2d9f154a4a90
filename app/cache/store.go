// Package cache persists upstream HTTP responses in a local SQLite
// database so repeated aggregation runs within the TTL window reuse
// them instead of hitting the upstream APIs again.
package cache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Response is a stored upstream response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// Store is a TTL-bounded response cache backed by SQLite.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Open opens or creates the cache database at path and applies pending
// migrations.
func Open(path string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// modernc's driver is not safe for concurrent writes over multiple
	// connections.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, ttl: ttl}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Get returns the stored response for url when one exists and is still
// within the TTL window.
func (s *Store) Get(url string) (*Response, bool, error) {
	var resp Response
	err := s.db.QueryRow(`
		SELECT status, content_type, body, fetched_at
		FROM responses
		WHERE url = $1
	`, url).Scan(&resp.Status, &resp.ContentType, &resp.Body, &resp.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached response: %w", err)
	}

	if time.Since(resp.FetchedAt) > s.ttl {
		return nil, false, nil
	}

	return &resp, true, nil
}

// Set stores or replaces the response for url.
func (s *Store) Set(url string, status int, contentType string, body []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO responses (url, status, content_type, body, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO UPDATE SET
			status = excluded.status,
			content_type = excluded.content_type,
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`, url, status, contentType, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store response: %w", err)
	}
	return nil
}

// Prune deletes entries older than the TTL window.
func (s *Store) Prune() (int64, error) {
	result, err := s.db.Exec(`
		DELETE FROM responses WHERE fetched_at < $1
	`, time.Now().UTC().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return result.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

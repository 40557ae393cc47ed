// Package sqlite implements the space cache on an embedded SQLite
// database. The cache holds one row per page URL; saving a space for a URL
// that already has one replaces it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SpaceStore = (*Store)(nil)

// Store is the SQLite-backed space cache.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens the space cache at the specified data directory. If
// dataDir is empty, defaults to ~/.mantis/data/spaces.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".mantis", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "spaces.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// migrate creates the schema. The URL is the primary key: the
// one-space-per-page guarantee is enforced by the database itself.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS spaces (
			url               TEXT PRIMARY KEY,
			space_id          TEXT NOT NULL,
			name              TEXT NOT NULL,
			host              TEXT NOT NULL,
			connection_parent TEXT NOT NULL,
			date_created      TEXT NOT NULL
		)
	`)
	return err
}

// List returns all cached spaces, most recent first.
func (s *Store) List(ctx context.Context) ([]domain.StoredSpace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, space_id, name, host, connection_parent, date_created
		FROM spaces
		ORDER BY date_created DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing spaces: %w", err)
	}
	defer rows.Close()

	var spaces []domain.StoredSpace
	for rows.Next() {
		space, err := scanSpace(rows.Scan)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, space)
	}
	return spaces, rows.Err()
}

// FindByURL returns the cached space for an exact URL.
func (s *Store) FindByURL(ctx context.Context, url string) (*domain.StoredSpace, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT url, space_id, name, host, connection_parent, date_created
		FROM spaces
		WHERE url = ?
	`, url)

	space, err := scanSpace(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no cached space for %s", domain.ErrNotFound, url)
	}
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// Put saves a space, replacing any cached space with the same URL.
func (s *Store) Put(ctx context.Context, space domain.StoredSpace) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spaces (url, space_id, name, host, connection_parent, date_created)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			space_id          = excluded.space_id,
			name              = excluded.name,
			host              = excluded.host,
			connection_parent = excluded.connection_parent,
			date_created      = excluded.date_created
	`, space.URL, space.ID, space.Name, space.Host, space.ConnectionParent,
		space.DateCreated.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving space %s: %w", space.ID, err)
	}
	return nil
}

// Delete removes a cached space by space id.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM spaces WHERE space_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting space %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: space %s", domain.ErrNotFound, id)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// scanSpace reads one spaces row through the given scan function.
func scanSpace(scan func(dest ...any) error) (domain.StoredSpace, error) {
	var space domain.StoredSpace
	var created string

	if err := scan(&space.URL, &space.ID, &space.Name, &space.Host, &space.ConnectionParent, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StoredSpace{}, err
		}
		return domain.StoredSpace{}, fmt.Errorf("scanning space row: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return domain.StoredSpace{}, fmt.Errorf("parsing date_created: %w", err)
	}
	space.DateCreated = parsed
	return space, nil
}

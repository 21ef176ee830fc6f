// Package sqlite provides a single-file seed archive for local runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/dkrando/internal/storage"
)

// ErrSeedExists is returned when saving a seed whose ID is already stored.
var ErrSeedExists = errors.New("seed already exists")

// Store is an Archive backed by a SQLite file.
type Store struct {
	db *sql.DB
}

var _ storage.Archive = (*Store)(nil)

// Open opens or creates the archive at path.
//
// Postcondition: Returns a Store with the schema in place, or an error.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	// One writer at a time; pragmas below apply per connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", stmt, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating archive: %w", err)
	}
	return s, nil
}

// Ping reports whether the database file is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS seeds (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			hash TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			settings TEXT NOT NULL,
			spoiler TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_seeds_created_at ON seeds (created_at DESC)`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save inserts seed, assigning a new ID when it is zero.
//
// Postcondition: Returns the stored seed with ID and CreatedAt set, or
// ErrSeedExists if the ID is taken.
func (s *Store) Save(ctx context.Context, seed storage.Seed) (storage.Seed, error) {
	if seed.ID == uuid.Nil {
		seed.ID = uuid.New()
	}
	seed.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seeds (id, seed, hash, attempts, settings, spoiler, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		seed.ID.String(), storage.SeedToDB(seed.Seed), seed.Hash, seed.Attempts,
		string(seed.Settings), string(seed.Spoiler), seed.CreatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.Seed{}, ErrSeedExists
		}
		return storage.Seed{}, fmt.Errorf("inserting seed: %w", err)
	}
	return seed, nil
}

// Get retrieves a seed by id.
//
// Postcondition: Returns the seed or storage.ErrSeedNotFound.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (storage.Seed, error) {
	seed, err := scanSeed(s.db.QueryRowContext(ctx,
		`SELECT id, seed, hash, attempts, settings, spoiler, created_at
		 FROM seeds WHERE id = ?`,
		id.String(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Seed{}, storage.ErrSeedNotFound
		}
		return storage.Seed{}, fmt.Errorf("querying seed: %w", err)
	}
	return seed, nil
}

// List returns up to limit seeds, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]storage.Seed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seed, hash, attempts, settings, spoiler, created_at
		 FROM seeds ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing seeds: %w", err)
	}
	defer rows.Close()

	var out []storage.Seed
	for rows.Next() {
		seed, err := scanSeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning seed: %w", err)
		}
		out = append(out, seed)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSeed(row scanner) (storage.Seed, error) {
	var (
		out                   storage.Seed
		id, settings, spoiler string
		seed, created         int64
	)
	if err := row.Scan(&id, &seed, &out.Hash, &out.Attempts, &settings, &spoiler, &created); err != nil {
		return storage.Seed{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return storage.Seed{}, fmt.Errorf("parsing id %q: %w", id, err)
	}
	out.ID = parsed
	out.Seed = storage.SeedFromDB(seed)
	out.Settings = []byte(settings)
	out.Spoiler = []byte(spoiler)
	out.CreatedAt = time.Unix(0, created).UTC()
	return out, nil
}

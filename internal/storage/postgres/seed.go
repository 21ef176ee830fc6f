package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dkrando/internal/storage"
)

// ErrSeedExists is returned when saving a seed whose ID is already stored.
var ErrSeedExists = errors.New("seed already exists")

// SeedRepository archives generated seeds.
type SeedRepository struct {
	db    *pgxpool.Pool
	owned bool
}

var (
	_ storage.Archive = (*SeedRepository)(nil)
	_ storage.Pinger  = (*SeedRepository)(nil)
)

// NewSeedRepository creates a SeedRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSeedRepository(db *pgxpool.Pool) *SeedRepository {
	return &SeedRepository{db: db}
}

// Save inserts s, assigning a new ID when s.ID is zero.
//
// Precondition: s.Settings and s.Spoiler must hold valid JSON.
// Postcondition: Returns the stored seed with ID and CreatedAt set, or
// ErrSeedExists if the ID is taken.
func (r *SeedRepository) Save(ctx context.Context, s storage.Seed) (storage.Seed, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO seeds (id, seed, hash, attempts, settings, spoiler)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		s.ID, storage.SeedToDB(s.Seed), s.Hash, s.Attempts, s.Settings, s.Spoiler,
	).Scan(&s.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.Seed{}, ErrSeedExists
		}
		return storage.Seed{}, fmt.Errorf("inserting seed: %w", err)
	}
	return s, nil
}

// Get retrieves a seed by id.
//
// Postcondition: Returns the seed or storage.ErrSeedNotFound.
func (r *SeedRepository) Get(ctx context.Context, id uuid.UUID) (storage.Seed, error) {
	s, err := scanSeed(r.db.QueryRow(ctx,
		`SELECT id, seed, hash, attempts, settings, spoiler, created_at
		 FROM seeds WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Seed{}, storage.ErrSeedNotFound
		}
		return storage.Seed{}, fmt.Errorf("querying seed: %w", err)
	}
	return s, nil
}

// List returns up to limit seeds, newest first.
//
// Precondition: limit > 0.
func (r *SeedRepository) List(ctx context.Context, limit int) ([]storage.Seed, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, seed, hash, attempts, settings, spoiler, created_at
		 FROM seeds ORDER BY created_at DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing seeds: %w", err)
	}
	defer rows.Close()

	var out []storage.Seed
	for rows.Next() {
		s, err := scanSeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning seed: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Ping reports whether the database answers.
func (r *SeedRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close closes the pool when the repository opened it. Pools passed to
// NewSeedRepository stay with the caller.
func (r *SeedRepository) Close() error {
	if r.owned {
		r.db.Close()
	}
	return nil
}

func scanSeed(row pgx.Row) (storage.Seed, error) {
	var s storage.Seed
	var seed int64
	err := row.Scan(&s.ID, &seed, &s.Hash, &s.Attempts, &s.Settings, &s.Spoiler, &s.CreatedAt)
	s.Seed = storage.SeedFromDB(seed)
	return s, err
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

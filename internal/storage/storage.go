// Package storage defines the seed archive shared by the Postgres and
// SQLite backends.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSeedNotFound is returned when an archive lookup yields no results.
var ErrSeedNotFound = errors.New("seed not found")

// Seed is one archived generation.
type Seed struct {
	ID       uuid.UUID
	Seed     uint64
	Hash     string
	Attempts int
	// Settings and Spoiler hold JSON documents.
	Settings  []byte
	Spoiler   []byte
	CreatedAt time.Time
}

// Archive persists generated seeds.
type Archive interface {
	// Save stores s, assigning ID when it is the zero UUID, and returns the
	// stored record with CreatedAt set.
	Save(ctx context.Context, s Seed) (Seed, error)
	// Get returns the seed with id, or ErrSeedNotFound.
	Get(ctx context.Context, id uuid.UUID) (Seed, error)
	// List returns up to limit seeds, newest first.
	List(ctx context.Context, limit int) ([]Seed, error)
	Close() error
}

// Pinger is implemented by archives that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SeedToDB bit-casts a 64-bit seed into a signed column value.
func SeedToDB(seed uint64) int64 { return int64(seed) }

// SeedFromDB reverses SeedToDB.
func SeedFromDB(v int64) uint64 { return uint64(v) }

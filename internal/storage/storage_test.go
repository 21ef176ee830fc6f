package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dkrando/internal/storage"
)

func TestSeedToDB_HighBit(t *testing.T) {
	v := storage.SeedToDB(1 << 63)
	assert.Negative(t, v)
	assert.Equal(t, uint64(1<<63), storage.SeedFromDB(v))
}

func TestPropertySeedColumnRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		if got := storage.SeedFromDB(storage.SeedToDB(seed)); got != seed {
			t.Fatalf("seed %d came back as %d", seed, got)
		}
	})
}

package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dkrando/internal/storage"
	"github.com/cory-johannsen/dkrando/internal/storage/sqlite"
)

func openStore(t testing.TB) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "seeds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func makeSeed(seed uint64) storage.Seed {
	return storage.Seed{
		Seed:     seed,
		Hash:     "abcdef0123",
		Attempts: 1,
		Settings: []byte(`{"open_lobbies":true}`),
		Spoiler:  []byte(`{"seed":7}`),
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "seeds.db")
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, makeSeed(7))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, uint64(7), got.Seed)
	assert.Equal(t, "abcdef0123", got.Hash)
	assert.Equal(t, `{"open_lobbies":true}`, string(got.Settings))
	assert.Equal(t, `{"seed":7}`, string(got.Spoiler))
	assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
}

func TestGet_NotFound(t *testing.T) {
	s := openStore(t)
	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, storage.ErrSeedNotFound)
}

func TestSave_DuplicateID(t *testing.T) {
	s := openStore(t)
	seed := makeSeed(1)
	seed.ID = uuid.New()
	_, err := s.Save(context.Background(), seed)
	require.NoError(t, err)
	_, err = s.Save(context.Background(), seed)
	assert.ErrorIs(t, err, sqlite.ErrSeedExists)
}

func TestList_NewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for i := range 4 {
		_, err := s.Save(ctx, makeSeed(uint64(i)))
		require.NoError(t, err)
	}
	list, err := s.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i-1].CreatedAt.Before(list[i].CreatedAt))
	}
}

func TestReopenKeepsSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.db")
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	saved, err := s.Save(context.Background(), makeSeed(99))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = sqlite.Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), got.Seed)
}

func TestConcurrentSaves(t *testing.T) {
	s := openStore(t)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Save(context.Background(), makeSeed(uint64(i)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	list, err := s.List(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, list, 8)
}

func TestPropertySeedRoundTrip(t *testing.T) {
	s := openStore(t)
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		saved, err := s.Save(context.Background(), makeSeed(seed))
		if err != nil {
			rt.Fatalf("save: %v", err)
		}
		got, err := s.Get(context.Background(), saved.ID)
		if err != nil {
			rt.Fatalf("get: %v", err)
		}
		if got.Seed != seed {
			rt.Fatalf("seed %d stored as %d", seed, got.Seed)
		}
	})
}

func TestPing(t *testing.T) {
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "seeds.db"))
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}

package generator_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dkrando/content"
	"github.com/cory-johannsen/dkrando/internal/game/entrance"
	"github.com/cory-johannsen/dkrando/internal/game/fill"
	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/pool"
	"github.com/cory-johannsen/dkrando/internal/game/settings"
	"github.com/cory-johannsen/dkrando/internal/game/world"
	"github.com/cory-johannsen/dkrando/internal/generator"
	"github.com/cory-johannsen/dkrando/internal/scripting"
)

// generousAttempts keeps the bundled-content tests independent of how
// often a particular seed needs a retry.
const generousAttempts = 100

func exampleSettings() settings.Settings {
	s := settings.Default()
	s.StartWithKongs = false
	s.TrainingBarrels = settings.TrainingShuffled
	s.ProgressiveUpgrades = false
	return s
}

func bundled(t testing.TB) *generator.Content {
	t.Helper()
	c, err := generator.LoadContent(content.FS)
	require.NoError(t, err)
	return c
}

func newGenerator(t testing.TB, s settings.Settings) *generator.Generator {
	t.Helper()
	g, err := generator.New(bundled(t), generator.Options{
		Settings:    s,
		MaxAttempts: generousAttempts,
		Logger:      zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return g
}

func completionReachable(t testing.TB, res *generator.Result) bool {
	t.Helper()
	g := res.Graph()
	ex := world.Sweep(g, res.StartState(), res.Contents())
	return slices.Contains(ex.Accessible, g.Completion())
}

func TestGenerate_ExampleScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("full generation on bundled content")
	}
	gen := newGenerator(t, exampleSettings())
	res, err := gen.Generate(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), res.Seed)
	assert.Len(t, res.Hash, 10)
	assert.GreaterOrEqual(t, res.Attempts, 1)
	assert.Positive(t, res.Draws)

	tiers := map[string]int{}
	for _, it := range res.Items {
		tiers[it.Tier]++
	}
	assert.Equal(t, 38, tiers[settings.TierHigh])
	assert.Equal(t, 40, tiers[settings.TierBlueprint])
	assert.Equal(t, 141, tiers[settings.TierLow])
	assert.Equal(t, 292-38-40-141, tiers[settings.TierExcess])
	assert.Equal(t, 9, tiers[""], "eight keys and the hoard stay constant")
	assert.Len(t, res.Items, 292+9)

	high := map[item.Category]int{}
	for _, it := range res.Items {
		if it.Tier == settings.TierHigh {
			high[item.MustParse(it.Item).Category()]++
		}
	}
	assert.Equal(t, 5, high[item.CategoryKong])
	assert.Equal(t, 5, high[item.CategoryGun])
	assert.Equal(t, 5, high[item.CategoryInstrument])
	assert.Equal(t, 4, high[item.CategoryTraining])
	assert.Equal(t, 15, high[item.CategoryMove])
	assert.Equal(t, 1, high[item.CategoryCamera])

	assert.True(t, completionReachable(t, res))
	assert.Len(t, res.LevelOrder, 8)
	assert.Len(t, res.KeyOrder, 8)
	assert.NotEmpty(t, res.Doors)
	assert.NotEmpty(t, res.Transitions)
}

func TestGenerate_Deterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("full generation on bundled content")
	}
	s := exampleSettings()
	s.ShuffleLevels = true
	a, err := newGenerator(t, s).Generate(context.Background(), 7)
	require.NoError(t, err)
	b, err := newGenerator(t, s).Generate(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, a.Hash, b.Hash)
	assert.Equal(t, a.Items, b.Items)
	assert.Equal(t, a.LevelOrder, b.LevelOrder)
	assert.Equal(t, a.Doors, b.Doors)
	assert.Equal(t, a.Draws, b.Draws)
}

func TestGenerate_ShuffledLevelsKeepHelmLast(t *testing.T) {
	if testing.Short() {
		t.Skip("full generation on bundled content")
	}
	s := exampleSettings()
	s.ShuffleLevels = true
	gen := newGenerator(t, s)
	for seed := uint64(1); seed <= 3; seed++ {
		res, err := gen.Generate(context.Background(), seed)
		require.NoError(t, err)
		assert.Equal(t, item.Helm.String(), res.LevelOrder[7])
		assert.ElementsMatch(t, res.LevelOrder, []string{
			"japes", "aztec", "factory", "galleon", "forest", "caves", "castle", "helm",
		})
		assert.True(t, completionReachable(t, res), "seed %d", seed)
	}
}

func TestGenerate_SpheresCoverItems(t *testing.T) {
	if testing.Short() {
		t.Skip("full generation on bundled content")
	}
	res, err := newGenerator(t, exampleSettings()).Generate(context.Background(), 3)
	require.NoError(t, err)

	spheres := res.Spheres()
	require.NotEmpty(t, spheres)
	total := 0
	for _, sp := range spheres {
		total += len(sp)
	}
	assert.Equal(t, len(res.Items), total, "accessibility all puts every item in a sphere")
}

func TestGenerate_CancelledContext(t *testing.T) {
	gen := newGenerator(t, exampleSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gen.Generate(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidSettingsIsConfigError(t *testing.T) {
	s := exampleSettings()
	s.StartingKong = "krusha"
	_, err := generator.New(bundled(t), generator.Options{Settings: s})
	require.ErrorIs(t, err, generator.ErrConfiguration)
	var ce *pool.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "settings", ce.Constraint)
}

func TestNew_HooksAddStartingItems(t *testing.T) {
	hooks := scripting.NewManager(zaptest.NewLogger(t), 0)
	t.Cleanup(hooks.Close)
	require.NoError(t, hooks.Load(content.FS, "scripts"))

	s := exampleSettings()
	s.UnlockFairyShockwave = true
	gen, err := generator.New(bundled(t), generator.Options{
		Settings: s,
		Hooks:    hooks,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	assert.Contains(t, gen.Plan().Starting, item.CameraAndShockwave)
}

func TestGenerateBatch_OrderedResults(t *testing.T) {
	if testing.Short() {
		t.Skip("full generation on bundled content")
	}
	gen := newGenerator(t, exampleSettings())
	seeds := []uint64{11, 12, 13}
	items, err := gen.GenerateBatch(context.Background(), seeds, 2)
	require.NoError(t, err)
	require.Len(t, items, len(seeds))
	for i, it := range items {
		assert.Equal(t, seeds[i], it.Seed)
		require.NoError(t, it.Err)
		assert.Equal(t, seeds[i], it.Result.Seed)
	}

	single, err := gen.Generate(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, single.Hash, items[1].Result.Hash, "batch seeds match standalone generation")
}

func TestGenerateBatch_CancelledContext(t *testing.T) {
	gen := newGenerator(t, exampleSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gen.GenerateBatch(ctx, []uint64{1, 2}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerationError_Unwrap(t *testing.T) {
	last := fmt.Errorf("%w: completion unreachable", fill.ErrUnverified)
	err := error(&generator.GenerationError{Seed: 9, Attempts: 3, Last: last})
	assert.ErrorIs(t, err, generator.ErrExhausted)
	assert.ErrorIs(t, err, fill.ErrUnverified)
	assert.NotErrorIs(t, err, generator.ErrConfiguration)
	assert.Contains(t, err.Error(), "seed 9")
	assert.Contains(t, err.Error(), "3 attempts")
}

func TestGenerationError_WrapsEntranceFailures(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.SampledFrom([]error{
			entrance.ErrDisconnected,
			entrance.ErrNoCandidate,
			generator.ErrFillExhausted,
			fill.ErrUnverified,
		}).Draw(t, "base")
		seed := rapid.Uint64().Draw(t, "seed")
		err := error(&generator.GenerationError{Seed: seed, Attempts: 1, Last: fmt.Errorf("attempt: %w", base)})
		if !errors.Is(err, base) || !errors.Is(err, generator.ErrExhausted) {
			t.Fatalf("%v does not match %v", err, base)
		}
	})
}

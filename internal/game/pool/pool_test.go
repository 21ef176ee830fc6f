package pool_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dkrando/content"
	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/pool"
	"github.com/cory-johannsen/dkrando/internal/game/settings"
	"github.com/cory-johannsen/dkrando/internal/game/world"
)

func bundledGraph(t *testing.T, s settings.Settings) *world.Graph {
	t.Helper()
	c, err := world.LoadContent(content.FS, "world")
	require.NoError(t, err)
	g, err := world.Build(c, world.BuildOptions{Params: s.Params(), Flags: s.Flags()})
	require.NoError(t, err)
	return g
}

func exampleSettings() settings.Settings {
	s := settings.Default()
	s.StartWithKongs = false
	s.TrainingBarrels = settings.TrainingShuffled
	s.ProgressiveUpgrades = false
	return s
}

func TestBuild_ExampleCounts(t *testing.T) {
	s := exampleSettings()
	g := bundledGraph(t, s)
	p, err := pool.Build(g, s, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Len(t, p.Shuffle, 292)
	assert.Len(t, p.Constants, 9, "eight keys and the hoard")

	high, ok := p.Tier(settings.TierHigh)
	require.True(t, ok)
	assert.Len(t, high.Items, 38)
	counts := map[item.Category]int{}
	for _, k := range high.Items {
		counts[k.Category()]++
	}
	assert.Equal(t, 5, counts[item.CategoryKong])
	assert.Equal(t, 5, counts[item.CategoryGun])
	assert.Equal(t, 5, counts[item.CategoryInstrument])
	assert.Equal(t, 4, counts[item.CategoryTraining])
	assert.Equal(t, 15, counts[item.CategoryMove])
	assert.Equal(t, 1, counts[item.CategoryCamera])
	assert.Equal(t, 3, high.Items.Count(item.ProgressiveSlam))

	excess, ok := p.Tier(settings.TierExcess)
	require.True(t, ok)
	assert.True(t, excess.Filler)
	assert.Len(t, excess.Items, 292-38-40-141)
	assert.Len(t, p.AllItems(), len(p.Shuffle), "every shuffle location gets exactly one item")
	assert.Equal(t, item.List{item.Donkey}, p.Starting)
}

func TestBuild_AssumedIsUnionOfLaterTiers(t *testing.T) {
	s := exampleSettings()
	g := bundledGraph(t, s)
	p, err := pool.Build(g, s, nil, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"high", "blueprint", "low", "excess"}, []string{
		p.Tiers[0].Name, p.Tiers[1].Name, p.Tiers[2].Name, p.Tiers[3].Name,
	})
	for i, tier := range p.Tiers {
		var later item.List
		for _, next := range p.Tiers[i+1:] {
			later = append(later, next.Items...)
		}
		assert.True(t, later.Equal(tier.Assumed), "tier %s must assume exactly the later tiers", tier.Name)
	}
	assert.Empty(t, p.Tiers[3].Assumed)
}

func TestBuild_StartWithOptions(t *testing.T) {
	s := settings.Default()
	s.StartWithKongs = true
	s.StartWithCrankyMoves = true
	s.TrainingBarrels = settings.TrainingStartWith
	g := bundledGraph(t, s)

	p, err := pool.Build(g, s, item.List{item.CameraAndShockwave}, nil)
	require.NoError(t, err)

	high, _ := p.Tier(settings.TierHigh)
	assert.Equal(t, 0, high.Items.Count(item.Diddy), "no kong is shuffled when all kongs start owned")
	assert.Equal(t, 0, high.Items.Count(item.ProgressiveSlam))
	assert.Len(t, high.Items, 5+5+1)

	for _, k := range pool.Kongs() {
		assert.Equal(t, 1, p.Starting.Count(k))
	}
	assert.Equal(t, 3, p.Starting.Count(item.ProgressiveSlam))
	assert.Equal(t, 1, p.Starting.Count(item.Vines))
	assert.Equal(t, 1, p.Starting.Count(item.CameraAndShockwave), "extra items are appended")

	var noItems int
	for _, c := range p.Constants {
		if c.Item == item.NoItem {
			noItems++
		}
	}
	assert.Equal(t, 4+4+18, noItems, "training barrels, kong cages and cranky counters are emptied")
	assert.Len(t, p.AllItems(), len(p.Shuffle))
}

func TestBuild_ProgressivePotions(t *testing.T) {
	s := exampleSettings()
	s.ProgressiveUpgrades = true
	g := bundledGraph(t, s)
	p, err := pool.Build(g, s, nil, nil)
	require.NoError(t, err)
	high, _ := p.Tier(settings.TierHigh)
	assert.Equal(t, 3, high.Items.Count(item.ProgressiveLankyPotion))
	assert.Equal(t, 0, high.Items.Count(item.Orangstand))
}

func TestBuild_TooManyItems(t *testing.T) {
	fsys := fstest.MapFS{
		"w/world.yaml": {Data: []byte("start: a\nhub: a\nkrool: a\ncompletion: hoard\n")},
		"w/levels/isles.yaml": {Data: []byte(`
level: isles
regions:
  - id: a
    locations:
      - {id: hoard, kind: hoard}
      - {id: gb, kind: banana}
`)},
	}
	c, err := world.LoadContent(fsys, "w")
	require.NoError(t, err)
	g, err := world.Build(c, world.BuildOptions{})
	require.NoError(t, err)

	_, err = pool.Build(g, settings.Default(), nil, nil)
	var ce *pool.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "item count", ce.Constraint)
}

func TestCheck_CompletionUnreachableWithoutLevels(t *testing.T) {
	s := exampleSettings()
	g := bundledGraph(t, s)
	p, err := pool.Build(g, s, nil, nil)
	require.NoError(t, err)

	err = p.Check(g)
	var ce *pool.ConfigError
	require.ErrorAs(t, err, &ce, "krool is never connected on the raw template")
	assert.Equal(t, "completion", ce.Constraint)
}

func TestFitsExcessPadding(t *testing.T) {
	assert.Len(t, pool.ExcessItems(), 139)
	assert.Len(t, pool.LowPriorityItems(), 141)
	assert.Len(t, pool.Blueprints(), 40)
	assert.Len(t, pool.Keys(), 8)
	assert.Len(t, pool.Potions(), 15)
	assert.Len(t, pool.Moves(), 15)
}

package entrance_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dkrando/content"
	"github.com/cory-johannsen/dkrando/internal/game/entrance"
	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
	"github.com/cory-johannsen/dkrando/internal/game/settings"
	"github.com/cory-johannsen/dkrando/internal/game/world"
	"github.com/cory-johannsen/dkrando/internal/rng"
)

const testWorld = `
start: start
hub: hub
completion: prize
krool: arena
slot_keys:
  2: [1]
levels:
  - {level: japes, lobby: japes_lobby, entry: japes_main, boss_lobby: japes_boss_lobby}
  - {level: aztec, lobby: aztec_lobby, entry: aztec_main, boss_lobby: aztec_boss_lobby}
`

const testIsles = `
level: isles
regions:
  - id: start
    transitions:
      - {to: hub, back: true}
  - id: hub
  - id: japes_lobby
  - id: aztec_lobby
  - id: arena
    locations:
      - {id: prize, kind: hoard, vanilla: banana_hoard}
`

const testJapes = `
level: japes
regions:
  - id: japes_main
    transitions:
      - {to: japes_side, logic: coconut, back: true}
    locations:
      - {id: japes_gb, kind: banana}
  - id: japes_side
  - id: japes_boss_lobby
    locations:
      - {id: japes_key, kind: key, vanilla: jungle_japes_key}
`

const testAztec = `
level: aztec
regions:
  - id: aztec_main
  - id: aztec_boss_lobby
    locations:
      - {id: aztec_key, kind: key, vanilla: angry_aztec_key}
`

func testGraph(t testing.TB) *world.Graph {
	fsys := fstest.MapFS{
		"w/world.yaml":        {Data: []byte(testWorld)},
		"w/levels/isles.yaml": {Data: []byte(testIsles)},
		"w/levels/japes.yaml": {Data: []byte(testJapes)},
		"w/levels/aztec.yaml": {Data: []byte(testAztec)},
	}
	c, err := world.LoadContent(fsys, "w")
	require.NoError(t, err)
	g, err := world.Build(c, world.BuildOptions{})
	require.NoError(t, err)
	return g
}

func wrinklyDoors(level item.Level, region string) []entrance.Door {
	out := make([]entrance.Door, 0, len(item.Kongs))
	for i := range item.Kongs {
		out = append(out, entrance.NewDoor(fmt.Sprintf("%s wrinkly %d", level, i), "", region, level).
			WithGroup(9).
			WithType(entrance.TypeWrinkly).
			WithVanilla(entrance.PlacedWrinkly).
			Build())
	}
	return out
}

func testTable(t testing.TB, g *world.Graph) *entrance.Table {
	doors := []entrance.Door{
		entrance.NewDoor("J1", "", "japes_main", item.Japes).WithGroup(1).WithVanilla(entrance.PlacedTns).Build(),
		entrance.NewDoor("J2", "", "japes_main", item.Japes).WithGroup(1).WithVanilla(entrance.PlacedTns).Build(),
		entrance.NewDoor("J3", "", "japes_side", item.Japes).WithGroup(2).WithMoveless(false).WithLogic("coconut").Build(),
		entrance.NewDoor("A1", "", "aztec_main", item.Aztec).WithGroup(1).WithVanilla(entrance.PlacedTns).Build(),
	}
	doors = append(doors, wrinklyDoors(item.Japes, "japes_main")...)
	doors = append(doors, wrinklyDoors(item.Aztec, "aztec_main")...)
	tbl := entrance.NewTable(doors...)
	require.NoError(t, tbl.Bind(g, logic.NewParser(nil, nil)))
	return tbl
}

func region(t testing.TB, g *world.Graph, key string) world.RegionID {
	id, ok := g.RegionByKey(key)
	require.True(t, ok, "region %s", key)
	return id
}

func TestNewDoor_Defaults(t *testing.T) {
	d := entrance.NewDoor("d", "m", "r", item.Japes).Build()
	assert.Equal(t, entrance.DefaultScale, d.Scale)
	assert.True(t, d.Moveless)
	assert.Equal(t, entrance.TypeBoth, d.Type)
	assert.Equal(t, entrance.PlacedNone, d.Vanilla)
	assert.Equal(t, item.Kongs, d.Kongs)
	assert.Equal(t, world.NoRegion, d.Region)
	assert.True(t, d.Logic.Eval(logic.NewState()))

	d = entrance.NewDoor("d", "m", "r", item.Japes).WithKongs(item.KongTiny).Build()
	assert.True(t, d.AllowsKong(item.KongTiny))
	assert.False(t, d.AllowsKong(item.KongDonkey))
}

func TestDoorType_CanHost(t *testing.T) {
	assert.True(t, entrance.TypeBoth.CanHost(entrance.PlacedTns))
	assert.True(t, entrance.TypeBoth.CanHost(entrance.PlacedWrinkly))
	assert.False(t, entrance.TypeWrinkly.CanHost(entrance.PlacedTns))
	assert.False(t, entrance.TypeTns.CanHost(entrance.PlacedWrinkly))
	assert.False(t, entrance.TypeBoth.CanHost(entrance.PlacedNone))

	_, err := entrance.ParseDoorType("portal")
	assert.Error(t, err)
	p, err := entrance.ParsePlacement("TNS")
	require.NoError(t, err)
	assert.Equal(t, entrance.PlacedTns, p)
}

func TestLoadDoorsFromBytes(t *testing.T) {
	data := []byte(`
level: japes
doors:
  - {name: a, map: m, region: japes_main, position: [1, 2, 3, 90], scale: 0.5, kongs: [tiny], group: 4, moveless: false, logic: tiny & feather, vanilla: wrinkly}
  - {name: b, map: m, region: japes_main, position: [0, 0, 0, 0], type: tns}
`)
	doors, err := entrance.LoadDoorsFromBytes(data)
	require.NoError(t, err)
	require.Len(t, doors, 2)

	a := doors[0]
	assert.Equal(t, item.Japes, a.Level)
	assert.Equal(t, [4]float64{1, 2, 3, 90}, a.Position)
	assert.Equal(t, 0.5, a.Scale)
	assert.Equal(t, []item.Kong{item.KongTiny}, a.Kongs)
	assert.Equal(t, 4, a.Group)
	assert.False(t, a.Moveless)
	assert.Equal(t, "tiny & feather", a.LogicSource)
	assert.Equal(t, entrance.PlacedWrinkly, a.Vanilla)

	b := doors[1]
	assert.Equal(t, entrance.DefaultScale, b.Scale)
	assert.True(t, b.Moveless)
	assert.Equal(t, entrance.TypeTns, b.Type)
}

func TestLoadDoorsFromBytes_Errors(t *testing.T) {
	cases := map[string]string{
		"bad level":     "level: moon\ndoors: []\n",
		"no region":     "level: japes\ndoors:\n  - {name: a, position: [0, 0, 0, 0]}\n",
		"short pos":     "level: japes\ndoors:\n  - {name: a, region: r, position: [0, 0]}\n",
		"bad kong":      "level: japes\ndoors:\n  - {name: a, region: r, position: [0, 0, 0, 0], kongs: [krusha]}\n",
		"type conflict": "level: japes\ndoors:\n  - {name: a, region: r, position: [0, 0, 0, 0], type: wrinkly, vanilla: tns}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := entrance.LoadDoorsFromBytes([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestBundledDoors(t *testing.T) {
	tbl, err := entrance.LoadTable(content.FS, "doors")
	require.NoError(t, err)
	assert.Equal(t, 332, tbl.Len())

	for _, l := range item.MainLevels {
		n := 0
		for _, d := range tbl.Doors(l) {
			if d.Vanilla == entrance.PlacedTns {
				n++
			}
		}
		want := 5
		if l == item.Japes {
			want = 2
		}
		assert.Equal(t, want, n, "vanilla portals in %s", l)
	}

	c, err := world.LoadContent(content.FS, "world")
	require.NoError(t, err)
	s := settings.Default()
	g, err := world.Build(c, world.BuildOptions{Params: s.Params(), Flags: s.Flags()})
	require.NoError(t, err)
	assert.NoError(t, tbl.Bind(g, logic.NewParser(c.Macros, s.Params())))
}

func TestTableClone_Isolated(t *testing.T) {
	g := testGraph(t)
	tbl := testTable(t, g)
	c := tbl.Clone()
	c.Doors(item.Japes)[0].Placed = entrance.PlacedTns
	assert.Equal(t, entrance.PlacedNone, tbl.Doors(item.Japes)[0].Placed)
	assert.Equal(t, tbl.Len(), c.Len())
}

func TestAssign_Vanilla(t *testing.T) {
	g := testGraph(t)
	tbl := testTable(t, g)
	a := entrance.NewAssigner(rng.NewSeeded(1), entrance.Options{}, zaptest.NewLogger(t))

	placed, err := a.Assign(g, tbl, []item.Level{item.Japes, item.Aztec})
	require.NoError(t, err)

	var portals []string
	var kongs []item.Kong
	for _, p := range placed {
		switch p.Placed {
		case entrance.PlacedTns:
			portals = append(portals, p.Door)
		case entrance.PlacedWrinkly:
			if p.Level == item.Japes {
				kongs = append(kongs, p.Kong)
			}
		}
	}
	assert.Equal(t, []string{"J1", "A1"}, portals, "J2 shares J1's group and is skipped")
	assert.Equal(t, item.Kongs, kongs)

	edges := g.Transitions(world.Portal)
	require.Len(t, edges, 2)
	var japes *world.Transition
	for i := range edges {
		e := &edges[i]
		assert.Equal(t, world.Front, e.Direction)
		assert.NotEqual(t, region(t, g, "japes_boss_lobby"), e.From, "portals are one-way")
		if e.Name == "J1" {
			japes = e
		}
	}
	require.NotNil(t, japes)
	assert.Equal(t, region(t, g, "japes_main"), japes.From)
	assert.Equal(t, region(t, g, "japes_boss_lobby"), japes.To)
}

func TestAssign_ShuffledGroupExclusive(t *testing.T) {
	base := testGraph(t)
	baseTable := testTable(t, base)
	rapid.Check(t, func(rt *rapid.T) {
		g := base.Clone()
		tbl := baseTable.Clone()
		seed := rapid.Uint64().Draw(rt, "seed")
		opts := entrance.Options{Shuffle: true, PortalsPerLevel: 2, MovelessFirstPortal: true}
		placed, err := entrance.NewAssigner(rng.NewSeeded(seed), opts, nil).Assign(g, tbl, []item.Level{item.Japes})
		require.NoError(rt, err)

		groups := map[int]int{}
		kongs := map[item.Kong]string{}
		for _, d := range tbl.Doors(item.Japes) {
			switch d.Placed {
			case entrance.PlacedTns:
				groups[d.Group]++
				assert.True(rt, d.Type.CanHost(entrance.PlacedTns))
			case entrance.PlacedWrinkly:
				_, dup := kongs[d.AssignedKong]
				assert.False(rt, dup, "kong %s placed twice", d.AssignedKong)
				kongs[d.AssignedKong] = d.Name
				assert.True(rt, d.AllowsKong(d.AssignedKong))
			}
		}
		assert.Equal(rt, map[int]int{1: 1, 2: 1}, groups)
		assert.Len(rt, kongs, len(item.Kongs))
		assert.Len(rt, placed, 2+len(item.Kongs))
		assert.Len(rt, g.Transitions(world.Portal), 2)
	})
}

func TestAssign_MovelessFirst(t *testing.T) {
	base := testGraph(t)
	baseTable := testTable(t, base)
	for seed := uint64(0); seed < 50; seed++ {
		tbl := baseTable.Clone()
		opts := entrance.Options{Shuffle: true, PortalsPerLevel: 1, MovelessFirstPortal: true}
		_, err := entrance.NewAssigner(rng.NewSeeded(seed), opts, nil).Assign(base.Clone(), tbl, []item.Level{item.Japes})
		require.NoError(t, err)
		for _, d := range tbl.Doors(item.Japes) {
			if d.Placed == entrance.PlacedTns {
				assert.True(t, d.Moveless, "seed %d placed the only portal on %s", seed, d.Name)
			}
		}
	}
}

func TestAssign_NoCandidate(t *testing.T) {
	g := testGraph(t)
	tbl := testTable(t, g)
	opts := entrance.Options{Shuffle: true, PortalsPerLevel: 2}
	_, err := entrance.NewAssigner(rng.NewSeeded(3), opts, nil).Assign(g, tbl, []item.Level{item.Aztec})
	require.Error(t, err)
	assert.True(t, errors.Is(err, entrance.ErrNoCandidate))
}

func TestConnectLevels_Gates(t *testing.T) {
	g := testGraph(t)
	gates := entrance.LevelGates{EntryGBs: []int{1, 5}, KRoolKeys: []int{1, 2}}
	require.NoError(t, entrance.ConnectLevels(g, entrance.VanillaOrder(g), gates))

	reached := world.Reachable(g, logic.NewState())
	assert.True(t, reached.Has(region(t, g, "japes_lobby")), "slot 1 needs no key")
	assert.False(t, reached.Has(region(t, g, "japes_main")), "slot 1 needs a golden banana")
	assert.False(t, reached.Has(region(t, g, "aztec_lobby")))

	s := logic.StateOf(item.GoldenBanana, item.JungleJapesKey)
	reached = world.Reachable(g, s)
	assert.True(t, reached.Has(region(t, g, "japes_main")))
	assert.True(t, reached.Has(region(t, g, "aztec_lobby")))
	assert.False(t, reached.Has(region(t, g, "aztec_main")), "slot 2 needs five golden bananas")
	assert.False(t, reached.Has(region(t, g, "arena")))

	s.Add(item.AngryAztecKey)
	assert.True(t, world.Reachable(g, s).Has(region(t, g, "arena")))
}

func TestConnectLevels_ShuffledOrderMovesGates(t *testing.T) {
	g := testGraph(t)
	order := []item.Level{item.Aztec, item.Japes}
	require.NoError(t, entrance.ConnectLevels(g, order, entrance.LevelGates{OpenLevels: true}))

	reached := world.Reachable(g, logic.NewState())
	assert.True(t, reached.Has(region(t, g, "aztec_main")), "aztec now sits in slot 1")
	assert.False(t, reached.Has(region(t, g, "japes_lobby")))
	assert.True(t, world.Reachable(g, logic.StateOf(item.AngryAztecKey)).Has(region(t, g, "japes_lobby")))
	assert.Equal(t, []item.Kind{item.AngryAztecKey, item.JungleJapesKey}, entrance.KeyOrder(order))
}

func TestConnectLevels_Open(t *testing.T) {
	g := testGraph(t)
	gates := entrance.LevelGates{OpenLobbies: true, OpenLevels: true, EntryGBs: []int{100, 100}}
	require.NoError(t, entrance.ConnectLevels(g, entrance.VanillaOrder(g), gates))
	reached := world.Reachable(g, logic.NewState())
	for _, key := range []string{"japes_lobby", "japes_main", "aztec_lobby", "aztec_main"} {
		assert.True(t, reached.Has(region(t, g, key)), key)
	}
}

func TestConnectLevels_WrongLength(t *testing.T) {
	g := testGraph(t)
	assert.Error(t, entrance.ConnectLevels(g, []item.Level{item.Japes}, entrance.LevelGates{}))
}

func TestValidate(t *testing.T) {
	g := testGraph(t)
	require.NoError(t, entrance.ConnectLevels(g, entrance.VanillaOrder(g), entrance.LevelGates{KRoolKeys: []int{1, 2}}))

	err := entrance.Validate(g, entrance.AllItems())
	require.Error(t, err)
	assert.True(t, errors.Is(err, entrance.ErrDisconnected))
	assert.Contains(t, err.Error(), "japes_boss_lobby")

	tbl := testTable(t, g)
	_, err = entrance.NewAssigner(rng.NewSeeded(1), entrance.Options{}, nil).Assign(g, tbl, entrance.VanillaOrder(g))
	require.NoError(t, err)
	assert.NoError(t, entrance.Validate(g, entrance.AllItems()))
}

func TestShuffleOrder_KeepsFixedLevels(t *testing.T) {
	c, err := world.LoadContent(content.FS, "world")
	require.NoError(t, err)
	s := settings.Default()
	g, err := world.Build(c, world.BuildOptions{Params: s.Params(), Flags: s.Flags()})
	require.NoError(t, err)
	vanilla := entrance.VanillaOrder(g)
	require.Len(t, vanilla, 8)

	rapid.Check(t, func(rt *rapid.T) {
		order := entrance.ShuffleOrder(rng.NewSeeded(rapid.Uint64().Draw(rt, "seed")), g)
		assert.Equal(rt, item.Helm, order[7])
		sorted := slices.Clone(order)
		slices.Sort(sorted)
		assert.Equal(rt, vanilla, sorted)
	})
}

package entrance

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
	"github.com/cory-johannsen/dkrando/internal/game/world"
	"github.com/cory-johannsen/dkrando/internal/rng"
)

// ErrDisconnected reports a rewired graph that strands a boss lobby or a
// region holding a location.
var ErrDisconnected = errors.New("entrance: graph disconnected")

// LevelGates are the settings that gate level entrances.
type LevelGates struct {
	// OpenLobbies removes the key requirement of every lobby.
	OpenLobbies bool
	// OpenLevels removes the golden banana requirement of every level.
	OpenLevels bool
	// EntryGBs is the golden banana requirement per 1-based slot.
	EntryGBs []int
	// KRoolKeys are the 1-based slots whose keys open K. Rool's arena.
	KRoolKeys []int
}

// VanillaOrder returns the levels in their unmodified slots.
func VanillaOrder(g *world.Graph) []item.Level {
	out := make([]item.Level, 0, len(g.Levels()))
	for _, li := range g.Levels() {
		out = append(out, li.Level)
	}
	return out
}

// ShuffleOrder permutes the levels that are not fixed across the slots
// they occupy. Fixed levels keep their slot.
//
// Postcondition: The result is a permutation of VanillaOrder(g).
func ShuffleOrder(src rng.Source, g *world.Graph) []item.Level {
	order := VanillaOrder(g)
	var slots []int
	var movable []item.Level
	for i, li := range g.Levels() {
		if !li.Fixed {
			slots = append(slots, i)
			movable = append(movable, li.Level)
		}
	}
	rng.Shuffle(src, movable)
	for i, slot := range slots {
		order[slot] = movable[i]
	}
	return order
}

// KeyOrder returns the key earned in each slot of order.
func KeyOrder(order []item.Level) []item.Kind {
	out := make([]item.Kind, len(order))
	for i, l := range order {
		k, _ := l.Key()
		out[i] = k
	}
	return out
}

// ConnectLevels adds the hub-to-lobby, lobby-to-level and K. Rool
// transitions for order.
//
// Precondition: order is a permutation of VanillaOrder(g).
// Postcondition: Slot n's lobby requires the keys of the slots listed by
// g.SlotKeys(n) unless lobbies are open; each level entry requires the
// slot's golden banana count unless levels are open, plus the level's own
// entry logic.
func ConnectLevels(g *world.Graph, order []item.Level, gates LevelGates) error {
	if len(order) != len(g.Levels()) {
		return fmt.Errorf("level order has %d entries, want %d", len(order), len(g.Levels()))
	}
	keys := KeyOrder(order)
	slotKey := func(slots []int) logic.Expr {
		var terms []logic.Expr
		for _, s := range slots {
			if s >= 1 && s <= len(keys) && keys[s-1] != item.NoItem {
				terms = append(terms, logic.Item(keys[s-1]))
			}
		}
		return logic.And(terms...)
	}

	for i, l := range order {
		slot := i + 1
		li, ok := g.LevelInfo(l)
		if !ok {
			return fmt.Errorf("level %s has no entrance", l)
		}
		name := fmt.Sprintf("slot %d: %s", slot, l)

		lobbyGate := logic.Expr(logic.Always)
		if !gates.OpenLobbies {
			lobbyGate = slotKey(g.SlotKeys(slot))
		}
		g.AddTransition(world.Transition{From: g.Hub(), To: li.Lobby, Logic: lobbyGate, Kind: world.LevelEntrance, Name: name})
		g.AddTransition(world.Transition{From: li.Lobby, To: g.Hub(), Logic: logic.Always, Direction: world.Back, Kind: world.LevelEntrance, Name: name})

		entryGate := li.EntryLogic
		if !gates.OpenLevels && slot <= len(gates.EntryGBs) {
			entryGate = logic.And(logic.AtLeast(item.GoldenBanana, gates.EntryGBs[slot-1]), li.EntryLogic)
		}
		g.AddTransition(world.Transition{From: li.Lobby, To: li.Entry, Logic: entryGate, Kind: world.LevelEntrance, Name: name})
		g.AddTransition(world.Transition{From: li.Entry, To: li.Lobby, Logic: logic.Always, Direction: world.Back, Kind: world.LevelEntrance, Name: name})
	}

	g.AddTransition(world.Transition{
		From:  g.Hub(),
		To:    g.KRool(),
		Logic: slotKey(gates.KRoolKeys),
		Kind:  world.LevelEntrance,
		Name:  "krool",
	})
	return nil
}

// AllItems returns a state owning every item in the quantities the pool
// can hold.
func AllItems() *logic.State {
	s := logic.NewState()
	for _, k := range item.All() {
		s.Add(k)
	}
	for k, n := range map[item.Kind]int{
		item.GoldenBanana:            200,
		item.BananaFairy:             19,
		item.BananaMedal:             39,
		item.BattleCrown:             9,
		item.ProgressiveSlam:         2,
		item.ProgressiveDonkeyPotion: 2,
		item.ProgressiveDiddyPotion:  2,
		item.ProgressiveLankyPotion:  2,
		item.ProgressiveTinyPotion:   2,
		item.ProgressiveChunkyPotion: 2,
	} {
		for range n {
			s.Add(k)
		}
	}
	return s
}

// Validate checks that under s the start reaches every boss lobby and
// every region holding a location.
//
// Postcondition: Returns nil, or an error wrapping ErrDisconnected naming
// the first stranded region.
func Validate(g *world.Graph, s *logic.State) error {
	reached := world.Reachable(g, s)
	for _, lobby := range g.BossLobbies() {
		if !reached.Has(lobby) {
			return fmt.Errorf("%w: boss lobby %s unreachable", ErrDisconnected, g.Region(lobby).Key)
		}
	}
	for _, loc := range g.Locations() {
		if !reached.Has(loc.Region) {
			return fmt.Errorf("%w: region %s unreachable", ErrDisconnected, g.Region(loc.Region).Key)
		}
	}
	return nil
}

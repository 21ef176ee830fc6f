// Package world provides the region graph: regions, transitions between
// them, item locations and the reachability evaluator that explores it.
package world

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
)

// RegionID is a dense index into Graph.Regions.
type RegionID int

// LocationID is a dense index into Graph.Locations.
type LocationID int

// NoRegion marks an unset region reference.
const NoRegion RegionID = -1

// Direction tells whether a transition was authored or derived as the
// reverse of an authored one.
type Direction int

// Transition directions.
const (
	Front Direction = iota
	Back
)

func (d Direction) String() string {
	if d == Back {
		return "back"
	}
	return "front"
}

// TransitionKind separates static world edges from the edges added per
// attempt by level and door assignment.
type TransitionKind int

// Transition kinds.
const (
	Static TransitionKind = iota
	LevelEntrance
	Portal
)

func (k TransitionKind) String() string {
	switch k {
	case LevelEntrance:
		return "level"
	case Portal:
		return "portal"
	}
	return "static"
}

// Transition is a directed edge between regions guarded by a predicate.
type Transition struct {
	From      RegionID
	To        RegionID
	Logic     logic.Expr
	Direction Direction
	Kind      TransitionKind
	// Name labels generated transitions (level slot, door name). Empty for
	// static edges.
	Name string
}

// EventTrigger fires a named event once its region is reached and its
// predicate holds.
type EventTrigger struct {
	Name  string
	Logic logic.Expr
}

// Region is a node of the graph.
type Region struct {
	ID          RegionID
	Key         string
	Name        string
	Level       item.Level
	Transitions []Transition
	Locations   []LocationID
	Events      []EventTrigger
}

// LocationKind describes what sort of check a location is.
type LocationKind int

// Location kinds.
const (
	KindBanana LocationKind = iota
	KindBlueprint
	KindMedal
	KindFairy
	KindCrown
	KindCoin
	KindKey
	KindHoard
	KindKong
	KindTraining
	KindCranky
	KindFunky
	KindCandy
	KindSnide
	KindCamera
)

var locationKindNames = [...]string{
	KindBanana:    "banana",
	KindBlueprint: "blueprint",
	KindMedal:     "medal",
	KindFairy:     "fairy",
	KindCrown:     "crown",
	KindCoin:      "coin",
	KindKey:       "key",
	KindHoard:     "hoard",
	KindKong:      "kong",
	KindTraining:  "training",
	KindCranky:    "cranky",
	KindFunky:     "funky",
	KindCandy:     "candy",
	KindSnide:     "snide",
	KindCamera:    "camera",
}

func (k LocationKind) String() string {
	if k < 0 || int(k) >= len(locationKindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return locationKindNames[k]
}

// IsShop reports whether k is a shop counter.
func (k LocationKind) IsShop() bool {
	return k == KindCranky || k == KindFunky || k == KindCandy || k == KindSnide
}

// ParseLocationKind resolves a kind name. "shop" is an alias for cranky.
func ParseLocationKind(s string) (LocationKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "shop" {
		return KindCranky, nil
	}
	for i, n := range locationKindNames {
		if n == s {
			return LocationKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown location kind %q", s)
}

// Location is a check that holds exactly one item.
type Location struct {
	ID     LocationID
	Key    string
	Name   string
	Region RegionID
	Kind   LocationKind
	// Logic is the location's own requirement on top of reaching Region.
	Logic logic.Expr
	// Vanilla is the item found here in the unmodified game, or NoItem.
	Vanilla item.Kind
}

// LevelInfo describes one of the Isles level entrances.
type LevelInfo struct {
	Level      item.Level
	Lobby      RegionID
	Entry      RegionID
	BossLobby  RegionID
	EntryLogic logic.Expr
	// Fixed levels keep their slot when level order is shuffled.
	Fixed bool
}

// Graph is the region graph.
//
// Invariant: Regions[i].ID == i and Locations[i].ID == i. Only Transitions
// change after Build, and only on a Clone owned by one attempt.
type Graph struct {
	regions    []Region
	locations  []Location
	regionKey  map[string]RegionID
	locKey     map[string]LocationID
	levels     []LevelInfo
	slotKeys   map[int][]int
	start      RegionID
	hub        RegionID
	krool      RegionID
	completion LocationID
}

// Start returns the region every exploration begins from.
func (g *Graph) Start() RegionID { return g.start }

// Hub returns the region holding the level entrances.
func (g *Graph) Hub() RegionID { return g.hub }

// KRool returns the final boss region.
func (g *Graph) KRool() RegionID { return g.krool }

// Completion returns the location whose access means the game is beaten.
func (g *Graph) Completion() LocationID { return g.completion }

// NumRegions returns the number of regions.
func (g *Graph) NumRegions() int { return len(g.regions) }

// NumLocations returns the number of locations.
func (g *Graph) NumLocations() int { return len(g.locations) }

// Region returns the region with the given id.
//
// Precondition: 0 <= id < NumRegions().
func (g *Graph) Region(id RegionID) *Region { return &g.regions[id] }

// Location returns the location with the given id.
//
// Precondition: 0 <= id < NumLocations().
func (g *Graph) Location(id LocationID) *Location { return &g.locations[id] }

// Locations returns every location in id order. Callers must not modify
// the returned slice.
func (g *Graph) Locations() []Location { return g.locations }

// RegionByKey resolves a region key.
func (g *Graph) RegionByKey(key string) (RegionID, bool) {
	id, ok := g.regionKey[key]
	return id, ok
}

// LocationByKey resolves a location key.
func (g *Graph) LocationByKey(key string) (LocationID, bool) {
	id, ok := g.locKey[key]
	return id, ok
}

// Levels returns the level entrances in vanilla slot order.
func (g *Graph) Levels() []LevelInfo { return g.levels }

// LevelInfo returns the entrance description of level l.
func (g *Graph) LevelInfo(l item.Level) (LevelInfo, bool) {
	for _, li := range g.levels {
		if li.Level == l {
			return li, true
		}
	}
	return LevelInfo{}, false
}

// SlotKeys returns the 1-based slots whose keys open slot's lobby.
func (g *Graph) SlotKeys(slot int) []int { return g.slotKeys[slot] }

// BossLobbies returns every boss lobby region in level order.
func (g *Graph) BossLobbies() []RegionID {
	var out []RegionID
	for _, li := range g.levels {
		if li.BossLobby != NoRegion {
			out = append(out, li.BossLobby)
		}
	}
	return out
}

// BossLobbyFor resolves the boss lobby a portal placed in region r leads to.
// A region that is a level's lobby maps to that level; any other region maps
// through its level tag.
//
// Postcondition: ok is false when no level with a boss lobby matches.
func (g *Graph) BossLobbyFor(r RegionID) (RegionID, bool) {
	for _, li := range g.levels {
		if li.Lobby == r && li.BossLobby != NoRegion {
			return li.BossLobby, true
		}
	}
	li, ok := g.LevelInfo(g.regions[r].Level)
	if !ok || li.BossLobby == NoRegion {
		return NoRegion, false
	}
	return li.BossLobby, true
}

// AddTransition appends t to its source region.
//
// Precondition: t.From and t.To are valid region ids and t.Logic is non-nil.
func (g *Graph) AddTransition(t Transition) {
	r := &g.regions[t.From]
	r.Transitions = append(r.Transitions, t)
}

// Transitions returns every transition of kind k in region order.
func (g *Graph) Transitions(k TransitionKind) []Transition {
	var out []Transition
	for _, r := range g.regions {
		for _, t := range r.Transitions {
			if t.Kind == k {
				out = append(out, t)
			}
		}
	}
	return out
}

// Clone returns a copy whose transitions can be extended independently.
// Locations and lookup tables are shared read-only.
//
// Postcondition: Adding transitions to the clone does not affect g.
func (g *Graph) Clone() *Graph {
	c := *g
	c.regions = make([]Region, len(g.regions))
	for i, r := range g.regions {
		r.Transitions = slices.Clone(r.Transitions)
		c.regions[i] = r
	}
	return &c
}

// RegionSet is a set of regions backed by a bitmap.
type RegionSet struct {
	in []bool
	n  int
}

// NewRegionSet returns an empty set sized for g.
func NewRegionSet(g *Graph) RegionSet {
	return RegionSet{in: make([]bool, g.NumRegions())}
}

// Add inserts r and reports whether it was absent.
func (s *RegionSet) Add(r RegionID) bool {
	if s.in[r] {
		return false
	}
	s.in[r] = true
	s.n++
	return true
}

// Has reports membership.
func (s RegionSet) Has(r RegionID) bool {
	return int(r) >= 0 && int(r) < len(s.in) && s.in[r]
}

// Len returns the number of members.
func (s RegionSet) Len() int { return s.n }

// IDs returns the members in ascending order.
func (s RegionSet) IDs() []RegionID {
	out := make([]RegionID, 0, s.n)
	for i, ok := range s.in {
		if ok {
			out = append(out, RegionID(i))
		}
	}
	return out
}

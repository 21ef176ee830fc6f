package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cory-johannsen/dkrando/internal/game/entrance"
	"github.com/cory-johannsen/dkrando/internal/game/fill"
	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
	"github.com/cory-johannsen/dkrando/internal/game/pool"
	"github.com/cory-johannsen/dkrando/internal/game/settings"
	"github.com/cory-johannsen/dkrando/internal/game/world"
)

// hashLen is the number of hex digits kept from the content digest.
const hashLen = 10

// ItemPlacement is the content of one location in a finished seed.
type ItemPlacement struct {
	Location string `yaml:"location" json:"location"`
	Name     string `yaml:"name" json:"name"`
	Region   string `yaml:"region" json:"region"`
	Level    string `yaml:"level" json:"level"`
	Item     string `yaml:"item" json:"item"`
	// Tier is empty for constant placements.
	Tier string `yaml:"tier,omitempty" json:"tier,omitempty"`
}

// DoorPlacement is one assigned door.
type DoorPlacement struct {
	Level  string `yaml:"level" json:"level"`
	Door   string `yaml:"door" json:"door"`
	Placed string `yaml:"placed" json:"placed"`
	Kong   string `yaml:"kong,omitempty" json:"kong,omitempty"`
}

// TransitionRecord is one generated edge of the seed's graph.
type TransitionRecord struct {
	Kind  string `yaml:"kind" json:"kind"`
	Name  string `yaml:"name" json:"name"`
	From  string `yaml:"from" json:"from"`
	To    string `yaml:"to" json:"to"`
	Logic string `yaml:"logic" json:"logic"`
}

// Result is a finished seed.
type Result struct {
	Seed     uint64            `yaml:"seed" json:"seed"`
	Hash     string            `yaml:"hash" json:"hash"`
	Attempts int               `yaml:"attempts" json:"attempts"`
	Draws    int               `yaml:"draws" json:"draws"`
	Settings settings.Settings `yaml:"settings" json:"settings"`
	Starting []string          `yaml:"starting_items" json:"starting_items"`
	// Items lists every location in id order.
	Items       []ItemPlacement    `yaml:"items" json:"items"`
	LevelOrder  []string           `yaml:"level_order" json:"level_order"`
	KeyOrder    []string           `yaml:"key_order" json:"key_order"`
	Doors       []DoorPlacement    `yaml:"doors" json:"doors"`
	Transitions []TransitionRecord `yaml:"transitions" json:"transitions"`

	graph    *world.Graph
	contents *fill.Assignment
	starting item.List
}

func newResult(s settings.Settings, plan *pool.Plan, conn *connection, a *fill.Assignment) *Result {
	g := conn.graph
	r := &Result{
		Settings: s,
		Starting: plan.Starting.Strings(),
		graph:    g,
		contents: a,
		starting: plan.Starting.Clone(),
	}

	tiers := make(map[world.LocationID]string, len(a.Placements()))
	for _, p := range a.Placements() {
		tiers[p.Location] = p.Tier
	}
	for _, loc := range g.Locations() {
		k, ok := a.ItemAt(loc.ID)
		if !ok {
			continue
		}
		region := g.Region(loc.Region)
		r.Items = append(r.Items, ItemPlacement{
			Location: loc.Key,
			Name:     loc.Name,
			Region:   region.Key,
			Level:    region.Level.String(),
			Item:     k.String(),
			Tier:     tiers[loc.ID],
		})
	}

	for _, l := range conn.order {
		r.LevelOrder = append(r.LevelOrder, l.String())
	}
	for _, k := range entrance.KeyOrder(conn.order) {
		r.KeyOrder = append(r.KeyOrder, k.String())
	}
	for _, d := range conn.assignment {
		dp := DoorPlacement{Level: d.Level.String(), Door: d.Door, Placed: d.Placed.String()}
		if d.Placed == entrance.PlacedWrinkly {
			dp.Kong = d.Kong.String()
		}
		r.Doors = append(r.Doors, dp)
	}
	for _, kind := range []world.TransitionKind{world.LevelEntrance, world.Portal} {
		for _, t := range g.Transitions(kind) {
			r.Transitions = append(r.Transitions, TransitionRecord{
				Kind:  t.Kind.String(),
				Name:  t.Name,
				From:  g.Region(t.From).Key,
				To:    g.Region(t.To).Key,
				Logic: t.Logic.String(),
			})
		}
	}
	return r
}

// computeHash digests the seed's observable content: level order, doors
// and items.
func (r *Result) computeHash() string {
	h := sha256.New()
	for _, l := range r.LevelOrder {
		fmt.Fprintf(h, "L %s\n", l)
	}
	for _, d := range r.Doors {
		fmt.Fprintf(h, "D %s %s %s %s\n", d.Level, d.Door, d.Placed, d.Kong)
	}
	for _, it := range r.Items {
		fmt.Fprintf(h, "I %s %s\n", it.Location, it.Item)
	}
	return hex.EncodeToString(h.Sum(nil))[:hashLen]
}

// Graph returns the seed's rewired graph.
func (r *Result) Graph() *world.Graph { return r.graph }

// Contents returns the seed's location contents.
func (r *Result) Contents() world.Contents { return r.contents }

// StartState returns a fresh state holding the starting items.
func (r *Result) StartState() *logic.State {
	st := logic.NewState()
	st.AddAll(r.starting)
	return st
}

// Spheres returns the playthrough spheres of the seed. It is nil for a
// result that was not produced by Generate.
func (r *Result) Spheres() [][]ItemPlacement {
	if r.graph == nil {
		return nil
	}
	byKey := make(map[string]ItemPlacement, len(r.Items))
	for _, it := range r.Items {
		byKey[it.Location] = it
	}
	var out [][]ItemPlacement
	for _, sphere := range world.Spheres(r.graph, r.StartState(), r.contents) {
		ps := make([]ItemPlacement, 0, len(sphere))
		for _, id := range sphere {
			ps = append(ps, byKey[r.graph.Location(id).Key])
		}
		out = append(out, ps)
	}
	return out
}

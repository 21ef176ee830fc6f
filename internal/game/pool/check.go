package pool

import (
	"fmt"

	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
	"github.com/cory-johannsen/dkrando/internal/game/world"
)

// Fixed holds item contents by location, backed by dense slices.
type Fixed struct {
	items []item.Kind
	set   []bool
}

// NewFixed returns empty contents sized for g.
func NewFixed(g *world.Graph) *Fixed {
	return &Fixed{
		items: make([]item.Kind, g.NumLocations()),
		set:   make([]bool, g.NumLocations()),
	}
}

// Put records k at id.
func (f *Fixed) Put(id world.LocationID, k item.Kind) {
	f.items[id] = k
	f.set[id] = true
}

// ItemAt implements world.Contents.
func (f *Fixed) ItemAt(id world.LocationID) (item.Kind, bool) {
	return f.items[id], f.set[id]
}

// ConstantContents returns the constant placements as world.Contents.
func (p *Plan) ConstantContents(g *world.Graph) *Fixed {
	f := NewFixed(g)
	for _, c := range p.Constants {
		f.Put(c.Location, c.Item)
	}
	return f
}

// Check verifies on a baseline graph that the plan can be filled at all.
//
// Precondition: g has its level entrances and portals connected.
// Postcondition: Returns nil, or a *ConfigError naming the first violated
// constraint: completion reachable with every item owned; every logical
// tier fits the shuffle locations reachable with every item owned; the
// first tier has somewhere to place its first item.
func (p *Plan) Check(g *world.Graph) error {
	constants := p.ConstantContents(g)

	all := logic.NewState()
	all.AddAll(p.Starting)
	all.AddAll(p.AllItems())
	full := world.Sweep(g, all, constants)

	if !contains(full.Accessible, g.Completion()) {
		return &ConfigError{
			Constraint: "completion",
			Detail:     fmt.Sprintf("%s is unreachable with every item owned", g.Location(g.Completion()).Key),
		}
	}

	reachable := 0
	for _, id := range full.Accessible {
		if p.IsShuffle(id) {
			reachable++
		}
	}
	cumulative := 0
	for _, t := range p.Tiers {
		if t.Filler {
			continue
		}
		cumulative += len(t.Items)
		if cumulative > reachable {
			return &ConfigError{
				Constraint: "tier capacity",
				Detail: fmt.Sprintf("tier %s needs %d locations through its end but only %d are reachable",
					t.Name, cumulative, reachable),
			}
		}
	}

	if len(p.Tiers) == 0 || len(p.Tiers[0].Items) == 0 {
		return nil
	}
	first := logic.NewState()
	first.AddAll(p.Starting)
	first.AddAll(p.Tiers[0].Assumed)
	for _, id := range world.Sweep(g, first, constants).Accessible {
		if p.IsShuffle(id) {
			return nil
		}
	}
	return &ConfigError{
		Constraint: "first placement",
		Detail:     fmt.Sprintf("no shuffle location is reachable for the first %s item", p.Tiers[0].Name),
	}
}

func contains(ids []world.LocationID, id world.LocationID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

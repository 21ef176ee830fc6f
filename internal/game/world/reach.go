package world

import (
	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
)

// Contents reports the item placed at a location, if any.
type Contents interface {
	ItemAt(id LocationID) (item.Kind, bool)
}

// Exploration is the fixed point reached by Explore.
type Exploration struct {
	// Regions reachable from the start.
	Regions RegionSet
	// State is the working state after events and collected items.
	State *logic.State
	// Accessible lists the accessible locations in ascending id order.
	Accessible []LocationID
}

// Reachable returns every region reachable from the start under s.
//
// Postcondition: s is not modified. Events triggered in reached regions
// count toward traversal. Regions with no path are silently absent.
func Reachable(g *Graph, s *logic.State) RegionSet {
	return Explore(g, s, nil).Regions
}

// AccessibleLocations returns the locations of reachable regions whose own
// logic holds, in ascending id order.
//
// Postcondition: s is not modified.
func AccessibleLocations(g *Graph, s *logic.State) []LocationID {
	return Explore(g, s, nil).Accessible
}

// Sweep is Explore with items already placed at accessible locations
// collected into the working state until nothing new is found.
func Sweep(g *Graph, s *logic.State, contents Contents) *Exploration {
	return Explore(g, s, contents)
}

// Explore computes the reachability fixed point from the start region.
// When contents is non-nil, items at accessible locations are collected.
//
// Postcondition: s is not modified. The result is deterministic for a
// given graph, state and contents.
func Explore(g *Graph, s *logic.State, contents Contents) *Exploration {
	st := s.Clone()
	reached := NewRegionSet(g)
	collected := make([]bool, g.NumLocations())
	reached.Add(g.start)

	for {
		changed := expand(g, st, &reached)
		for _, rid := range reached.IDs() {
			r := g.Region(rid)
			for _, ev := range r.Events {
				if !st.HasEvent(ev.Name) && ev.Logic.Eval(st) {
					st.AddEvent(ev.Name)
					changed = true
				}
			}
			if contents == nil {
				continue
			}
			for _, lid := range r.Locations {
				if collected[lid] || !g.locations[lid].Logic.Eval(st) {
					continue
				}
				if k, ok := contents.ItemAt(lid); ok {
					collected[lid] = true
					st.Add(k)
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	return &Exploration{
		Regions:    reached,
		State:      st,
		Accessible: accessible(g, st, reached),
	}
}

// expand grows reached along every transition that holds under st.
func expand(g *Graph, st *logic.State, reached *RegionSet) bool {
	work := reached.IDs()
	grew := false
	for len(work) > 0 {
		rid := work[0]
		work = work[1:]
		for _, t := range g.regions[rid].Transitions {
			if reached.Has(t.To) || !t.Logic.Eval(st) {
				continue
			}
			reached.Add(t.To)
			work = append(work, t.To)
			grew = true
		}
	}
	return grew
}

func accessible(g *Graph, st *logic.State, reached RegionSet) []LocationID {
	var out []LocationID
	for i := range g.locations {
		loc := &g.locations[i]
		if reached.Has(loc.Region) && loc.Logic.Eval(st) {
			out = append(out, loc.ID)
		}
	}
	return out
}

// Spheres partitions the filled locations into playthrough spheres: sphere
// k holds the locations that become accessible once every item of spheres
// 0..k-1 is collected.
//
// Postcondition: Locations never accessible are not listed.
func Spheres(g *Graph, start *logic.State, contents Contents) [][]LocationID {
	st := start.Clone()
	seen := make([]bool, g.NumLocations())
	var spheres [][]LocationID
	for {
		var sphere []LocationID
		for _, lid := range Explore(g, st, nil).Accessible {
			if seen[lid] {
				continue
			}
			if _, ok := contents.ItemAt(lid); !ok {
				continue
			}
			seen[lid] = true
			sphere = append(sphere, lid)
		}
		if len(sphere) == 0 {
			return spheres
		}
		for _, lid := range sphere {
			k, _ := contents.ItemAt(lid)
			st.Add(k)
		}
		spheres = append(spheres, sphere)
	}
}

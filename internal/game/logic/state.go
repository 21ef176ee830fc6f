// Package logic holds the ability/event state explored during generation
// and the monotone predicate language evaluated against it.
package logic

import (
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/cory-johannsen/dkrando/internal/game/item"
)

// State is the set of owned items (with counts) and triggered events.
//
// Invariant: a State only grows; no method removes an item or an event.
type State struct {
	counts  []int
	granted []int
	events  mapset.Set[string]
}

// NewState returns an empty state.
//
// Postcondition: Count(k) == 0 for every k and no event is triggered.
func NewState() *State {
	return &State{
		counts:  make([]int, item.NumKinds),
		granted: make([]int, item.NumKinds),
		events:  mapset.New[string](),
	}
}

// StateOf returns a state owning every item in items.
func StateOf(items ...item.Kind) *State {
	s := NewState()
	s.AddAll(items)
	return s
}

// Add records one more copy of k, applying any ability the copy grants.
//
// Precondition: k.Valid().
// Postcondition: Count(k) increases by one; NoItem is ignored.
func (s *State) Add(k item.Kind) {
	if k == item.NoItem {
		return
	}
	s.counts[k]++
	if g, ok := k.Grants(s.counts[k]); ok {
		s.granted[g]++
	}
}

// AddAll records every item of items.
func (s *State) AddAll(items item.List) {
	for _, k := range items {
		s.Add(k)
	}
}

// Count returns how many copies of k are owned, including grants.
func (s *State) Count(k item.Kind) int {
	return s.counts[k] + s.granted[k]
}

// Has reports whether at least one copy of k is owned.
func (s *State) Has(k item.Kind) bool {
	return s.Count(k) > 0
}

// HasKong reports whether kong k is unlocked.
func (s *State) HasKong(k item.Kong) bool {
	return s.Has(k.Item())
}

// Kongs returns the unlocked roster in roster order.
func (s *State) Kongs() []item.Kong {
	var out []item.Kong
	for _, k := range item.Kongs {
		if s.HasKong(k) {
			out = append(out, k)
		}
	}
	return out
}

// AddEvent triggers event e.
//
// Postcondition: Returns true when e was not already triggered.
func (s *State) AddEvent(e string) bool {
	if s.events.Has(e) {
		return false
	}
	s.events.Put(e)
	return true
}

// HasEvent reports whether e has been triggered.
func (s *State) HasEvent(e string) bool {
	return s.events.Has(e)
}

// Events returns the triggered events sorted by name.
func (s *State) Events() []string {
	out := make([]string, 0, s.events.Size())
	s.events.Each(func(e string) {
		out = append(out, e)
	})
	slices.Sort(out)
	return out
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	c := &State{
		counts:  slices.Clone(s.counts),
		granted: slices.Clone(s.granted),
		events:  mapset.New[string](),
	}
	s.events.Each(func(e string) {
		c.events.Put(e)
	})
	return c
}

// Merge adds every item count and event of o into s.
//
// Postcondition: s covers o.
func (s *State) Merge(o *State) {
	for k, n := range o.counts {
		for range n {
			s.Add(item.Kind(k))
		}
	}
	o.events.Each(func(e string) {
		s.events.Put(e)
	})
}

// Covers reports whether s owns at least everything o owns.
func (s *State) Covers(o *State) bool {
	for k := range o.counts {
		if s.Count(item.Kind(k)) < o.Count(item.Kind(k)) {
			return false
		}
	}
	covered := true
	o.events.Each(func(e string) {
		if !s.events.Has(e) {
			covered = false
		}
	})
	return covered
}

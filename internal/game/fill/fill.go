// Package fill places the pool's items into shuffle locations tier by
// tier, assuming later tiers owned, so that every placement stays
// reachable in the finished seed.
package fill

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
	"github.com/cory-johannsen/dkrando/internal/game/pool"
	"github.com/cory-johannsen/dkrando/internal/game/world"
	"github.com/cory-johannsen/dkrando/internal/rng"
)

// Status is the result of one fill attempt.
type Status int

// Fill statuses.
const (
	Success Status = iota
	Exhausted
)

func (s Status) String() string {
	if s == Exhausted {
		return "exhausted"
	}
	return "success"
}

// Outcome describes how an attempt ended.
type Outcome struct {
	Status Status
	// Tier is the tier being placed when the fill exhausted.
	Tier string
	// Remaining counts the unplaced items of Tier.
	Remaining int
	// Placed counts every placement made, across tiers.
	Placed int
}

// Placement is one item put at one location.
type Placement struct {
	Location world.LocationID
	Item     item.Kind
	Tier     string
}

// Observer receives fill progress. Implementations must not retain the
// engine's state.
type Observer interface {
	TierStarted(tier string, items int)
	Placed(p Placement)
}

// Assignment is the content of every location during and after a fill.
//
// Invariant: a location is written at most once.
type Assignment struct {
	items  []item.Kind
	set    []bool
	placed []Placement
}

// NewAssignment returns an assignment holding plan's constants.
func NewAssignment(g *world.Graph, plan *pool.Plan) *Assignment {
	a := &Assignment{
		items: make([]item.Kind, g.NumLocations()),
		set:   make([]bool, g.NumLocations()),
	}
	for _, c := range plan.Constants {
		a.items[c.Location] = c.Item
		a.set[c.Location] = true
	}
	return a
}

// ItemAt implements world.Contents.
func (a *Assignment) ItemAt(id world.LocationID) (item.Kind, bool) {
	return a.items[id], a.set[id]
}

// Filled reports whether id holds an item.
func (a *Assignment) Filled(id world.LocationID) bool {
	return a.set[id]
}

// Placements returns the shuffle placements in the order they were made.
func (a *Assignment) Placements() []Placement {
	return a.placed
}

func (a *Assignment) place(p Placement) {
	if a.set[p.Location] {
		panic(fmt.Sprintf("fill: location %d written twice", p.Location))
	}
	a.items[p.Location] = p.Item
	a.set[p.Location] = true
	a.placed = append(a.placed, p)
}

// Engine runs assumed fills.
type Engine struct {
	src      rng.Source
	logger   *zap.Logger
	observer Observer
}

// NewEngine returns an engine drawing from src.
//
// Precondition: src must be non-nil. logger and observer may be nil.
func NewEngine(src rng.Source, logger *zap.Logger, observer Observer) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{src: src, logger: logger, observer: observer}
}

// Run fills every shuffle location of plan on g.
//
// Precondition: g has its level entrances and portals connected.
// Postcondition: On Success every shuffle location holds exactly one item
// and the assignment holds every constant. On Exhausted the assignment is
// partial and must be discarded.
func (e *Engine) Run(g *world.Graph, plan *pool.Plan) (Outcome, *Assignment) {
	a := NewAssignment(g, plan)
	shuffle := make([]bool, g.NumLocations())
	for _, id := range plan.Shuffle {
		shuffle[id] = true
	}
	out := Outcome{Status: Success}

	for _, tier := range plan.Tiers {
		items := tier.Items.Clone()
		rng.Shuffle(e.src, items)
		if e.observer != nil {
			e.observer.TierStarted(tier.Name, len(items))
		}

		for len(items) > 0 {
			// Drawing from the end keeps the remaining multiset intact.
			k := items[len(items)-1]
			items = items[:len(items)-1]

			candidates := e.candidates(g, plan, tier, a, shuffle)
			if len(candidates) == 0 {
				out.Status = Exhausted
				out.Tier = tier.Name
				out.Remaining = len(items) + 1
				e.logger.Debug("fill exhausted",
					zap.String("tier", tier.Name),
					zap.String("item", k.String()),
					zap.Int("remaining", out.Remaining),
				)
				return out, a
			}
			p := Placement{Location: rng.Pick(e.src, candidates), Item: k, Tier: tier.Name}
			a.place(p)
			out.Placed++
			if e.observer != nil {
				e.observer.Placed(p)
			}
		}
	}
	return out, a
}

// candidates returns the empty shuffle locations the next item may take.
// The state owns the starting items and the tier's assumed set; items of
// this and earlier tiers count only once placed and swept.
func (e *Engine) candidates(g *world.Graph, plan *pool.Plan, tier pool.Tier, a *Assignment, shuffle []bool) []world.LocationID {
	var out []world.LocationID
	if tier.Filler {
		for _, id := range plan.Shuffle {
			if !a.Filled(id) {
				out = append(out, id)
			}
		}
		return out
	}

	st := logic.NewState()
	st.AddAll(plan.Starting)
	st.AddAll(tier.Assumed)
	for _, id := range world.Sweep(g, st, a).Accessible {
		if shuffle[id] && !a.Filled(id) {
			out = append(out, id)
		}
	}
	return out
}

// ErrUnverified reports a filled seed that fails its final check.
var ErrUnverified = errors.New("fill: seed failed verification")

// Verify sweeps the finished assignment from the start without assumed
// items. The completion location must be accessible; when all is set
// every location must be.
//
// Postcondition: Returns nil, or an error wrapping ErrUnverified that names
// the first unreachable location.
func Verify(g *world.Graph, plan *pool.Plan, a *Assignment, all bool) error {
	st := logic.NewState()
	st.AddAll(plan.Starting)
	ex := world.Sweep(g, st, a)

	accessible := make([]bool, g.NumLocations())
	for _, id := range ex.Accessible {
		accessible[id] = true
	}
	if !accessible[g.Completion()] {
		return fmt.Errorf("%w: completion %s unreachable", ErrUnverified, g.Location(g.Completion()).Key)
	}
	if !all {
		return nil
	}
	for id, ok := range accessible {
		if !ok {
			return fmt.Errorf("%w: location %s unreachable", ErrUnverified, g.Location(world.LocationID(id)).Key)
		}
	}
	return nil
}

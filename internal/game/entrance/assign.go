package entrance

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/world"
	"github.com/cory-johannsen/dkrando/internal/rng"
)

// ErrNoCandidate reports a level without a legal door for a placement.
var ErrNoCandidate = errors.New("entrance: no eligible door")

// Options control door assignment.
type Options struct {
	// Shuffle picks doors at random; otherwise vanilla placements are kept.
	Shuffle bool
	// PortalsPerLevel is the number of portals per level; 0 keeps the
	// level's vanilla count.
	PortalsPerLevel int
	// MovelessFirstPortal forces each level's first portal onto a moveless door.
	MovelessFirstPortal bool
}

// Assignment is one placed door, reported to the patch writer.
type Assignment struct {
	Level  item.Level
	Door   string
	Placed Placement
	// Kong is meaningful for wrinkly doors only.
	Kong item.Kong
}

// Assigner places portals and wrinkly doors.
type Assigner struct {
	src    rng.Source
	opts   Options
	logger *zap.Logger
}

// NewAssigner returns an assigner drawing from src.
//
// Precondition: src must be non-nil; logger may be nil.
func NewAssigner(src rng.Source, opts Options, logger *zap.Logger) *Assigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assigner{src: src, opts: opts, logger: logger}
}

// Assign writes placements into t and adds one portal transition per T&S
// door to g. levels gives the order levels are processed in.
//
// Precondition: t is bound to g and owned by the caller's attempt.
// Postcondition: In every level at most one door per group hosts a
// portal, every placed door's type allows its placement and each wrinkly
// door admits its kong. Returns ErrNoCandidate when a level cannot be
// completed.
func (a *Assigner) Assign(g *world.Graph, t *Table, levels []item.Level) ([]Assignment, error) {
	var out []Assignment
	for _, l := range levels {
		doors := t.Doors(l)
		if len(doors) == 0 {
			continue
		}
		var (
			placed []Assignment
			err    error
		)
		if a.opts.Shuffle {
			placed, err = a.shuffled(g, l, doors)
		} else {
			placed, err = a.vanilla(g, l, doors)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, placed...)
	}
	return out, nil
}

func (a *Assigner) shuffled(g *world.Graph, l item.Level, doors []Door) ([]Assignment, error) {
	var out []Assignment
	want := a.opts.PortalsPerLevel
	if want == 0 {
		for _, d := range doors {
			if d.Vanilla == PlacedTns {
				want++
			}
		}
	}

	order := make([]int, len(doors))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(a.src, order)

	groups := mapset.New[int]()
	pick := func(moveless bool) bool {
		for _, i := range order {
			d := &doors[i]
			if d.Placed != PlacedNone || !d.Type.CanHost(PlacedTns) || groups.Has(d.Group) {
				continue
			}
			if moveless && !d.Moveless {
				continue
			}
			groups.Put(d.Group)
			d.Placed = PlacedTns
			return true
		}
		return false
	}

	for n := 0; n < want; n++ {
		if !pick(n == 0 && a.opts.MovelessFirstPortal) {
			return nil, fmt.Errorf("%w: level %s has no door for portal %d of %d", ErrNoCandidate, l, n+1, want)
		}
	}
	for _, i := range order {
		if doors[i].Placed != PlacedTns {
			continue
		}
		if err := assignPortal(g, &doors[i]); err != nil {
			return nil, err
		}
		out = append(out, Assignment{Level: l, Door: doors[i].Name, Placed: PlacedTns})
	}

	for _, k := range item.Kongs {
		var candidates []int
		for _, i := range order {
			d := &doors[i]
			if d.Placed == PlacedNone && d.Type.CanHost(PlacedWrinkly) && d.AllowsKong(k) {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: level %s has no wrinkly door for %s", ErrNoCandidate, l, k)
		}
		d := &doors[rng.Pick(a.src, candidates)]
		d.Placed = PlacedWrinkly
		d.AssignedKong = k
		out = append(out, Assignment{Level: l, Door: d.Name, Placed: PlacedWrinkly, Kong: k})
	}
	return out, nil
}

// vanilla reproduces the unmodified placements. Wrinkly doors take kongs
// in record order. A vanilla portal whose group already holds one is left
// unplaced.
func (a *Assigner) vanilla(g *world.Graph, l item.Level, doors []Door) ([]Assignment, error) {
	var out []Assignment
	groups := mapset.New[int]()
	for i := range doors {
		d := &doors[i]
		if d.Vanilla != PlacedTns {
			continue
		}
		if groups.Has(d.Group) {
			a.logger.Debug("vanilla portal skipped for group exclusivity",
				zap.String("level", l.String()),
				zap.String("door", d.Name),
				zap.Int("group", d.Group),
			)
			continue
		}
		groups.Put(d.Group)
		d.Placed = PlacedTns
		if err := assignPortal(g, d); err != nil {
			return nil, err
		}
		out = append(out, Assignment{Level: l, Door: d.Name, Placed: PlacedTns})
	}

	next := 0
	for i := range doors {
		d := &doors[i]
		if d.Vanilla != PlacedWrinkly || next >= len(item.Kongs) {
			continue
		}
		d.Placed = PlacedWrinkly
		d.AssignedKong = item.Kongs[next]
		next++
		out = append(out, Assignment{Level: l, Door: d.Name, Placed: PlacedWrinkly, Kong: d.AssignedKong})
	}
	return out, nil
}

// assignPortal adds the edge from the door's region to its level's boss
// lobby, guarded by the door's own logic.
func assignPortal(g *world.Graph, d *Door) error {
	lobby, ok := g.BossLobbyFor(d.Region)
	if !ok {
		return fmt.Errorf("%w: door %q has no boss lobby", ErrNoCandidate, d.Name)
	}
	g.AddTransition(world.Transition{
		From:      d.Region,
		To:        lobby,
		Logic:     d.Logic,
		Direction: world.Front,
		Kind:      world.Portal,
		Name:      d.Name,
	})
	return nil
}

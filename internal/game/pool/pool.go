// Package pool builds the item pool for one seed: the constant placements,
// the shuffle locations and the ordered priority tiers with the items each
// tier may assume owned while it is placed.
package pool

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/settings"
	"github.com/cory-johannsen/dkrando/internal/game/world"
)

// Tier is one priority tier of the fill.
type Tier struct {
	Name  string
	Items item.List
	// Assumed holds the items of every later tier.
	Assumed item.List
	// Filler tiers place without a reachability check.
	Filler bool
}

// Constant is a fixed placement applied before any search.
type Constant struct {
	Location world.LocationID
	Item     item.Kind
}

// Plan is the resolved pool.
//
// Invariant: the Items of all tiers together number exactly len(Shuffle).
type Plan struct {
	Constants []Constant
	// Shuffle lists the locations the fill must populate, in id order.
	Shuffle []world.LocationID
	Tiers   []Tier
	// Starting items are owned from the beginning of every exploration.
	Starting item.List
}

// ConfigError reports settings and content that can never produce a seed.
// It is not retried.
type ConfigError struct {
	Constraint string
	Detail     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Constraint, e.Detail)
}

// Build resolves the pool for g under s. extra is appended to the
// starting items.
//
// Precondition: s.Validate() returned nil.
// Postcondition: Returns a plan satisfying the Plan invariant, or a
// *ConfigError when the logical items cannot fit the shuffle locations.
func Build(g *world.Graph, s settings.Settings, extra item.List, logger *zap.Logger) (*Plan, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Plan{}

	for _, loc := range g.Locations() {
		if k, ok := constantAt(g, loc, s); ok {
			p.Constants = append(p.Constants, Constant{Location: loc.ID, Item: k})
			continue
		}
		p.Shuffle = append(p.Shuffle, loc.ID)
	}

	starting, err := startingItems(s, extra)
	if err != nil {
		return nil, &ConfigError{Constraint: "starting items", Detail: err.Error()}
	}
	p.Starting = starting

	byName := map[string]Tier{
		settings.TierHigh:      {Name: settings.TierHigh, Items: HighPriorityItems(s)},
		settings.TierBlueprint: {Name: settings.TierBlueprint, Items: Blueprints()},
		settings.TierLow:       {Name: settings.TierLow, Items: LowPriorityItems()},
	}
	logical := len(byName[settings.TierHigh].Items) +
		len(byName[settings.TierBlueprint].Items) +
		len(byName[settings.TierLow].Items)
	if logical > len(p.Shuffle) {
		return nil, &ConfigError{
			Constraint: "item count",
			Detail:     fmt.Sprintf("%d logical items exceed %d shuffle locations", logical, len(p.Shuffle)),
		}
	}
	byName[settings.TierExcess] = Tier{
		Name:   settings.TierExcess,
		Items:  fitExcess(ExcessItems(), len(p.Shuffle)-logical),
		Filler: true,
	}

	for _, name := range s.TierOrder {
		p.Tiers = append(p.Tiers, byName[name])
	}
	for i := range p.Tiers {
		var later []item.List
		for _, t := range p.Tiers[i+1:] {
			later = append(later, t.Items)
		}
		p.Tiers[i].Assumed = item.Concat(later...)
	}

	fields := []zap.Field{
		zap.Int("constants", len(p.Constants)),
		zap.Int("shuffle", len(p.Shuffle)),
		zap.Int("starting", len(p.Starting)),
	}
	for _, t := range p.Tiers {
		fields = append(fields, zap.Int("tier_"+t.Name, len(t.Items)))
	}
	logger.Debug("item pool built", fields...)
	return p, nil
}

// constantAt returns the fixed content of loc under s, if any.
func constantAt(g *world.Graph, loc world.Location, s settings.Settings) (item.Kind, bool) {
	switch {
	case loc.ID == g.Completion():
		return item.BananaHoard, true
	case loc.Kind == world.KindKey:
		return loc.Vanilla, true
	case loc.Kind == world.KindTraining && s.TrainingBarrels == settings.TrainingNormal:
		return loc.Vanilla, true
	case loc.Kind == world.KindTraining && s.TrainingBarrels == settings.TrainingStartWith:
		return item.NoItem, true
	case loc.Kind == world.KindKong && s.StartWithKongs:
		return item.NoItem, true
	case loc.Kind == world.KindCranky && s.StartWithCrankyMoves:
		return item.NoItem, true
	}
	return item.NoItem, false
}

func startingItems(s settings.Settings, extra item.List) (item.List, error) {
	configured, err := s.ExtraStartingItems()
	if err != nil {
		return nil, err
	}
	var out item.List
	if s.StartWithKongs {
		out = append(out, Kongs()...)
	} else {
		out = append(out, s.Kong().Item())
	}
	if s.TrainingBarrels == settings.TrainingStartWith {
		out = append(out, TrainingBarrelAbilities()...)
	}
	if s.StartWithCrankyMoves {
		out = append(out, item.Repeat(item.ProgressiveSlam, 3)...)
		out = append(out, Moves()...)
	}
	out = append(out, configured...)
	out = append(out, extra...)
	return out, nil
}

// fitExcess truncates or pads filler to exactly n items.
func fitExcess(filler item.List, n int) item.List {
	if len(filler) >= n {
		return filler[:n].Clone()
	}
	return item.Concat(filler, item.Repeat(item.NoItem, n-len(filler)))
}

// Tier returns the tier with the given name.
func (p *Plan) Tier(name string) (Tier, bool) {
	for _, t := range p.Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return Tier{}, false
}

// AllItems returns every shuffled item in tier order.
func (p *Plan) AllItems() item.List {
	lists := make([]item.List, len(p.Tiers))
	for i, t := range p.Tiers {
		lists[i] = t.Items
	}
	return item.Concat(lists...)
}

// IsShuffle reports whether id is a shuffle location.
func (p *Plan) IsShuffle(id world.LocationID) bool {
	for _, s := range p.Shuffle {
		if s == id {
			return true
		}
	}
	return false
}

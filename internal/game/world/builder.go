package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
)

// TransitionFilter decides whether a static transition exists. It is
// consulted once per authored transition at build time.
type TransitionFilter func(from, to string) bool

// BuildOptions carries the settings-dependent inputs of Build.
type BuildOptions struct {
	// Params resolves $name counts in logic.
	Params map[string]int
	// Flags gates transitions marked when/unless.
	Flags map[string]bool
	// Filter, when set, may drop static transitions.
	Filter TransitionFilter
	Logger *zap.Logger
}

// Build resolves content into a Graph.
//
// Precondition: c was produced by LoadContent.
// Postcondition: Returns a graph whose every transition target, location
// region and level reference resolves, or the first violation found.
func Build(c *Content, opts BuildOptions) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := logic.NewParser(c.Macros, opts.Params)

	g := &Graph{
		regions:    make([]Region, 0, len(c.Regions)),
		regionKey:  make(map[string]RegionID, len(c.Regions)),
		locKey:     make(map[string]LocationID),
		slotKeys:   c.SlotKeys,
		start:      NoRegion,
		hub:        NoRegion,
		krool:      NoRegion,
		completion: -1,
	}

	for _, rs := range c.Regions {
		if rs.Key == "" {
			return nil, fmt.Errorf("region ID must not be empty")
		}
		if _, dup := g.regionKey[rs.Key]; dup {
			return nil, fmt.Errorf("duplicate region %q", rs.Key)
		}
		level, err := item.ParseLevel(rs.Level)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", rs.Key, err)
		}
		id := RegionID(len(g.regions))
		g.regionKey[rs.Key] = id
		g.regions = append(g.regions, Region{ID: id, Key: rs.Key, Name: rs.Name, Level: level})
	}

	var dropped int
	for i, rs := range c.Regions {
		from := RegionID(i)
		for _, ts := range rs.Transitions {
			to, ok := g.regionKey[ts.To]
			if !ok {
				return nil, fmt.Errorf("region %q: transition targets unknown region %q", rs.Key, ts.To)
			}
			if !flagsAllow(opts.Flags, ts.When, ts.Unless) {
				dropped++
				continue
			}
			if opts.Filter != nil && !opts.Filter(rs.Key, ts.To) {
				logger.Debug("transition disabled by hook",
					zap.String("from", rs.Key), zap.String("to", ts.To))
				dropped++
				continue
			}
			expr, err := p.Parse(ts.Logic)
			if err != nil {
				return nil, fmt.Errorf("region %q: transition to %q: %w", rs.Key, ts.To, err)
			}
			g.AddTransition(Transition{From: from, To: to, Logic: expr, Direction: Front})
			if ts.Back {
				g.AddTransition(Transition{From: to, To: from, Logic: expr, Direction: Back})
			}
		}
		for _, es := range rs.Events {
			if es.Name == "" {
				return nil, fmt.Errorf("region %q: event name must not be empty", rs.Key)
			}
			expr, err := p.Parse(es.Logic)
			if err != nil {
				return nil, fmt.Errorf("region %q: event %q: %w", rs.Key, es.Name, err)
			}
			g.regions[from].Events = append(g.regions[from].Events, EventTrigger{Name: es.Name, Logic: expr})
		}
		for _, ls := range rs.Locations {
			if err := g.addLocation(p, from, ls); err != nil {
				return nil, fmt.Errorf("region %q: %w", rs.Key, err)
			}
		}
	}

	if err := g.resolveAnchors(c); err != nil {
		return nil, err
	}
	if err := g.resolveLevels(p, c.Levels); err != nil {
		return nil, err
	}

	logger.Debug("world graph built",
		zap.Int("regions", len(g.regions)),
		zap.Int("locations", len(g.locations)),
		zap.Int("transitions_dropped", dropped),
	)
	return g, nil
}

func flagsAllow(flags map[string]bool, when, unless string) bool {
	if when != "" && !flags[when] {
		return false
	}
	if unless != "" && flags[unless] {
		return false
	}
	return true
}

func (g *Graph) addLocation(p *logic.Parser, region RegionID, ls LocationSpec) error {
	if ls.Key == "" {
		return fmt.Errorf("location ID must not be empty")
	}
	if _, dup := g.locKey[ls.Key]; dup {
		return fmt.Errorf("duplicate location %q", ls.Key)
	}
	kind, err := ParseLocationKind(ls.Kind)
	if err != nil {
		return fmt.Errorf("location %q: %w", ls.Key, err)
	}
	expr, err := p.Parse(ls.Logic)
	if err != nil {
		return fmt.Errorf("location %q: %w", ls.Key, err)
	}
	vanilla := item.NoItem
	if ls.Vanilla != "" {
		if vanilla, err = item.Parse(ls.Vanilla); err != nil {
			return fmt.Errorf("location %q: vanilla: %w", ls.Key, err)
		}
	}
	id := LocationID(len(g.locations))
	g.locKey[ls.Key] = id
	g.locations = append(g.locations, Location{
		ID:      id,
		Key:     ls.Key,
		Name:    ls.Name,
		Region:  region,
		Kind:    kind,
		Logic:   expr,
		Vanilla: vanilla,
	})
	g.regions[region].Locations = append(g.regions[region].Locations, id)
	return nil
}

func (g *Graph) resolveAnchors(c *Content) error {
	anchors := []struct {
		name string
		key  string
		dst  *RegionID
	}{
		{"start", c.Start, &g.start},
		{"hub", c.Hub, &g.hub},
		{"krool", c.KRool, &g.krool},
	}
	for _, a := range anchors {
		id, ok := g.regionKey[a.key]
		if !ok {
			return fmt.Errorf("%s region %q not found", a.name, a.key)
		}
		*a.dst = id
	}
	id, ok := g.locKey[c.Completion]
	if !ok {
		return fmt.Errorf("completion location %q not found", c.Completion)
	}
	g.completion = id
	return nil
}

func (g *Graph) resolveLevels(p *logic.Parser, specs []LevelSpec) error {
	for _, ls := range specs {
		level, err := item.ParseLevel(ls.Level)
		if err != nil {
			return fmt.Errorf("levels: %w", err)
		}
		if _, dup := g.LevelInfo(level); dup {
			return fmt.Errorf("levels: duplicate level %s", level)
		}
		li := LevelInfo{Level: level, BossLobby: NoRegion, Fixed: ls.Fixed}
		var ok bool
		if li.Lobby, ok = g.regionKey[ls.Lobby]; !ok {
			return fmt.Errorf("level %s: lobby %q not found", level, ls.Lobby)
		}
		if li.Entry, ok = g.regionKey[ls.Entry]; !ok {
			return fmt.Errorf("level %s: entry %q not found", level, ls.Entry)
		}
		if ls.BossLobby != "" {
			if li.BossLobby, ok = g.regionKey[ls.BossLobby]; !ok {
				return fmt.Errorf("level %s: boss lobby %q not found", level, ls.BossLobby)
			}
		}
		if li.EntryLogic, err = p.Parse(ls.EntryLogic); err != nil {
			return fmt.Errorf("level %s: entry logic: %w", level, err)
		}
		g.levels = append(g.levels, li)
	}
	if n := len(g.slotKeys); n > 0 {
		known := 0
		for slot := 1; slot <= len(g.levels); slot++ {
			if _, ok := g.slotKeys[slot]; ok {
				known++
			}
		}
		if known != n {
			return fmt.Errorf("slot_keys: slots must lie in 1..%d", len(g.levels))
		}
	}
	for slot := 1; slot <= len(g.levels); slot++ {
		for _, s := range g.slotKeys[slot] {
			if s < 1 || s >= slot {
				return fmt.Errorf("slot_keys: slot %d requires key of slot %d, which is not earlier", slot, s)
			}
		}
	}
	return nil
}

// Package generator runs the seed pipeline: it resolves the template graph
// and item pool once, then for each seed connects level entrances, assigns
// doors, fills the item tiers and verifies the result, retrying failed
// attempts up to a fixed bound.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/internal/game/entrance"
	"github.com/cory-johannsen/dkrando/internal/game/fill"
	"github.com/cory-johannsen/dkrando/internal/game/item"
	"github.com/cory-johannsen/dkrando/internal/game/logic"
	"github.com/cory-johannsen/dkrando/internal/game/pool"
	"github.com/cory-johannsen/dkrando/internal/game/settings"
	"github.com/cory-johannsen/dkrando/internal/game/world"
	"github.com/cory-johannsen/dkrando/internal/observability"
	"github.com/cory-johannsen/dkrando/internal/rng"
	"github.com/cory-johannsen/dkrando/internal/scripting"
)

// Default attempt bounds.
const (
	DefaultMaxAttempts         = 20
	DefaultMaxEntranceAttempts = 10
)

// Options configure a Generator.
type Options struct {
	Settings settings.Settings
	// MaxAttempts bounds whole-pipeline attempts per seed; 0 uses the default.
	MaxAttempts int
	// MaxEntranceAttempts bounds door reassignment per attempt; 0 uses the default.
	MaxEntranceAttempts int
	// Hooks, when set, filter transitions and add starting items.
	Hooks   *scripting.Manager
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Generator produces seeds for one settings value. It is safe for
// concurrent use; every attempt works on its own clones.
type Generator struct {
	opts     Options
	template *world.Graph
	doors    *entrance.Table
	plan     *pool.Plan
	gates    entrance.LevelGates
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// New resolves c under opts.Settings into a reusable generator.
//
// Postcondition: Returns a generator, or an error wrapping ErrConfiguration
// (and a *pool.ConfigError) when the settings and content can never
// produce a seed.
func New(c *Content, opts Options) (*Generator, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.MaxEntranceAttempts <= 0 {
		opts.MaxEntranceAttempts = DefaultMaxEntranceAttempts
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NopMetrics()
	}
	s := opts.Settings
	logger := opts.Logger

	if err := s.Validate(); err != nil {
		return nil, configError("settings", err)
	}

	flags := s.Flags()
	bo := world.BuildOptions{Params: s.Params(), Flags: flags, Logger: logger}
	var extra item.List
	if opts.Hooks != nil {
		bo.Filter = func(from, to string) bool {
			return opts.Hooks.TransitionEnabled(from, to, flags)
		}
		names, err := opts.Hooks.StartingItems(flags)
		if err != nil {
			return nil, configError("starting items hook", err)
		}
		if extra, err = item.ParseList(names); err != nil {
			return nil, configError("starting items hook", err)
		}
	}

	template, err := world.Build(c.World, bo)
	if err != nil {
		return nil, configError("world", err)
	}
	doors := c.Doors.Clone()
	if err := doors.Bind(template, logic.NewParser(c.World.Macros, s.Params())); err != nil {
		return nil, configError("doors", err)
	}
	plan, err := pool.Build(template, s, extra, logger)
	if err != nil {
		return nil, configError("pool", err)
	}

	g := &Generator{
		opts:     opts,
		template: template,
		doors:    doors,
		plan:     plan,
		gates:    gatesFor(s),
		logger:   logger,
		metrics:  opts.Metrics,
	}
	if err := g.checkBaseline(); err != nil {
		return nil, err
	}
	logger.Info("generator ready",
		zap.Int("regions", template.NumRegions()),
		zap.Int("locations", template.NumLocations()),
		zap.Int("doors", doors.Len()),
		zap.Int("shuffle", len(plan.Shuffle)),
		zap.Int("constants", len(plan.Constants)),
	)
	return g, nil
}

// configError wraps err so that both ErrConfiguration and *pool.ConfigError
// match it.
func configError(constraint string, err error) error {
	var ce *pool.ConfigError
	if !errors.As(err, &ce) {
		ce = &pool.ConfigError{Constraint: constraint, Detail: err.Error()}
	}
	return fmt.Errorf("%w: %w", ErrConfiguration, ce)
}

func gatesFor(s settings.Settings) entrance.LevelGates {
	return entrance.LevelGates{
		OpenLobbies: s.OpenLobbies,
		OpenLevels:  s.OpenLevels,
		EntryGBs:    s.EntryGBs,
		KRoolKeys:   s.KRoolKeys,
	}
}

// checkBaseline runs the pool's feasibility checks on the vanilla level
// order with vanilla portals.
func (g *Generator) checkBaseline() error {
	b := g.template.Clone()
	order := entrance.VanillaOrder(b)
	if err := entrance.ConnectLevels(b, order, g.gates); err != nil {
		return configError("levels", err)
	}
	vanilla := entrance.NewAssigner(rng.NewSeeded(0), entrance.Options{}, g.logger)
	if _, err := vanilla.Assign(b, g.doors.Clone(), order); err != nil {
		return configError("vanilla doors", err)
	}
	if err := g.plan.Check(b); err != nil {
		return configError("pool", err)
	}
	return nil
}

// Plan returns the resolved item pool.
func (g *Generator) Plan() *pool.Plan { return g.plan }

// Settings returns the settings the generator was built for.
func (g *Generator) Settings() settings.Settings { return g.opts.Settings }

// Generate produces the seed for seed.
//
// Postcondition: Identical settings and seed yield identical results.
// Returns a *GenerationError wrapping ErrExhausted when every attempt
// failed, an error wrapping ErrConfiguration at once when an attempt hits
// a configuration error, or ctx.Err() when ctx ends between attempts.
func (g *Generator) Generate(ctx context.Context, seed uint64) (*Result, error) {
	return g.generate(ctx, seed, g.attempt)
}

// attemptFunc runs the pipeline once.
type attemptFunc func(ctx context.Context, src rng.Source, logger *zap.Logger) (*Result, error)

func (g *Generator) generate(ctx context.Context, seed uint64, try attemptFunc) (*Result, error) {
	start := time.Now()
	logger := g.logger.With(zap.Uint64("seed", seed))
	src := rng.NewLogged(rng.NewSeeded(seed), logger)

	var last error
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.metrics.Attempts.Add(ctx, 1)

		res, err := try(ctx, src, logger)
		if err == nil {
			res.Seed = seed
			res.Attempts = attempt
			res.Draws = src.Draws()
			res.Hash = res.computeHash()
			elapsed := time.Since(start)
			g.metrics.Seeds.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
			g.metrics.Duration.Record(ctx, elapsed.Seconds())
			logger.Info("seed generated",
				zap.String("hash", res.Hash),
				zap.Int("attempts", attempt),
				zap.Int("draws", res.Draws),
				zap.Duration("elapsed", elapsed),
			)
			return res, nil
		}

		if errors.Is(err, ErrConfiguration) {
			g.metrics.Seeds.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "config")))
			logger.Error("configuration error", zap.Int("attempt", attempt), zap.Error(err))
			return nil, err
		}

		last = err
		reason := retryReason(err)
		g.metrics.Retries.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		logger.Debug("attempt failed",
			zap.Int("attempt", attempt),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}

	g.metrics.Seeds.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "exhausted")))
	logger.Warn("seed exhausted", zap.Int("attempts", g.opts.MaxAttempts), zap.Error(last))
	return nil, &GenerationError{Seed: seed, Attempts: g.opts.MaxAttempts, Last: last}
}

// attempt runs the pipeline once on fresh clones.
func (g *Generator) attempt(ctx context.Context, src rng.Source, logger *zap.Logger) (*Result, error) {
	conn, err := g.connect(src, logger)
	if err != nil {
		return nil, err
	}

	obs := newTierObserver(logger)
	out, a := fill.NewEngine(src, logger, obs).Run(conn.graph, g.plan)
	if out.Status == fill.Exhausted {
		return nil, fmt.Errorf("%w: tier %s with %d items left", ErrFillExhausted, out.Tier, out.Remaining)
	}
	all := g.opts.Settings.Accessibility == settings.AccessibilityAll
	if err := fill.Verify(conn.graph, g.plan, a, all); err != nil {
		return nil, err
	}
	obs.record(ctx, g.metrics)
	return newResult(g.opts.Settings, g.plan, conn, a), nil
}

// connection is one accepted entrance layout.
type connection struct {
	graph      *world.Graph
	order      []item.Level
	doors      *entrance.Table
	assignment []entrance.Assignment
}

// connect lays out level entrances and doors until the graph validates.
//
// Postcondition: Returns a validated layout, or the last failure after
// MaxEntranceAttempts tries.
func (g *Generator) connect(src rng.Source, logger *zap.Logger) (*connection, error) {
	s := g.opts.Settings
	opts := entrance.Options{
		Shuffle:             s.ShuffleDoors,
		PortalsPerLevel:     s.PortalsPerLevel,
		MovelessFirstPortal: s.MovelessFirstPortal,
	}
	var last error
	for i := 1; i <= g.opts.MaxEntranceAttempts; i++ {
		graph := g.template.Clone()
		order := entrance.VanillaOrder(graph)
		if s.ShuffleLevels {
			order = entrance.ShuffleOrder(src, graph)
		}
		if err := entrance.ConnectLevels(graph, order, g.gates); err != nil {
			return nil, configError("levels", err)
		}
		doors := g.doors.Clone()
		assigned, err := entrance.NewAssigner(src, opts, logger).Assign(graph, doors, order)
		if err == nil {
			err = entrance.Validate(graph, entrance.AllItems())
		}
		if err == nil {
			return &connection{graph: graph, order: order, doors: doors, assignment: assigned}, nil
		}
		last = err
		logger.Debug("entrance layout rejected", zap.Int("try", i), zap.Error(err))
	}
	return nil, last
}

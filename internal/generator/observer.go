package generator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/internal/game/fill"
	"github.com/cory-johannsen/dkrando/internal/observability"
)

// tierObserver counts placements per tier during one fill.
type tierObserver struct {
	logger *zap.Logger
	order  []string
	counts map[string]int64
}

func newTierObserver(logger *zap.Logger) *tierObserver {
	return &tierObserver{logger: logger, counts: make(map[string]int64)}
}

func (o *tierObserver) TierStarted(tier string, items int) {
	o.order = append(o.order, tier)
	o.logger.Debug("placing tier", zap.String("tier", tier), zap.Int("items", items))
}

func (o *tierObserver) Placed(p fill.Placement) {
	o.counts[p.Tier]++
}

// record adds the counts of an accepted fill to m.
func (o *tierObserver) record(ctx context.Context, m *observability.Metrics) {
	for _, tier := range o.order {
		m.Placements.Add(ctx, o.counts[tier], metric.WithAttributes(attribute.String("tier", tier)))
	}
}

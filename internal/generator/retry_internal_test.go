package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dkrando/internal/game/pool"
	"github.com/cory-johannsen/dkrando/internal/observability"
	"github.com/cory-johannsen/dkrando/internal/rng"
)

func bareGenerator(t *testing.T, attempts int) *Generator {
	return &Generator{
		opts:    Options{MaxAttempts: attempts},
		logger:  zaptest.NewLogger(t),
		metrics: observability.NopMetrics(),
	}
}

func TestGenerate_ConfigurationErrorNotRetried(t *testing.T) {
	g := bareGenerator(t, 5)
	calls := 0
	_, err := g.generate(context.Background(), 3, func(context.Context, rng.Source, *zap.Logger) (*Result, error) {
		calls++
		return nil, configError("levels", errors.New("level order has 6 entries, want 7"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.NotErrorIs(t, err, ErrExhausted)

	var ce *pool.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "levels", ce.Constraint)
}

func TestGenerate_RetryableErrorsUseEveryAttempt(t *testing.T) {
	g := bareGenerator(t, 4)
	calls := 0
	_, err := g.generate(context.Background(), 3, func(context.Context, rng.Source, *zap.Logger) (*Result, error) {
		calls++
		return nil, ErrFillExhausted
	})
	assert.Equal(t, 4, calls)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, ErrFillExhausted)
}

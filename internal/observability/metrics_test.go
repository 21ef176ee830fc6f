package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.Attempts.Add(ctx, 3)
	m.Retries.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "exhausted")))
	m.Seeds.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	m.Placements.Add(ctx, 38, metric.WithAttributes(attribute.String("tier", "high")))

	rm := collect(t, reader)
	got := findMetric(rm, "dkrando.generation.attempts")
	require.NotNil(t, got)
	sum, ok := got.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	placements := findMetric(rm, "dkrando.fill.placements")
	require.NotNil(t, placements)
	dp := placements.Data.(metricdata.Sum[int64]).DataPoints[0]
	tier, ok := dp.Attributes.Value("tier")
	require.True(t, ok)
	assert.Equal(t, "high", tier.AsString())
	assert.Equal(t, int64(38), dp.Value)
}

func TestDurationHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.Duration.Record(context.Background(), 0.3)
	m.Duration.Record(context.Background(), 1.7)

	got := findMetric(collect(t, reader), "dkrando.generation.duration")
	require.NotNil(t, got)
	hist, ok := got.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestMiddleware_RecordsPatternAndStatus(t *testing.T) {
	m, reader := newTestMetrics(t)
	h := Middleware(m, "/v1/seeds/{id}")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/seeds/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	got := findMetric(collect(t, reader), "dkrando.http.request.duration")
	require.NotNil(t, got)
	dp := got.Data.(metricdata.Histogram[float64]).DataPoints[0]
	path, _ := dp.Attributes.Value("path")
	status, _ := dp.Attributes.Value("status")
	assert.Equal(t, "/v1/seeds/{id}", path.AsString())
	assert.Equal(t, int64(http.StatusNotFound), status.AsInt64())
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	assert.NotPanics(t, func() { m.Attempts.Add(context.Background(), 1) })
}

package observability

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// meterName is the instrumentation scope name used for all generator metrics.
const meterName = "github.com/cory-johannsen/dkrando"

// Metrics holds the OpenTelemetry instruments of the generation pipeline.
// All fields are safe for concurrent use.
type Metrics struct {
	// Attempts counts pipeline attempts.
	Attempts metric.Int64Counter
	// Retries counts failed attempts by attribute.String("reason", ...).
	Retries metric.Int64Counter
	// Seeds counts finished seeds by attribute.String("status", ...).
	Seeds metric.Int64Counter
	// Placements counts fill placements by attribute.String("tier", ...).
	Placements metric.Int64Counter
	// Duration tracks wall time per seed.
	Duration metric.Float64Histogram
	// HTTPRequestDuration tracks seed server requests by method and path.
	HTTPRequestDuration metric.Float64Histogram
}

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// NewMetrics creates every instrument on mp.
//
// Postcondition: Returns a non-nil Metrics or the first instrument error.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Attempts, err = m.Int64Counter("dkrando.generation.attempts",
		metric.WithDescription("Generation attempts started."),
	); err != nil {
		return nil, err
	}
	if met.Retries, err = m.Int64Counter("dkrando.generation.retries",
		metric.WithDescription("Failed attempts by reason."),
	); err != nil {
		return nil, err
	}
	if met.Seeds, err = m.Int64Counter("dkrando.generation.seeds",
		metric.WithDescription("Finished seeds by status."),
	); err != nil {
		return nil, err
	}
	if met.Placements, err = m.Int64Counter("dkrando.fill.placements",
		metric.WithDescription("Items placed by tier."),
	); err != nil {
		return nil, err
	}
	if met.Duration, err = m.Float64Histogram("dkrando.generation.duration",
		metric.WithDescription("Wall time to generate one seed."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("dkrando.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// NopMetrics returns instruments that record nothing.
func NopMetrics() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic("observability: noop metrics: " + err.Error())
	}
	return m
}

// InitProvider builds a meter provider whose readings are exposed through
// the Prometheus default registry, for scraping via promhttp.Handler.
//
// Postcondition: Returns the provider and its shutdown function, or an error.
func InitProvider(serviceName, version string) (*sdkmetric.MeterProvider, func(context.Context) error, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, nil, err
	}
	exp, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exp),
	)
	return mp, mp.Shutdown, nil
}

// statusRecorder wraps http.ResponseWriter to capture the status code
// written by the downstream handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records the duration of every request to
// Metrics.HTTPRequestDuration. pattern names the route so that path
// parameters do not explode attribute cardinality.
func Middleware(m *Metrics, pattern string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)
			m.HTTPRequestDuration.Record(r.Context(), time.Since(start).Seconds(),
				metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("path", pattern),
					attribute.Int("status", rec.statusCode),
				),
			)
		})
	}
}

package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/sessionauth"
)

// Outcome values recorded on the outcome attribute.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Auth controller metrics
	RegistrationsTotal metric.Int64Counter
	LoginsTotal        metric.Int64Counter
	RefreshesTotal     metric.Int64Counter
	LogoutsTotal       metric.Int64Counter

	// Interceptor metrics
	RequestsTotal        metric.Int64Counter
	AuthenticateDuration metric.Float64Histogram

	// Store metrics
	SessionStoreErrorsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// RecordOutcome increments counter with an outcome attribute.
func RecordOutcome(ctx context.Context, counter metric.Int64Counter, ok bool) {
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeFailed
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.RegistrationsTotal, _ = meter.Int64Counter(
		"sessionauth.registrations.total",
		metric.WithDescription("Total number of registration attempts"),
		metric.WithUnit("{registration}"),
	)

	m.LoginsTotal, _ = meter.Int64Counter(
		"sessionauth.logins.total",
		metric.WithDescription("Total number of login attempts by outcome"),
		metric.WithUnit("{login}"),
	)

	m.RefreshesTotal, _ = meter.Int64Counter(
		"sessionauth.refreshes.total",
		metric.WithDescription("Total number of access token refresh attempts by outcome"),
		metric.WithUnit("{refresh}"),
	)

	m.LogoutsTotal, _ = meter.Int64Counter(
		"sessionauth.logouts.total",
		metric.WithDescription("Total number of logouts"),
		metric.WithUnit("{logout}"),
	)

	m.RequestsTotal, _ = meter.Int64Counter(
		"sessionauth.requests.total",
		metric.WithDescription("Total number of authenticated and anonymous requests"),
		metric.WithUnit("{request}"),
	)

	m.AuthenticateDuration, _ = meter.Float64Histogram(
		"sessionauth.authenticate.duration",
		metric.WithDescription("Duration of request authentication including session lookup"),
		metric.WithUnit("ms"),
	)

	m.SessionStoreErrorsTotal, _ = meter.Int64Counter(
		"sessionauth.session_store.errors.total",
		metric.WithDescription("Total number of session store failures"),
		metric.WithUnit("{error}"),
	)

	return m
}

package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal    metric.Int64Counter
	HTTPRequestDuration  metric.Float64Histogram
	AuthRequestsTotal    metric.Int64Counter
	CheckInsTotal        metric.Int64Counter
	DiscoveriesTotal     metric.Int64Counter
	PointsAwardedTotal   metric.Int64Counter
	NearestQueriesTotal  metric.Int64Counter
	CheckInFailuresTotal metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("bydgoszcz-go")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Total number of authentication requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_requests_total: %v", err)
		}

		m.CheckInsTotal, err = meter.Int64Counter(
			"checkins_total",
			metric.WithDescription("Total number of check-in attempts against the durable store"),
			metric.WithUnit("{checkin}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create checkins_total: %v", err)
		}

		m.DiscoveriesTotal, err = meter.Int64Counter(
			"discoveries_total",
			metric.WithDescription("Total number of first-time location discoveries"),
			metric.WithUnit("{discovery}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create discoveries_total: %v", err)
		}

		m.PointsAwardedTotal, err = meter.Int64Counter(
			"points_awarded_total",
			metric.WithDescription("Total points awarded by the check-in operation"),
			metric.WithUnit("{point}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create points_awarded_total: %v", err)
		}

		m.NearestQueriesTotal, err = meter.Int64Counter(
			"nearest_unvisited_queries_total",
			metric.WithDescription("Total number of nearest-unvisited queries"),
			metric.WithUnit("{query}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create nearest_unvisited_queries_total: %v", err)
		}

		m.CheckInFailuresTotal, err = meter.Int64Counter(
			"checkin_failures_total",
			metric.WithDescription("Total number of failed check-in attempts"),
			metric.WithUnit("{checkin}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create checkin_failures_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global metrics instance, or nil when InitAppMetrics has not
// run (unit tests).
func Get() *AppMetrics {
	return appMetrics
}

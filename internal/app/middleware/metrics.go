package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/matthiasoo/Hacknation25/internal/app/observability/metrics"
)

// MetricsMiddleware records per-request count and duration.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		m := metrics.Get()
		if m == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		)

		ctx := c.Request.Context()
		m.HTTPRequestsTotal.Add(ctx, 1, attrs)
		m.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

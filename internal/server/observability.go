package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/observability/metrics"
	"github.com/matthiasoo/Hacknation25/internal/app/observability/tracer"
)

// ObservabilityShutdownFunc is the function type returned by InitObservability
type ObservabilityShutdownFunc func(context.Context) error

// InitObservability initializes OpenTelemetry and application metrics
func InitObservability(serviceName, metricsEndpoint string, logger *zap.Logger) (ObservabilityShutdownFunc, error) {
	otelShutdown, err := tracer.InitOtelProviders(serviceName, metricsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics.InitAppMetrics()
	logger.Info("Observability initialized", zap.String("metrics_endpoint", metricsEndpoint+"/metrics"))

	return otelShutdown, nil
}

package server

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/matthiasoo/Hacknation25/internal/app/middleware"
	"github.com/matthiasoo/Hacknation25/internal/pkg/config"
	"github.com/matthiasoo/Hacknation25/internal/routes"
)

// SetupRouter configures and returns the Gin router with all middleware and routes
func SetupRouter(cfg *config.Config, dbPool *pgxpool.Pool, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(ginzap.GinzapWithConfig(logger, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		Context:    zapContextFunc(),
	}))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(otelgin.Middleware("bydgoszcz-go"))
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityMiddleware())

	routes.Setup(r, cfg, dbPool, logger)

	return r
}

// zapContextFunc returns the Zap context function for logging
func zapContextFunc() ginzap.Fn {
	return func(c *gin.Context) []zapcore.Field {
		fields := []zapcore.Field{}

		if requestID := c.Writer.Header().Get("X-Request-Id"); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}

		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}

		return fields
	}
}

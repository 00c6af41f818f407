package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/pkg/config"
	"github.com/matthiasoo/Hacknation25/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	otelShutdown, err := server.InitObservability("bydgoszcz-go", ":9092", logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	router := server.SetupRouter(cfg, srv.GetDBPool(), logger)
	srv.SetRouter(router)

	// Start pprof server (on separate port, not exposed publicly)
	server.StartPprofServer(":6060")

	httpServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, logger, done)

	logger.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Error("Server error", zap.Error(err))
	}

	<-done
	logger.Info("Graceful shutdown complete")

	return nil
}

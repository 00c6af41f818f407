// Command monitor runs the proximity discovery loop against the backend.
// Position samples are read from stdin as "lat,lon" lines, one per fix,
// standing in for a platform location stream.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matthiasoo/Hacknation25/internal/geofence"
	"github.com/matthiasoo/Hacknation25/internal/pkg/config"
)

func main() {
	if err := run(); err != nil && err != context.Canceled {
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

	cfg := config.LoadMonitor()
	token := os.Getenv("MONITOR_TOKEN")
	if token == "" {
		logger.Warn("MONITOR_TOKEN not set, running in guest mode without check-ins")
	}

	client := geofence.NewHTTPClient(cfg, token, logger)
	notifier := &geofence.LogNotifier{Logger: logger}

	feed := geofence.NewFeed(cfg.SampleBufferSize, geofence.Gate{
		MinMove: cfg.MinMoveM,
		MaxAge:  cfg.MaxSampleAge,
	}, logger)

	monitor := geofence.NewMonitor(client, notifier, geofence.Thresholds{
		EnterM:    cfg.EnterRadiusM,
		DiscoverM: cfg.DiscoverRadiusM,
		ExitM:     cfg.ExitRadiusM,
	}, feed.Samples(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return monitor.Run(ctx)
	})

	g.Go(func() error {
		defer feed.Close()
		return readSamples(ctx, os.Stdin, feed, logger)
	})

	logger.Info("Geofence monitor started",
		zap.String("server", cfg.ServerURL),
		zap.Float64("enter_m", cfg.EnterRadiusM),
		zap.Float64("discover_m", cfg.DiscoverRadiusM),
		zap.Float64("exit_m", cfg.ExitRadiusM))

	return g.Wait()
}

func readSamples(ctx context.Context, in *os.File, feed *geofence.Feed, logger *zap.Logger) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sample, err := parseSample(line)
		if err != nil {
			logger.Warn("Skipping malformed sample line", zap.String("line", line), zap.Error(err))
			continue
		}
		feed.Push(sample)
	}
	return scanner.Err()
}

func parseSample(line string) (geofence.Sample, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return geofence.Sample{}, fmt.Errorf("expected \"lat,lon\", got %q", line)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geofence.Sample{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geofence.Sample{}, fmt.Errorf("invalid longitude: %w", err)
	}

	return geofence.Sample{Latitude: lat, Longitude: lon, Timestamp: time.Now()}, nil
}

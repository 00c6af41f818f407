// Package database owns pgx pool setup and schema migrations.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/pkg/config"
)

//go:embed migrations
var migrationFS embed.FS

const defaultRetries = 5

type DatabaseConfig struct {
	ConnectionURL string
}

// WaitForDB waits for the database connection pool to be available.
func WaitForDB(ctx context.Context, pgpool *pgxpool.Pool, logger *zap.Logger) bool {
	maxAttempts := defaultRetries
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err := pgpool.Ping(ctx)
		if err == nil {
			logger.Info("Database connection successful")
			return true
		}

		waitDuration := time.Duration(attempts) * 200 * time.Millisecond
		logger.Warn("Database ping failed, retrying...",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("wait_duration", waitDuration),
			zap.Error(err),
		)
		if attempts < maxAttempts {
			time.Sleep(waitDuration)
		}
	}
	logger.Error("Database connection failed after multiple retries")
	return false
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(databaseURL string, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	goose.SetBaseFS(migrationFS)

	if err := goose.SetDialect(string(goose.DialectPostgres)); err != nil {
		logger.Error("Failed to set goose dialect", zap.Error(err))
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	// Goose drives a database/sql connection, separate from the pgx pool.
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database for migrations", zap.Error(err))
		return fmt.Errorf("sql.Open failed: %w", err)
	}
	defer db.Close()

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		logger.Error("Failed to read embedded migrations directory", zap.Error(err))
		return fmt.Errorf("failed to read embedded migrations directory: %w", err)
	}
	logger.Info("Found migration files", zap.Int("count", len(entries)))

	if err := goose.Up(db, "migrations"); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("goose.Up failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// NewDatabaseConfig generates the database connection URL from configuration.
func NewDatabaseConfig(cfg *config.Config, logger *zap.Logger) (*DatabaseConfig, error) {
	if cfg == nil || cfg.Repositories.Postgres.Host == "" {
		errMsg := "Postgres configuration is missing or invalid"
		logger.Error(errMsg)
		return nil, fmt.Errorf("%s", errMsg)
	}

	query := url.Values{}
	query.Set("sslmode", cfg.Repositories.Postgres.SSLMode)
	query.Set("timezone", "utc")

	connURL := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(cfg.Repositories.Postgres.Username, cfg.Repositories.Postgres.Password),
		Host:     fmt.Sprintf("%s:%s", cfg.Repositories.Postgres.Host, cfg.Repositories.Postgres.Port),
		Path:     cfg.Repositories.Postgres.DB,
		RawQuery: query.Encode(),
	}

	logger.Info("Database connection URL generated",
		zap.String("host", connURL.Host),
		zap.String("database", connURL.Path))

	return &DatabaseConfig{
		ConnectionURL: connURL.String(),
	}, nil
}

// Init initializes the pgxpool connection pool with google/uuid support.
func Init(connectionURL string, logger *zap.Logger) (*pgxpool.Pool, error) {
	logger.Info("Initializing database connection pool...")
	cfg, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		logger.Error("Failed to parse database config", zap.Error(err))
		return nil, fmt.Errorf("failed parsing db config: %w", err)
	}

	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to create database connection pool", zap.Error(err))
		return nil, fmt.Errorf("failed creating db pool: %w", err)
	}

	logger.Info("Database connection pool initialized")
	return pool, nil
}

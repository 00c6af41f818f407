package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type JWTConfig struct {
	SecretKey string
	TokenTTL  time.Duration
}

// MonitorConfig tunes the geofence monitor. Cadence values are a
// latency/battery trade-off, not correctness parameters; the thresholds are
// the hysteresis pair plus the discovery radius.
type MonitorConfig struct {
	ServerURL        string
	EnterRadiusM     float64
	DiscoverRadiusM  float64
	ExitRadiusM      float64
	MinMoveM         float64
	MaxSampleAge     time.Duration
	CheckInTimeout   time.Duration
	CatalogCacheTTL  time.Duration
	SampleBufferSize int
}

type Config struct {
	Repositories RepositoriesConfig
	JWT          JWTConfig
	Monitor      MonitorConfig
	ServerPort   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "bydgoszcz_go"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		JWT: JWTConfig{
			SecretKey: getEnvOrDefault("JWT_SECRET_KEY", ""),
			TokenTTL:  getDurationOrDefault("JWT_TOKEN_TTL", 90*24*time.Hour),
		},
		Monitor:    LoadMonitor(),
		ServerPort: getEnvOrDefault("SERVER_PORT", "3000"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	return cfg, nil
}

// LoadMonitor reads the monitor knobs. It has no required settings so the
// monitor binary can run against a local server with defaults.
func LoadMonitor() MonitorConfig {
	return MonitorConfig{
		ServerURL:        getEnvOrDefault("SERVER_URL", "http://localhost:3000"),
		EnterRadiusM:     getFloatOrDefault("MONITOR_ENTER_RADIUS_M", 100),
		DiscoverRadiusM:  getFloatOrDefault("MONITOR_DISCOVER_RADIUS_M", 50),
		ExitRadiusM:      getFloatOrDefault("MONITOR_EXIT_RADIUS_M", 200),
		MinMoveM:         getFloatOrDefault("MONITOR_MIN_MOVE_M", 10),
		MaxSampleAge:     getDurationOrDefault("MONITOR_MAX_SAMPLE_AGE", 20*time.Second),
		CheckInTimeout:   getDurationOrDefault("MONITOR_CHECKIN_TIMEOUT", 10*time.Second),
		CatalogCacheTTL:  getDurationOrDefault("MONITOR_CATALOG_TTL", 5*time.Minute),
		SampleBufferSize: getIntOrDefault("MONITOR_SAMPLE_BUFFER", 64),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

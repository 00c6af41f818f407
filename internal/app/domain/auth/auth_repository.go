package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/matthiasoo/Hacknation25/internal/app/models"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	// GetUserByEmail fetches user details needed for validation/token generation.
	GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error)
	// GetUserByID fetches user details by ID.
	GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error)
	// Register stores a new user with a HASHED password. Returns new user ID.
	Register(ctx context.Context, email, hashedPassword, firstName, lastName string) (string, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

// GetUserByEmail implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	var user models.UserAuth
	query := `SELECT id, email, first_name, last_name, password_hash, total_points FROM users WHERE email = $1`
	err := r.pgpool.QueryRow(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.TotalPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching user by email", slog.Any("error", err), slog.String("email", email))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return &user, nil
}

// GetUserByID implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error) {
	var user models.UserAuth
	query := `SELECT id, email, first_name, last_name, password_hash, total_points FROM users WHERE id = $1`
	err := r.pgpool.QueryRow(ctx, query, userID).
		Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.TotalPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with ID %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching user by ID", slog.Any("error", err), slog.String("userID", userID))
		return nil, fmt.Errorf("database error fetching user by ID: %w", err)
	}
	return &user, nil
}

// Register implements auth.AuthRepo. Expects HASHED password.
func (r *PostgresAuthRepo) Register(ctx context.Context, email, hashedPassword, firstName, lastName string) (string, error) {
	tracer := otel.Tracer("bydgoszcz-go")

	ctx, span := tracer.Start(ctx, "PostgresAuthRepo.Register", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.statement", "INSERT INTO users ..."),
	))
	defer span.End()

	var userID string
	userQuery := `INSERT INTO users (email, password_hash, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.pgpool.QueryRow(ctx, userQuery, email, hashedPassword, firstName, lastName, time.Now()).Scan(&userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database error")
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", fmt.Errorf("email already in use: %w", models.ErrConflict)
		}
		r.logger.ErrorContext(ctx, "Error inserting user", slog.Any("error", err), slog.String("email", email))
		return "", fmt.Errorf("database error registering user: %w", err)
	}

	span.SetStatus(codes.Ok, "User created")
	r.logger.InfoContext(ctx, "User registered successfully", slog.String("userID", userID))
	return userID, nil
}

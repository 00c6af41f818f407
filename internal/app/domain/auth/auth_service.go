package auth

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/matthiasoo/Hacknation25/internal/app/middleware"
	"github.com/matthiasoo/Hacknation25/internal/app/models"
	"github.com/matthiasoo/Hacknation25/internal/pkg/config"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *models.UserAuth, err error)
	Register(ctx context.Context, email, password, firstName, lastName string) (token string, user *models.UserAuth, err error)
	GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
	cfg    *config.Config
}

// NewAuthService creates a new authentication service instance.
func NewAuthService(repo AuthRepo, cfg *config.Config, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{logger: logger, repo: repo, cfg: cfg}
}

// Login validates credentials and issues a bearer token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *models.UserAuth, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))
	l.Debug("Attempting login")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.Warn("GetUserByEmail failed")
		// Don't reveal if user exists or password is wrong
		return "", nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.String("userID", user.ID.String()))
		return "", nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	token, err := s.signToken(user)
	if err != nil {
		l.Error("Failed to generate token", zap.String("userID", user.ID.String()), zap.Error(err))
		return "", nil, fmt.Errorf("app error generating token: %w", err)
	}

	l.Info("Login successful")
	return token, user, nil
}

// Register hashes the password, stores the user and issues a bearer token.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password, firstName, lastName string) (string, *models.UserAuth, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("email", email))
	l.Debug("Attempting registration")

	tracer := otel.Tracer("bydgoszcz-go")
	ctx, span := tracer.Start(ctx, "AuthService.Register", trace.WithAttributes(
		attribute.String("email", email),
	))
	defer span.End()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.repo.Register(ctx, email, string(hashed), firstName, lastName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Registration failed")
		return "", nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return "", nil, fmt.Errorf("failed to load registered user: %w", err)
	}

	token, err := s.signToken(user)
	if err != nil {
		span.RecordError(err)
		return "", nil, fmt.Errorf("app error generating token: %w", err)
	}

	span.SetStatus(codes.Ok, "Registered")
	l.Info("Registration successful", zap.String("userID", userID))
	return token, user, nil
}

// GetUserByID exposes the repository lookup to other domains.
func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AuthServiceImpl) signToken(user *models.UserAuth) (string, error) {
	return middleware.GenerateToken(middleware.JWTConfig{
		SecretKey: s.cfg.JWT.SecretKey,
		TokenTTL:  s.cfg.JWT.TokenTTL,
	}, user.ID.String(), user.Email)
}

package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/models"
	"github.com/matthiasoo/Hacknation25/internal/app/observability/metrics"
)

func recordAuthRequest(c *gin.Context, operation string, outcome string) {
	if m := metrics.Get(); m != nil {
		m.AuthRequestsTotal.Add(c.Request.Context(), 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		))
	}
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthHandlers struct {
	authService AuthService
	logger      *zap.Logger
}

func NewAuthHandlers(authService AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
	}
}

// RegisterHandler handles POST /auth/register.
func (h *AuthHandlers) RegisterHandler(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide all required fields"})
		return
	}

	token, user, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		recordAuthRequest(c, "register", "failure")
		if errors.Is(err, models.ErrConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use"})
			return
		}
		h.logger.Error("Registration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	recordAuthRequest(c, "register", "success")

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		},
	})
}

// LoginHandler handles POST /auth/login.
func (h *AuthHandlers) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide email and password"})
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		recordAuthRequest(c, "login", "failure")
		if errors.Is(err, models.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	recordAuthRequest(c, "login", "success")

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":           user.ID,
			"email":        user.Email,
			"first_name":   user.FirstName,
			"last_name":    user.LastName,
			"total_points": user.TotalPoints,
		},
	})
}

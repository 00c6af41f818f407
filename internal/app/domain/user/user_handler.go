package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/domain/auth"
	"github.com/matthiasoo/Hacknation25/internal/app/domain/location"
	"github.com/matthiasoo/Hacknation25/internal/app/middleware"
	"github.com/matthiasoo/Hacknation25/internal/app/models"
)

type UserHandlers struct {
	authService     auth.AuthService
	locationService location.Service
	logger          *zap.Logger
}

func NewUserHandlers(authService auth.AuthService, locationService location.Service, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{
		authService:     authService,
		locationService: locationService,
		logger:          logger,
	}
}

// GetMe handles GET /users/me.
func (h *UserHandlers) GetMe(c *gin.Context) {
	userID, ok := middleware.AuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("Failed to load user", zap.String("userID", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":           user.ID,
			"email":        user.Email,
			"first_name":   user.FirstName,
			"last_name":    user.LastName,
			"total_points": user.TotalPoints,
		},
	})
}

// GetVisitedLocations handles GET /users/:id/visited, newest first.
func (h *UserHandlers) GetVisitedLocations(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	visited, err := h.locationService.GetVisitedLocations(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list visited locations", zap.String("userID", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": len(visited),
		"visited": visited,
	})
}

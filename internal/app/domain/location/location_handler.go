package location

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/middleware"
	"github.com/matthiasoo/Hacknation25/internal/app/models"
)

type CreateLocationRequest struct {
	Name        string  `json:"name" binding:"required"`
	Latitude    float64 `json:"latitude" binding:"required"`
	Longitude   float64 `json:"longitude" binding:"required"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
	Description string  `json:"description"`
}

type AddTimelineEventRequest struct {
	Year        int    `json:"year" binding:"required"`
	Description string `json:"description" binding:"required"`
	ImageURL    string `json:"imageUrl"`
	AudioURL    string `json:"audioUrl"`
}

type LocationHandlers struct {
	service Service
	logger  *zap.Logger
}

func NewLocationHandlers(service Service, logger *zap.Logger) *LocationHandlers {
	return &LocationHandlers{
		service: service,
		logger:  logger,
	}
}

// ListLocations handles GET /locations with an optional category filter.
func (h *LocationHandlers) ListLocations(c *gin.Context) {
	locations, err := h.service.GetLocations(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.logger.Error("Failed to list locations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":   len(locations),
		"locations": locations,
	})
}

// ListCategories handles GET /locations/categories.
func (h *LocationHandlers) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories()})
}

// GetLocation handles GET /locations/:id. The endpoint is dual-mode: it is a
// public detail read, and for an authenticated caller it additionally
// performs the check-in. Detail-read and check-in are intentionally fused;
// this endpoint is the only check-in trigger in the API.
func (h *LocationHandlers) GetLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location id"})
		return
	}

	if userIDStr, ok := middleware.AuthenticatedUserID(c); ok {
		userID, err := uuid.Parse(userIDStr)
		if err == nil {
			h.checkIn(c, userID, locationID)
			return
		}
		h.logger.Warn("Malformed user id in token, serving unauthenticated", zap.String("userID", userIDStr))
	}

	loc, err := h.service.GetLocation(c.Request.Context(), locationID)
	if err != nil {
		h.respondError(c, err, "Location not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isNewDiscovery": false,
		"pointsAwarded":  0,
		"location":       loc,
	})
}

func (h *LocationHandlers) checkIn(c *gin.Context, userID, locationID uuid.UUID) {
	result, err := h.service.CheckIn(c.Request.Context(), userID, locationID)
	if err != nil {
		h.respondError(c, err, "Location not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isNewDiscovery": result.IsNewDiscovery,
		"pointsAwarded":  result.PointsAwarded,
		"location":       result.Location,
	})
}

// CreateLocation handles POST /locations (admin/seed path).
func (h *LocationHandlers) CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide all required fields"})
		return
	}

	loc, err := h.service.CreateLocation(c.Request.Context(), &models.Location{
		Name:        req.Name,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Category:    models.LocationCategory(req.Category),
		ImageURL:    req.ImageURL,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create location")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"location": loc})
}

// GetTimeline handles GET /locations/:id/timeline.
func (h *LocationHandlers) GetTimeline(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location id"})
		return
	}

	timeline, err := h.service.GetTimeline(c.Request.Context(), locationID)
	if err != nil {
		h.respondError(c, err, "Failed to load timeline")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":  len(timeline),
		"timeline": timeline,
	})
}

// AddTimelineEvent handles POST /locations/:id/timeline.
func (h *LocationHandlers) AddTimelineEvent(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location id"})
		return
	}

	var req AddTimelineEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide year and description"})
		return
	}

	event, err := h.service.AddTimelineEvent(c.Request.Context(), &models.TimelineEvent{
		LocationID:  locationID,
		Year:        req.Year,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		AudioURL:    req.AudioURL,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create timeline event")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// NearestUnvisited handles GET /locations/nearest-unvisited?lat=&lon=.
func (h *LocationHandlers) NearestUnvisited(c *gin.Context) {
	userIDStr, ok := middleware.AuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide valid lat and lon query parameters"})
		return
	}

	result, err := h.service.NearestUnvisited(c.Request.Context(), userID, lat, lon)
	if err != nil {
		h.respondError(c, err, "Failed to compute nearest unvisited location")
		return
	}

	if result.AllVisited {
		c.JSON(http.StatusOK, gin.H{
			"message":  "All locations visited!",
			"location": nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location": result.Location,
		"distance": result.DistanceMeters,
	})
}

func (h *LocationHandlers) respondError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

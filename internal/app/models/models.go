package models

import (
	"time"

	"github.com/google/uuid"
)

// LocationCategory tags a point of interest for catalog filtering.
type LocationCategory string

const (
	CategoryMemorial LocationCategory = "MEMORIAL"
	CategoryBuilding LocationCategory = "BUILDING"
	CategoryMuseum   LocationCategory = "MUSEUM"
	CategoryPark     LocationCategory = "PARK"
	CategoryOther    LocationCategory = "OTHER"
)

// Categories lists every known location category, in display order.
func Categories() []LocationCategory {
	return []LocationCategory{
		CategoryMemorial,
		CategoryBuilding,
		CategoryMuseum,
		CategoryPark,
		CategoryOther,
	}
}

// IsValidCategory reports whether s names a known category.
func IsValidCategory(s string) bool {
	for _, c := range Categories() {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Location is a discoverable point of interest. Coordinates are WGS-84
// degrees. Locations are seeded administratively and read-only for the
// discovery engine.
type Location struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	Category    LocationCategory `json:"category"`
	ImageURL    string           `json:"image_url,omitempty"`
	Description string           `json:"description,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// LocationSummary is the catalog-listing projection of a Location.
type LocationSummary struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	Category  LocationCategory `json:"category"`
	ImageURL  string           `json:"image_url,omitempty"`
}

// TimelineEvent is one historical entry attached to a location, ordered by
// year ascending.
type TimelineEvent struct {
	ID          uuid.UUID `json:"id"`
	LocationID  uuid.UUID `json:"location_id"`
	Year        int       `json:"year"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	AudioURL    string    `json:"audio_url,omitempty"`
}

// User is a registered account. TotalPoints is monotonically non-decreasing
// and is mutated only inside the check-in transaction.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	TotalPoints int       `json:"total_points"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserAuth carries the credential fields needed for login and token
// generation. Never serialized to clients.
type UserAuth struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	TotalPoints  int
}

// Visit is the join row between a user and a location. At most one Visit
// exists per (user, location) pair, enforced by a database constraint.
type Visit struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	LocationID uuid.UUID `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// VisitedLocation is a Visit joined with its Location for history listings.
type VisitedLocation struct {
	Visit
	Location Location `json:"location"`
}

// CheckInResult is the outcome of the check-in operation. On a repeat call
// IsNewDiscovery is false and PointsAwarded is zero.
type CheckInResult struct {
	IsNewDiscovery bool      `json:"isNewDiscovery"`
	PointsAwarded  int       `json:"pointsAwarded"`
	Location       *Location `json:"location"`
}

// NearestResult is the nearest-unvisited answer. Location is nil when the
// user has visited everything; AllVisited is set in that case.
type NearestResult struct {
	Location       *Location `json:"location"`
	DistanceMeters float64   `json:"distance"`
	AllVisited     bool      `json:"all_visited"`
}

package geofence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/models"
	"github.com/matthiasoo/Hacknation25/internal/pkg/config"
)

const catalogCacheKey = "catalog"

// Client is the monitor's view of the backend.
type Client interface {
	// Catalog returns every known location.
	Catalog(ctx context.Context) ([]models.LocationSummary, error)
	// VisitedLocationIDs returns the authoritative set of already-visited
	// location ids for the authenticated user.
	VisitedLocationIDs(ctx context.Context) (map[uuid.UUID]struct{}, error)
	// CheckIn performs the discovery call for a location. Idempotent on the
	// server; safe to retry on any failure.
	CheckIn(ctx context.Context, locationID uuid.UUID) (*models.CheckInResult, error)
	// Authenticated reports whether a bearer token is configured.
	Authenticated() bool
}

var _ Client = (*HTTPClient)(nil)

// HTTPClient talks to the backend REST API. The location catalog is held in a
// TTL cache so the per-sample evaluation loop does not hammer the server.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *gocache.Cache
	logger  *zap.Logger

	userID uuid.UUID
}

func NewHTTPClient(cfg config.MonitorConfig, token string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.ServerURL,
		token:   token,
		http:    &http.Client{Timeout: cfg.CheckInTimeout},
		cache:   gocache.New(cfg.CatalogCacheTTL, 2*cfg.CatalogCacheTTL),
		logger:  logger,
	}
}

func (c *HTTPClient) Authenticated() bool {
	return c.token != ""
}

func (c *HTTPClient) Catalog(ctx context.Context) ([]models.LocationSummary, error) {
	if cached, ok := c.cache.Get(catalogCacheKey); ok {
		return cached.([]models.LocationSummary), nil
	}

	var payload struct {
		Locations []models.LocationSummary `json:"locations"`
	}
	if err := c.getJSON(ctx, "/api/v1/locations", false, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch location catalog: %w", err)
	}

	c.cache.SetDefault(catalogCacheKey, payload.Locations)
	return payload.Locations, nil
}

func (c *HTTPClient) VisitedLocationIDs(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	if !c.Authenticated() {
		return map[uuid.UUID]struct{}{}, nil
	}

	userID, err := c.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Visited []models.VisitedLocation `json:"visited"`
	}
	path := fmt.Sprintf("/api/v1/users/%s/visited", userID)
	if err := c.getJSON(ctx, path, true, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch visited locations: %w", err)
	}

	visited := make(map[uuid.UUID]struct{}, len(payload.Visited))
	for _, v := range payload.Visited {
		visited[v.LocationID] = struct{}{}
	}
	return visited, nil
}

// CheckIn fetches the location detail with the bearer token attached; the
// backend fuses check-in into that read.
func (c *HTTPClient) CheckIn(ctx context.Context, locationID uuid.UUID) (*models.CheckInResult, error) {
	var result models.CheckInResult
	path := fmt.Sprintf("/api/v1/locations/%s", locationID)
	if err := c.getJSON(ctx, path, true, &result); err != nil {
		return nil, fmt.Errorf("check-in failed for location %s: %w", locationID, err)
	}
	return &result, nil
}

func (c *HTTPClient) currentUserID(ctx context.Context) (uuid.UUID, error) {
	if c.userID != uuid.Nil {
		return c.userID, nil
	}

	var payload struct {
		User struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	if err := c.getJSON(ctx, "/api/v1/users/me", true, &payload); err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve current user: %w", err)
	}

	c.userID = payload.User.ID
	return c.userID, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, authed bool, out any) error {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("invalid request path %q: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if authed && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("server rejected token: %w", models.ErrUnauthenticated)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("resource not found: %w", models.ErrNotFound)
	case resp.StatusCode >= 400:
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

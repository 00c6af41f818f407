package location

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/models"
	"github.com/matthiasoo/Hacknation25/internal/app/observability/metrics"
	"github.com/matthiasoo/Hacknation25/internal/pkg/geo"
)

// PointsPerDiscovery is the fixed award for a first visit.
const PointsPerDiscovery = 1

var _ Service = (*ServiceImpl)(nil)

// Service is the business-logic contract for the location catalog and the
// check-in operation.
type Service interface {
	GetLocations(ctx context.Context, category string) ([]models.LocationSummary, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	CreateLocation(ctx context.Context, loc *models.Location) (*models.Location, error)
	GetTimeline(ctx context.Context, locationID uuid.UUID) ([]models.TimelineEvent, error)
	AddTimelineEvent(ctx context.Context, event *models.TimelineEvent) (*models.TimelineEvent, error)

	// CheckIn awards the discovery for (user, location) at most once. Safe
	// to call repeatedly and concurrently; repeat calls are no-ops.
	CheckIn(ctx context.Context, userID, locationID uuid.UUID) (*models.CheckInResult, error)
	GetVisitedLocations(ctx context.Context, userID uuid.UUID) ([]models.VisitedLocation, error)
	NearestUnvisited(ctx context.Context, userID uuid.UUID, lat, lon float64) (*models.NearestResult, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo}
}

func (s *ServiceImpl) GetLocations(ctx context.Context, category string) ([]models.LocationSummary, error) {
	if category != "" && !models.IsValidCategory(category) {
		// Unknown categories fall back to the unfiltered list, matching the
		// catalog read being lenient rather than erroring.
		category = ""
	}
	return s.repo.GetLocations(ctx, category)
}

func (s *ServiceImpl) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	return s.repo.GetLocation(ctx, id)
}

func (s *ServiceImpl) CreateLocation(ctx context.Context, loc *models.Location) (*models.Location, error) {
	if !geo.ValidateCoordinates(loc.Latitude, loc.Longitude) {
		return nil, fmt.Errorf("invalid coordinates: %w", models.ErrValidation)
	}
	if loc.Category == "" {
		loc.Category = models.CategoryOther
	}
	if !models.IsValidCategory(string(loc.Category)) {
		return nil, fmt.Errorf("unknown category %q: %w", loc.Category, models.ErrValidation)
	}

	id, err := s.repo.CreateLocation(ctx, loc)
	if err != nil {
		return nil, err
	}
	return s.repo.GetLocation(ctx, id)
}

func (s *ServiceImpl) GetTimeline(ctx context.Context, locationID uuid.UUID) ([]models.TimelineEvent, error) {
	return s.repo.GetTimeline(ctx, locationID)
}

func (s *ServiceImpl) AddTimelineEvent(ctx context.Context, event *models.TimelineEvent) (*models.TimelineEvent, error) {
	if event.Description == "" {
		return nil, fmt.Errorf("timeline description is required: %w", models.ErrValidation)
	}

	id, err := s.repo.AddTimelineEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	event.ID = id
	return event, nil
}

// CheckIn implements the at-most-once discovery award. The read is an
// optimization; correctness rests on the unique constraint inside
// RecordVisit.
func (s *ServiceImpl) CheckIn(ctx context.Context, userID, locationID uuid.UUID) (*models.CheckInResult, error) {
	l := s.logger.With(
		zap.String("method", "CheckIn"),
		zap.String("userID", userID.String()),
		zap.String("locationID", locationID.String()),
	)

	tracer := otel.Tracer("bydgoszcz-go")
	ctx, span := tracer.Start(ctx, "LocationService.CheckIn", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("location.id", locationID.String()),
	))
	defer span.End()

	loc, err := s.repo.GetLocation(ctx, locationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Location lookup failed")
		return nil, err
	}

	if m := metrics.Get(); m != nil {
		m.CheckInsTotal.Add(ctx, 1)
	}

	visited, err := s.repo.HasVisit(ctx, userID, locationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Visit lookup failed")
		return nil, err
	}
	if visited {
		span.SetStatus(codes.Ok, "Already visited")
		return &models.CheckInResult{IsNewDiscovery: false, PointsAwarded: 0, Location: loc}, nil
	}

	inserted, err := s.repo.RecordVisit(ctx, userID, locationID, PointsPerDiscovery)
	if err != nil {
		if m := metrics.Get(); m != nil {
			m.CheckInFailuresTotal.Add(ctx, 1)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Visit write failed")
		return nil, err
	}
	if !inserted {
		// A concurrent request recorded the visit first; report a no-op.
		l.Debug("Concurrent check-in suppressed")
		span.SetStatus(codes.Ok, "Concurrent check-in suppressed")
		return &models.CheckInResult{IsNewDiscovery: false, PointsAwarded: 0, Location: loc}, nil
	}

	if m := metrics.Get(); m != nil {
		m.DiscoveriesTotal.Add(ctx, 1)
		m.PointsAwardedTotal.Add(ctx, PointsPerDiscovery)
	}

	l.Info("New discovery recorded", zap.Int("points", PointsPerDiscovery))
	span.SetStatus(codes.Ok, "New discovery")
	return &models.CheckInResult{IsNewDiscovery: true, PointsAwarded: PointsPerDiscovery, Location: loc}, nil
}

func (s *ServiceImpl) GetVisitedLocations(ctx context.Context, userID uuid.UUID) ([]models.VisitedLocation, error) {
	return s.repo.GetVisitedLocations(ctx, userID)
}

// NearestUnvisited scans the user's unvisited locations and returns the one
// with minimum haversine distance to the given coordinate. Ties keep the
// first-encountered location.
func (s *ServiceImpl) NearestUnvisited(ctx context.Context, userID uuid.UUID, lat, lon float64) (*models.NearestResult, error) {
	if !geo.ValidateCoordinates(lat, lon) {
		return nil, fmt.Errorf("invalid coordinates lat=%f lon=%f: %w", lat, lon, models.ErrValidation)
	}

	if m := metrics.Get(); m != nil {
		m.NearestQueriesTotal.Add(ctx, 1)
	}

	unvisited, err := s.repo.GetUnvisitedLocations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(unvisited) == 0 {
		return &models.NearestResult{AllVisited: true}, nil
	}

	var nearest *models.Location
	minDistance := 0.0
	for i := range unvisited {
		dist := geo.HaversineDistance(lat, lon, unvisited[i].Latitude, unvisited[i].Longitude)
		if nearest == nil || dist < minDistance {
			nearest = &unvisited[i]
			minDistance = dist
		}
	}

	return &models.NearestResult{Location: nearest, DistanceMeters: minDistance}, nil
}

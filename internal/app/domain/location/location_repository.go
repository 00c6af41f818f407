package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// DBPool is the subset of pgxpool.Pool the repository uses; pgxmock
// implements it for transaction tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Repository is the durable-store contract for locations and visits.
type Repository interface {
	GetLocations(ctx context.Context, category string) ([]models.LocationSummary, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	CreateLocation(ctx context.Context, loc *models.Location) (uuid.UUID, error)
	GetTimeline(ctx context.Context, locationID uuid.UUID) ([]models.TimelineEvent, error)
	AddTimelineEvent(ctx context.Context, event *models.TimelineEvent) (uuid.UUID, error)

	// HasVisit reports whether a visit row exists for the pair.
	HasVisit(ctx context.Context, userID, locationID uuid.UUID) (bool, error)
	// RecordVisit atomically inserts the visit and increments the user's
	// points. Returns false with no error when the pair already exists; the
	// unique constraint closes the check-then-insert race.
	RecordVisit(ctx context.Context, userID, locationID uuid.UUID, points int) (bool, error)
	GetVisitedLocations(ctx context.Context, userID uuid.UUID) ([]models.VisitedLocation, error)
	GetUnvisitedLocations(ctx context.Context, userID uuid.UUID) ([]models.Location, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool DBPool
}

func NewRepository(pgxpool DBPool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

func (r *RepositoryImpl) GetLocations(ctx context.Context, category string) ([]models.LocationSummary, error) {
	builder := sq.Select("id", "name", "latitude", "longitude", "category", "image_url").
		From("locations").
		OrderBy("name ASC").
		PlaceholderFormat(sq.Dollar)

	if category != "" {
		builder = builder.Where(sq.Eq{"category": category})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build locations query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query locations", zap.Error(err))
		return nil, fmt.Errorf("database error listing locations: %w", err)
	}
	defer rows.Close()

	var locations []models.LocationSummary
	for rows.Next() {
		var loc models.LocationSummary
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.Category, &loc.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location rows: %w", err)
	}

	return locations, nil
}

func (r *RepositoryImpl) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var loc models.Location
	query := `SELECT id, name, latitude, longitude, category, image_url, description, created_at
		FROM locations WHERE id = $1`
	err := r.pgpool.QueryRow(ctx, query, id).
		Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.Category, &loc.ImageURL, &loc.Description, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("location %s not found: %w", id, models.ErrNotFound)
		}
		r.logger.Error("Failed to fetch location", zap.String("locationID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("database error fetching location: %w", err)
	}
	return &loc, nil
}

func (r *RepositoryImpl) CreateLocation(ctx context.Context, loc *models.Location) (uuid.UUID, error) {
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return uuid.Nil, fmt.Errorf("invalid coordinates lat=%f lon=%f: %w", loc.Latitude, loc.Longitude, models.ErrValidation)
	}
	if loc.Name == "" {
		return uuid.Nil, fmt.Errorf("location name is required: %w", models.ErrValidation)
	}

	query := `INSERT INTO locations (name, latitude, longitude, category, image_url, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, query,
		loc.Name, loc.Latitude, loc.Longitude, loc.Category, loc.ImageURL, loc.Description, time.Now(),
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert location", zap.String("name", loc.Name), zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error creating location: %w", err)
	}
	return id, nil
}

func (r *RepositoryImpl) GetTimeline(ctx context.Context, locationID uuid.UUID) ([]models.TimelineEvent, error) {
	query := `SELECT id, location_id, year, description, image_url, audio_url
		FROM location_timeline WHERE location_id = $1 ORDER BY year ASC`
	rows, err := r.pgpool.Query(ctx, query, locationID)
	if err != nil {
		r.logger.Error("Failed to query timeline", zap.String("locationID", locationID.String()), zap.Error(err))
		return nil, fmt.Errorf("database error listing timeline: %w", err)
	}
	defer rows.Close()

	var events []models.TimelineEvent
	for rows.Next() {
		var ev models.TimelineEvent
		if err := rows.Scan(&ev.ID, &ev.LocationID, &ev.Year, &ev.Description, &ev.ImageURL, &ev.AudioURL); err != nil {
			return nil, fmt.Errorf("failed to scan timeline row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline rows: %w", err)
	}

	return events, nil
}

func (r *RepositoryImpl) AddTimelineEvent(ctx context.Context, event *models.TimelineEvent) (uuid.UUID, error) {
	query := `INSERT INTO location_timeline (location_id, year, description, image_url, audio_url)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, query,
		event.LocationID, event.Year, event.Description, event.ImageURL, event.AudioURL,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return uuid.Nil, fmt.Errorf("location %s not found: %w", event.LocationID, models.ErrNotFound)
		}
		r.logger.Error("Failed to insert timeline event", zap.String("locationID", event.LocationID.String()), zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error creating timeline event: %w", err)
	}
	return id, nil
}

func (r *RepositoryImpl) HasVisit(ctx context.Context, userID, locationID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM visits WHERE user_id = $1 AND location_id = $2)`
	if err := r.pgpool.QueryRow(ctx, query, userID, locationID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check visit existence",
			zap.String("userID", userID.String()),
			zap.String("locationID", locationID.String()),
			zap.Error(err))
		return false, fmt.Errorf("database error checking visit: %w", err)
	}
	return exists, nil
}

// RecordVisit performs the check-in write. The insert and the point increment
// commit together or not at all; a unique violation means a concurrent
// request won the race and is reported as "already visited", not an error.
func (r *RepositoryImpl) RecordVisit(ctx context.Context, userID, locationID uuid.UUID, points int) (bool, error) {
	tracer := otel.Tracer("bydgoszcz-go")
	ctx, span := tracer.Start(ctx, "LocationRepo.RecordVisit", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("user.id", userID.String()),
		attribute.String("location.id", locationID.String()),
	))
	defer span.End()

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Begin failed")
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	insertQuery := `INSERT INTO visits (user_id, location_id, created_at) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, insertQuery, userID, locationID, time.Now()); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the race to a concurrent check-in for the same pair.
			span.SetStatus(codes.Ok, "Visit already recorded")
			return false, nil
		}
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, fmt.Errorf("user or location not found: %w", models.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		r.logger.Error("Failed to insert visit",
			zap.String("userID", userID.String()),
			zap.String("locationID", locationID.String()),
			zap.Error(err))
		return false, fmt.Errorf("database error recording visit: %w", err)
	}

	updateQuery := `UPDATE users SET total_points = total_points + $1 WHERE id = $2`
	tag, err := tx.Exec(ctx, updateQuery, points, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Point update failed")
		return false, fmt.Errorf("database error awarding points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return false, fmt.Errorf("failed to commit visit: %w", err)
	}

	span.SetStatus(codes.Ok, "Visit recorded")
	return true, nil
}

func (r *RepositoryImpl) GetVisitedLocations(ctx context.Context, userID uuid.UUID) ([]models.VisitedLocation, error) {
	query := `SELECT v.id, v.user_id, v.location_id, v.created_at,
			l.id, l.name, l.latitude, l.longitude, l.category, l.image_url, l.description, l.created_at
		FROM visits v
		JOIN locations l ON l.id = v.location_id
		WHERE v.user_id = $1
		ORDER BY v.created_at DESC`
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query visited locations", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("database error listing visits: %w", err)
	}
	defer rows.Close()

	var visited []models.VisitedLocation
	for rows.Next() {
		var vl models.VisitedLocation
		if err := rows.Scan(
			&vl.ID, &vl.UserID, &vl.LocationID, &vl.CreatedAt,
			&vl.Location.ID, &vl.Location.Name, &vl.Location.Latitude, &vl.Location.Longitude,
			&vl.Location.Category, &vl.Location.ImageURL, &vl.Location.Description, &vl.Location.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan visit row: %w", err)
		}
		visited = append(visited, vl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visit rows: %w", err)
	}

	return visited, nil
}

func (r *RepositoryImpl) GetUnvisitedLocations(ctx context.Context, userID uuid.UUID) ([]models.Location, error) {
	query := `SELECT l.id, l.name, l.latitude, l.longitude, l.category, l.image_url, l.description, l.created_at
		FROM locations l
		WHERE NOT EXISTS (
			SELECT 1 FROM visits v WHERE v.location_id = l.id AND v.user_id = $1
		)
		ORDER BY l.created_at ASC`
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query unvisited locations", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("database error listing unvisited locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude,
			&loc.Category, &loc.ImageURL, &loc.Description, &loc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location rows: %w", err)
	}

	return locations, nil
}

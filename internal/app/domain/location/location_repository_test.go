package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/models"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, zap.NewNop()), mock
}

func TestRecordVisit_CommitsInsertAndPointsTogether(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	locationID := uuid.New()

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec("INSERT INTO visits").
		WithArgs(userID, locationID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE users SET total_points").
		WithArgs(1, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	inserted, err := repo.RecordVisit(context.Background(), userID, locationID, 1)
	require.NoError(t, err)
	assert.True(t, inserted)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVisit_UniqueViolationIsNotAnError(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	locationID := uuid.New()

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec("INSERT INTO visits").
		WithArgs(userID, locationID, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "visits_user_id_location_id_key"})
	mock.ExpectRollback()

	inserted, err := repo.RecordVisit(context.Background(), userID, locationID, 1)
	require.NoError(t, err, "losing the insert race must read as already visited")
	assert.False(t, inserted)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVisit_MissingLocationIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	locationID := uuid.New()

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec("INSERT INTO visits").
		WithArgs(userID, locationID, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "visits_location_id_fkey"})
	mock.ExpectRollback()

	_, err := repo.RecordVisit(context.Background(), userID, locationID, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVisit_MissingUserRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	locationID := uuid.New()

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec("INSERT INTO visits").
		WithArgs(userID, locationID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE users SET total_points").
		WithArgs(1, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := repo.RecordVisit(context.Background(), userID, locationID, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVisit_PointUpdateFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	locationID := uuid.New()

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec("INSERT INTO visits").
		WithArgs(userID, locationID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE users SET total_points").
		WithArgs(1, userID).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	inserted, err := repo.RecordVisit(context.Background(), userID, locationID, 1)
	require.Error(t, err)
	assert.False(t, inserted)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasVisit(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	locationID := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(userID, locationID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	visited, err := repo.HasVisit(context.Background(), userID, locationID)
	require.NoError(t, err)
	assert.True(t, visited)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLocation_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	locationID := uuid.New()

	mock.ExpectQuery("SELECT id, name, latitude, longitude").
		WithArgs(locationID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetLocation(context.Background(), locationID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetLocations_FiltersByCategory(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	rows := pgxmock.NewRows([]string{"id", "name", "latitude", "longitude", "category", "image_url"}).
		AddRow(id, "Exploseum", 53.123, 17.996, models.CategoryMuseum, "")

	mock.ExpectQuery("SELECT id, name, latitude, longitude, category, image_url FROM locations").
		WithArgs(string(models.CategoryMuseum)).
		WillReturnRows(rows)

	locations, err := repo.GetLocations(context.Background(), string(models.CategoryMuseum))
	require.NoError(t, err)

	require.Len(t, locations, 1)
	assert.Equal(t, "Exploseum", locations[0].Name)
	assert.Equal(t, models.CategoryMuseum, locations[0].Category)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVisitedLocations_NewestFirstScan(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	locationID := uuid.New()
	visitedAt := time.Now()

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "location_id", "created_at",
		"l_id", "name", "latitude", "longitude", "category", "image_url", "description", "l_created_at",
	}).AddRow(
		uuid.New(), userID, locationID, visitedAt,
		locationID, "Cathedral", 53.12176, 18.00331, models.CategoryBuilding, "", "", visitedAt.Add(-time.Hour),
	)

	mock.ExpectQuery("FROM visits v").
		WithArgs(userID).
		WillReturnRows(rows)

	visited, err := repo.GetVisitedLocations(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, visited, 1)
	assert.Equal(t, locationID, visited[0].LocationID)
	assert.Equal(t, "Cathedral", visited[0].Location.Name)
}

package geofence

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/models"
	"github.com/matthiasoo/Hacknation25/internal/pkg/geo"
)

type fakeClient struct {
	catalog    []models.LocationSummary
	catalogErr error

	visited    map[uuid.UUID]struct{}
	visitedErr error

	authed bool

	checkInCalls []uuid.UUID
	checkInErr   error
}

func (f *fakeClient) Catalog(ctx context.Context) ([]models.LocationSummary, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalog, nil
}

func (f *fakeClient) VisitedLocationIDs(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	if f.visitedErr != nil {
		return nil, f.visitedErr
	}
	if f.visited == nil {
		return map[uuid.UUID]struct{}{}, nil
	}
	return f.visited, nil
}

func (f *fakeClient) CheckIn(ctx context.Context, locationID uuid.UUID) (*models.CheckInResult, error) {
	f.checkInCalls = append(f.checkInCalls, locationID)
	if f.checkInErr != nil {
		return nil, f.checkInErr
	}
	return &models.CheckInResult{IsNewDiscovery: true, PointsAwarded: 1}, nil
}

func (f *fakeClient) Authenticated() bool {
	return f.authed
}

type fakeNotifier struct {
	alerts []models.LocationSummary
}

func (f *fakeNotifier) Notify(loc models.LocationSummary, distanceMeters float64) {
	f.alerts = append(f.alerts, loc)
}

var testThresholds = Thresholds{EnterM: 100, DiscoverM: 50, ExitM: 200}

func testLocation(name string) models.LocationSummary {
	return models.LocationSummary{
		ID:        uuid.New(),
		Name:      name,
		Latitude:  53.1210,
		Longitude: 18.0030,
		Category:  models.CategoryMemorial,
	}
}

// sampleAt returns a sample the given distance due north of loc.
func sampleAt(loc models.LocationSummary, meters float64) Sample {
	latOffset := meters / (geo.EarthRadiusM * math.Pi / 180)
	return Sample{
		Latitude:  loc.Latitude + latOffset,
		Longitude: loc.Longitude,
		Timestamp: time.Now(),
	}
}

func newTestMonitor(api Client, notifier Notifier) *Monitor {
	return NewMonitor(api, notifier, testThresholds, nil, zap.NewNop())
}

func TestMonitor_SingleCheckInAcrossDips(t *testing.T) {
	loc := testLocation("Cathedral")
	api := &fakeClient{catalog: []models.LocationSummary{loc}, authed: true}
	m := newTestMonitor(api, &fakeNotifier{})

	ctx := context.Background()
	// Approach, enter the discover radius, drift out into the hysteresis
	// band, come back in. Only the first entry may fire.
	for _, d := range []float64{500, 40, 60, 40} {
		m.Process(ctx, sampleAt(loc, d))
	}

	assert.Equal(t, []uuid.UUID{loc.ID}, api.checkInCalls)

	state, dist := m.LocationState(loc.ID)
	assert.Equal(t, StateDiscovered, state)
	assert.InDelta(t, 40, dist, 1)
}

func TestMonitor_ConfirmedVisitNeverRefires(t *testing.T) {
	loc := testLocation("Cathedral")
	api := &fakeClient{catalog: []models.LocationSummary{loc}, authed: true}
	m := newTestMonitor(api, &fakeNotifier{})

	ctx := context.Background()
	// Discover, leave past the exit threshold, come back. The visit is
	// server-confirmed, so re-entry must stay silent.
	for _, d := range []float64{40, 220, 40} {
		m.Process(ctx, sampleAt(loc, d))
	}

	assert.Len(t, api.checkInCalls, 1)

	state, _ := m.LocationState(loc.ID)
	assert.Equal(t, StateDiscovered, state)
}

func TestMonitor_ExitResetsToFar(t *testing.T) {
	loc := testLocation("Cathedral")
	api := &fakeClient{catalog: []models.LocationSummary{loc}, authed: true}
	m := newTestMonitor(api, &fakeNotifier{})

	ctx := context.Background()
	m.Process(ctx, sampleAt(loc, 80))
	state, _ := m.LocationState(loc.ID)
	require.Equal(t, StateNear, state)

	m.Process(ctx, sampleAt(loc, 220))
	state, _ = m.LocationState(loc.ID)
	assert.Equal(t, StateFar, state)
	assert.Empty(t, api.checkInCalls)
}

func TestMonitor_HysteresisBandHoldsState(t *testing.T) {
	loc := testLocation("Cathedral")
	api := &fakeClient{catalog: []models.LocationSummary{loc}, authed: true}
	m := newTestMonitor(api, &fakeNotifier{})

	ctx := context.Background()
	m.Process(ctx, sampleAt(loc, 80))
	// 150 m sits between enter (100) and exit (200): no transition.
	m.Process(ctx, sampleAt(loc, 150))

	state, _ := m.LocationState(loc.ID)
	assert.Equal(t, StateNear, state)
}

func TestMonitor_GuestAlertRearmsAfterExit(t *testing.T) {
	loc := testLocation("Cathedral")
	api := &fakeClient{catalog: []models.LocationSummary{loc}, authed: false}
	notifier := &fakeNotifier{}
	m := newTestMonitor(api, notifier)

	ctx := context.Background()
	// Two separate entries with a full exit in between. Guests get one
	// alert per entry, never one per sample.
	for _, d := range []float64{40, 45, 220, 40} {
		m.Process(ctx, sampleAt(loc, d))
	}

	assert.Empty(t, api.checkInCalls, "guest mode must never call check-in")
	assert.Len(t, notifier.alerts, 2)
}

func TestMonitor_CheckInFailureRetriesOnNextSample(t *testing.T) {
	loc := testLocation("Cathedral")
	api := &fakeClient{
		catalog:    []models.LocationSummary{loc},
		authed:     true,
		checkInErr: errors.New("server unavailable"),
	}
	m := newTestMonitor(api, &fakeNotifier{})

	ctx := context.Background()
	m.Process(ctx, sampleAt(loc, 40))

	state, _ := m.LocationState(loc.ID)
	require.Equal(t, StateNear, state, "failed check-in must not advance to discovered")
	require.Len(t, api.checkInCalls, 1)

	api.checkInErr = nil
	m.Process(ctx, sampleAt(loc, 40))

	state, _ = m.LocationState(loc.ID)
	assert.Equal(t, StateDiscovered, state)
	assert.Len(t, api.checkInCalls, 2)
}

func TestMonitor_BootstrapSeedsVisitedSet(t *testing.T) {
	loc := testLocation("Cathedral")
	api := &fakeClient{
		catalog: []models.LocationSummary{loc},
		authed:  true,
		visited: map[uuid.UUID]struct{}{loc.ID: {}},
	}
	m := newTestMonitor(api, &fakeNotifier{})

	ctx := context.Background()
	m.Bootstrap(ctx)
	m.Process(ctx, sampleAt(loc, 40))

	assert.Empty(t, api.checkInCalls, "bootstrapped visits must not re-check-in")

	state, _ := m.LocationState(loc.ID)
	assert.Equal(t, StateDiscovered, state)
}

func TestMonitor_BootstrapFailureStartsEmpty(t *testing.T) {
	loc := testLocation("Cathedral")
	api := &fakeClient{
		catalog:    []models.LocationSummary{loc},
		authed:     true,
		visitedErr: errors.New("server unavailable"),
	}
	m := newTestMonitor(api, &fakeNotifier{})

	ctx := context.Background()
	m.Bootstrap(ctx)
	m.Process(ctx, sampleAt(loc, 40))

	// With no local knowledge the monitor retries the check-in; the server
	// side makes the redundant call harmless.
	assert.Len(t, api.checkInCalls, 1)
}

func TestMonitor_CatalogFailureHoldsState(t *testing.T) {
	loc := testLocation("Cathedral")
	api := &fakeClient{catalog: []models.LocationSummary{loc}, authed: true}
	m := newTestMonitor(api, &fakeNotifier{})

	ctx := context.Background()
	m.Process(ctx, sampleAt(loc, 80))

	api.catalogErr = errors.New("server unavailable")
	m.Process(ctx, sampleAt(loc, 220))

	state, _ := m.LocationState(loc.ID)
	assert.Equal(t, StateNear, state, "a failed catalog fetch must not move state")
}

func TestMonitor_MultipleLocationsTrackedIndependently(t *testing.T) {
	near := testLocation("Cathedral")
	far := models.LocationSummary{
		ID:        uuid.New(),
		Name:      "Exploseum",
		Latitude:  53.123,
		Longitude: 17.996,
		Category:  models.CategoryMuseum,
	}
	api := &fakeClient{catalog: []models.LocationSummary{near, far}, authed: true}
	m := newTestMonitor(api, &fakeNotifier{})

	m.Process(context.Background(), sampleAt(near, 40))

	assert.Equal(t, []uuid.UUID{near.ID}, api.checkInCalls)

	farState, farDist := m.LocationState(far.ID)
	assert.Equal(t, StateFar, farState)
	assert.Greater(t, farDist, testThresholds.ExitM)
}

func TestMonitor_RunStopsOnClosedFeed(t *testing.T) {
	loc := testLocation("Cathedral")
	api := &fakeClient{catalog: []models.LocationSummary{loc}, authed: true}

	samples := make(chan Sample, 4)
	m := NewMonitor(api, &fakeNotifier{}, testThresholds, samples, zap.NewNop())

	samples <- sampleAt(loc, 40)
	close(samples)

	err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, api.checkInCalls, 1)
}

func TestMonitor_RunStopsOnContextCancel(t *testing.T) {
	api := &fakeClient{authed: true}
	samples := make(chan Sample)
	m := NewMonitor(api, &fakeNotifier{}, testThresholds, samples, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

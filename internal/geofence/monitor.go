package geofence

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/models"
	"github.com/matthiasoo/Hacknation25/internal/pkg/geo"
)

// State is the per-location proximity state.
type State int

const (
	StateFar State = iota
	StateNear
	StateDiscovered
)

func (s State) String() string {
	switch s {
	case StateNear:
		return "near"
	case StateDiscovered:
		return "discovered"
	default:
		return "far"
	}
}

// Thresholds is the hysteresis triple, in meters. Discover < Enter < Exit.
// Entering below Discover fires the check-in; only moving beyond Exit re-arms
// a zone, so standing still inside it never re-alerts.
type Thresholds struct {
	EnterM    float64
	DiscoverM float64
	ExitM     float64
}

type locationState struct {
	state        State
	lastDistance float64
	// visited is the server-confirmed discovery flag. Terminal: once set, the
	// location never triggers another check-in call.
	visited bool
	// notified marks a session-local alert for locations that could not be
	// confirmed server-side (guest mode). Cleared past the exit threshold so
	// a silent failure does not become a permanent false negative.
	notified bool
}

// Monitor owns all proximity state and consumes samples one at a time, in
// arrival order. It is not safe for concurrent use; feed it through a Feed.
type Monitor struct {
	logger     *zap.Logger
	api        Client
	notifier   Notifier
	thresholds Thresholds
	samples    <-chan Sample

	states map[uuid.UUID]*locationState
}

func NewMonitor(api Client, notifier Notifier, thresholds Thresholds, samples <-chan Sample, logger *zap.Logger) *Monitor {
	return &Monitor{
		logger:     logger,
		api:        api,
		notifier:   notifier,
		thresholds: thresholds,
		samples:    samples,
		states:     make(map[uuid.UUID]*locationState),
	}
}

// Bootstrap seeds proximity state from the server's authoritative visited
// set. On failure every location simply starts out Far; the monitor still
// runs and the check-in idempotence makes redundant calls harmless.
func (m *Monitor) Bootstrap(ctx context.Context) {
	visited, err := m.api.VisitedLocationIDs(ctx)
	if err != nil {
		m.logger.Warn("Failed to fetch visited set, starting with empty state", zap.Error(err))
		return
	}

	for id := range visited {
		st := m.stateFor(id)
		st.visited = true
		st.state = StateDiscovered
	}
	m.logger.Info("Proximity state rebuilt from server", zap.Int("visited", len(visited)))
}

// Run consumes the sample feed until the context is canceled or the feed is
// closed. No failure inside sample processing is fatal to the loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.Bootstrap(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-m.samples:
			if !ok {
				return nil
			}
			m.Process(ctx, s)
		}
	}
}

// Process evaluates one sample against every known location.
func (m *Monitor) Process(ctx context.Context, s Sample) {
	catalog, err := m.api.Catalog(ctx)
	if err != nil {
		// Hold all state; nothing to evaluate against.
		m.logger.Warn("Failed to fetch location catalog, holding state", zap.Error(err))
		return
	}

	for _, loc := range catalog {
		st := m.stateFor(loc.ID)
		dist := geo.HaversineDistance(s.Latitude, s.Longitude, loc.Latitude, loc.Longitude)
		st.lastDistance = dist
		m.advance(ctx, loc, st, dist)
	}
}

func (m *Monitor) advance(ctx context.Context, loc models.LocationSummary, st *locationState, dist float64) {
	t := m.thresholds

	switch {
	case dist < t.DiscoverM:
		m.discover(ctx, loc, st, dist)

	case dist < t.EnterM:
		if st.state == StateFar {
			st.state = StateNear
		}

	case dist >= t.ExitM:
		if st.state != StateFar {
			m.logger.Debug("Left proximity zone",
				zap.String("location", loc.Name),
				zap.Float64("distance_m", dist))
		}
		st.state = StateFar
		if !st.visited {
			// Re-arm unconfirmed alerts past the exit threshold.
			st.notified = false
		}

	default:
		// Hysteresis band between enter and exit: hold the current state.
	}
}

func (m *Monitor) discover(ctx context.Context, loc models.LocationSummary, st *locationState, dist float64) {
	if st.visited {
		st.state = StateDiscovered
		return
	}

	if !m.api.Authenticated() {
		// Guest mode: alert locally, nothing to confirm server-side.
		st.state = StateDiscovered
		if !st.notified {
			st.notified = true
			m.notifier.Notify(loc, dist)
		}
		return
	}

	result, err := m.api.CheckIn(ctx, loc.ID)
	if err != nil {
		// Not advanced to Discovered: the next qualifying sample while in
		// range retries, and the server-side idempotence makes a partially
		// applied call safe.
		st.state = StateNear
		m.logger.Warn("Check-in failed, will retry on next sample",
			zap.String("location", loc.Name),
			zap.Error(err))
		return
	}

	st.visited = true
	st.state = StateDiscovered
	if result.IsNewDiscovery {
		m.logger.Info("Checked in to location",
			zap.String("location", loc.Name),
			zap.Int("points", result.PointsAwarded))
		m.notifier.Notify(loc, dist)
	}
}

func (m *Monitor) stateFor(id uuid.UUID) *locationState {
	st, ok := m.states[id]
	if !ok {
		st = &locationState{state: StateFar}
		m.states[id] = st
	}
	return st
}

// LocationState reports the current state and last distance for a location.
func (m *Monitor) LocationState(id uuid.UUID) (State, float64) {
	st, ok := m.states[id]
	if !ok {
		return StateFar, 0
	}
	return st.state, st.lastDistance
}

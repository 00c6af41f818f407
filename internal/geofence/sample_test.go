package geofence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGate_AdmitsFirstSample(t *testing.T) {
	g := &Gate{MinMove: 10, MaxAge: 20 * time.Second}
	assert.True(t, g.Admit(Sample{Latitude: 53.1210, Longitude: 18.0030, Timestamp: time.Now()}))
}

func TestGate_RejectsSmallRecentMove(t *testing.T) {
	g := &Gate{MinMove: 10, MaxAge: 20 * time.Second}
	now := time.Now()

	require.True(t, g.Admit(Sample{Latitude: 53.1210, Longitude: 18.0030, Timestamp: now}))

	// About 2 m north, one second later.
	jitter := Sample{Latitude: 53.12102, Longitude: 18.0030, Timestamp: now.Add(time.Second)}
	assert.False(t, g.Admit(jitter))
}

func TestGate_AdmitsLargeMove(t *testing.T) {
	g := &Gate{MinMove: 10, MaxAge: 20 * time.Second}
	now := time.Now()

	require.True(t, g.Admit(Sample{Latitude: 53.1210, Longitude: 18.0030, Timestamp: now}))

	// About 55 m north.
	moved := Sample{Latitude: 53.1215, Longitude: 18.0030, Timestamp: now.Add(time.Second)}
	assert.True(t, g.Admit(moved))
}

func TestGate_AdmitsStaleSampleWithoutMovement(t *testing.T) {
	g := &Gate{MinMove: 10, MaxAge: 20 * time.Second}
	now := time.Now()

	require.True(t, g.Admit(Sample{Latitude: 53.1210, Longitude: 18.0030, Timestamp: now}))

	// Standing still must still refresh state once MaxAge passes.
	stale := Sample{Latitude: 53.1210, Longitude: 18.0030, Timestamp: now.Add(25 * time.Second)}
	assert.True(t, g.Admit(stale))
}

func TestGate_ComparesAgainstLastAdmitted(t *testing.T) {
	g := &Gate{MinMove: 10, MaxAge: time.Hour}
	now := time.Now()

	require.True(t, g.Admit(Sample{Latitude: 53.1210, Longitude: 18.0030, Timestamp: now}))

	// A run of sub-threshold steps: each is ~5 m from the last admitted
	// sample's position until the cumulative drift crosses MinMove.
	step := 0.00005 // ~5.5 m of latitude
	assert.False(t, g.Admit(Sample{Latitude: 53.1210 + step, Longitude: 18.0030, Timestamp: now.Add(time.Second)}))
	assert.True(t, g.Admit(Sample{Latitude: 53.1210 + 2*step, Longitude: 18.0030, Timestamp: now.Add(2 * time.Second)}))
}

func TestFeed_DropsInvalidCoordinates(t *testing.T) {
	f := NewFeed(4, Gate{MinMove: 10, MaxAge: 20 * time.Second}, zap.NewNop())

	f.Push(Sample{Latitude: 91, Longitude: 0, Timestamp: time.Now()})
	f.Push(Sample{Latitude: 0, Longitude: -181, Timestamp: time.Now()})

	assert.Empty(t, f.Samples())
}

func TestFeed_ForwardsAdmittedSamples(t *testing.T) {
	f := NewFeed(4, Gate{MinMove: 10, MaxAge: 20 * time.Second}, zap.NewNop())
	now := time.Now()

	f.Push(Sample{Latitude: 53.1210, Longitude: 18.0030, Timestamp: now})
	f.Push(Sample{Latitude: 53.1215, Longitude: 18.0030, Timestamp: now.Add(time.Second)})
	// Jitter next to the last admitted sample is filtered out.
	f.Push(Sample{Latitude: 53.12151, Longitude: 18.0030, Timestamp: now.Add(2 * time.Second)})

	assert.Len(t, f.Samples(), 2)
}

func TestFeed_DropsWhenBufferFull(t *testing.T) {
	f := NewFeed(1, Gate{MinMove: 10, MaxAge: 20 * time.Second}, zap.NewNop())
	now := time.Now()

	f.Push(Sample{Latitude: 53.1210, Longitude: 18.0030, Timestamp: now})
	f.Push(Sample{Latitude: 53.1310, Longitude: 18.0030, Timestamp: now.Add(time.Second)})

	require.Len(t, f.Samples(), 1)
	got := <-f.Samples()
	assert.InDelta(t, 53.1210, got.Latitude, 1e-9)
}

func TestFeed_CloseEndsConsumption(t *testing.T) {
	f := NewFeed(4, Gate{MinMove: 10, MaxAge: 20 * time.Second}, zap.NewNop())
	f.Close()

	_, ok := <-f.Samples()
	assert.False(t, ok)
}

package geofence

import (
	"time"

	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/pkg/geo"
)

// Sample is one raw position fix from the platform's location source.
type Sample struct {
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

// Gate filters raw samples down to the cadence the monitor actually needs: a
// sample passes when the device moved at least MinMove meters since the last
// admitted sample, or MaxAge has elapsed, whichever comes first. This bounds
// both detection latency and the per-sample evaluation cost; it is a tuning
// knob, not a correctness parameter.
type Gate struct {
	MinMove float64
	MaxAge  time.Duration

	last    Sample
	hasLast bool
}

// Admit reports whether s should be forwarded to the monitor.
func (g *Gate) Admit(s Sample) bool {
	if !g.hasLast {
		g.last = s
		g.hasLast = true
		return true
	}

	moved := geo.HaversineDistance(g.last.Latitude, g.last.Longitude, s.Latitude, s.Longitude)
	aged := s.Timestamp.Sub(g.last.Timestamp)

	if moved >= g.MinMove || aged >= g.MaxAge {
		g.last = s
		return true
	}
	return false
}

// Feed is the bounded queue between the platform's push-style location
// callbacks and the monitor's single-consumer loop. Keeping the handoff in a
// channel means no lock is ever needed around proximity state.
type Feed struct {
	ch     chan Sample
	gate   Gate
	logger *zap.Logger
}

func NewFeed(buffer int, gate Gate, logger *zap.Logger) *Feed {
	if buffer <= 0 {
		buffer = 64
	}
	return &Feed{
		ch:     make(chan Sample, buffer),
		gate:   gate,
		logger: logger,
	}
}

// Push offers a raw sample to the feed. Samples rejected by the gate or
// arriving while the buffer is full are dropped; a later sample supersedes
// them anyway.
func (f *Feed) Push(s Sample) {
	if !geo.ValidateCoordinates(s.Latitude, s.Longitude) {
		f.logger.Warn("Dropping sample with invalid coordinates",
			zap.Float64("lat", s.Latitude),
			zap.Float64("lon", s.Longitude))
		return
	}
	if !f.gate.Admit(s) {
		return
	}

	select {
	case f.ch <- s:
	default:
		f.logger.Warn("Sample buffer full, dropping sample")
	}
}

// Samples exposes the consumer side of the feed.
func (f *Feed) Samples() <-chan Sample {
	return f.ch
}

// Close stops the feed. Push must not be called afterwards.
func (f *Feed) Close() {
	close(f.ch)
}

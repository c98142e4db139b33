// Package latency simulates backend round trips for the in-memory stores.
package latency

import (
	"context"
	"time"
)

// Simulator delays repository calls by a fixed duration. The zero value adds
// no delay.
type Simulator struct {
	delay time.Duration
}

// New returns a simulator waiting d per call.
func New(d time.Duration) Simulator {
	if d < 0 {
		d = 0
	}
	return Simulator{delay: d}
}

// Wait blocks for the configured delay or until ctx is done.
func (s Simulator) Wait(ctx context.Context) error {
	if s.delay == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package latency simulates the round-trip delay of a remote library backend.
package latency

import (
	"context"
	"time"
)

// Typical delays observed by the mobile client.
const (
	Fast   = 300 * time.Millisecond
	Read   = 500 * time.Millisecond
	Commit = 1000 * time.Millisecond
)

// Simulator delays calls when enabled. The zero value is disabled.
type Simulator struct {
	enabled bool
	scale   float64
}

// Disabled never waits.
var Disabled = Simulator{}

// New returns a simulator that waits the full delay when enabled.
func New(enabled bool) Simulator {
	return Simulator{enabled: enabled, scale: 1}
}

// Scaled returns a copy whose delays are multiplied by factor.
func (s Simulator) Scaled(factor float64) Simulator {
	if factor < 0 {
		factor = 0
	}
	s.scale = factor
	return s
}

// Enabled reports whether Wait actually sleeps.
func (s Simulator) Enabled() bool {
	return s.enabled && s.scale > 0
}

// Wait blocks for d, or until ctx is done.
func (s Simulator) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Enabled() || d <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(float64(d) * s.scale))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

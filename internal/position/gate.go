package position

import (
	"context"
	"fmt"
	"time"
)

// Gate checks a remote position against the device's own current fix
type Gate struct {
	Source     Source
	Threshold  float64
	FixTimeout time.Duration
	MaxAge     time.Duration
}

// NewGate creates a gate with the default threshold and receiver timings
func NewGate(src Source) *Gate {
	return &Gate{
		Source:     src,
		Threshold:  DefaultProximityThreshold,
		FixTimeout: DefaultFixTimeout,
		MaxAge:     DefaultFixMaxAge,
	}
}

// Check reports whether remote is within the threshold of the local fix.
// The returned distance is meaningful only when err is nil.
func (g *Gate) Check(ctx context.Context, remote Coordinates) (bool, float64, error) {
	if g.FixTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.FixTimeout)
		defer cancel()
	}

	fix, err := g.Source.CurrentFix(ctx, g.FixTimeout, g.MaxAge)
	if err != nil {
		return false, 0, fmt.Errorf("failed to get current fix: %w", err)
	}

	distance := DistanceMeters(fix.Coordinates, remote)
	return distance <= g.Threshold, distance, nil
}

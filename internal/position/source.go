package position

import (
	"context"
	"errors"
	"time"
)

//go:generate moq -out source_mock.go . Source

// Receiver defaults
const (
	DefaultFixTimeout     = 15 * time.Second
	DefaultFixMaxAge      = 10 * time.Second
	DefaultWatchInterval  = 5 * time.Second
	DefaultDistanceFilter = 10.0
)

var (
	ErrPermissionDenied = errors.New("position permission denied")
	ErrNoFix            = errors.New("no position fix available")
	ErrTimeout          = errors.New("position fix timed out")
)

// Fix is one reading of the receiver
type Fix struct {
	Timestamp time.Time `json:"timestamp"`
	Coordinates
	Accuracy float64 `json:"accuracy"` // meters
}

// Source абстракция приемника координат устройства
type Source interface {
	// RequestPermission returns false if the user refused access to the receiver
	RequestPermission(ctx context.Context) bool
	// CurrentFix returns a reading not older than maxAge, waiting at most timeout for it
	CurrentFix(ctx context.Context, timeout, maxAge time.Duration) (Fix, error)
	// Watch calls onUpdate every interval when the device moved at least
	// distanceFilter meters. A second Watch replaces the first one.
	Watch(interval time.Duration, distanceFilter float64, onUpdate func(Fix)) error
	// StopWatch is safe to call when nothing is watched
	StopWatch()
}

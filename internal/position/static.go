package position

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Static is a Source for devices without a receiver: the position is
// configured (or updated by SetFix) and every reading is taken from it.
type Static struct {
	clock  clockwork.Clock
	logger *slog.Logger
	stop   chan struct{}
	done   chan struct{}
	fix    Fix
	mu     sync.Mutex
	hasFix bool
	denied bool
}

// StaticOption configures a Static source
type StaticOption func(*Static)

// WithClock replaces the wall clock, used by tests
func WithClock(clock clockwork.Clock) StaticOption {
	return func(s *Static) {
		s.clock = clock
	}
}

// WithFix sets the initial position
func WithFix(c Coordinates, accuracy float64) StaticOption {
	return func(s *Static) {
		s.fix = Fix{Coordinates: c, Accuracy: accuracy}
		s.hasFix = true
	}
}

// WithPermissionDenied simulates a user refusing location access
func WithPermissionDenied() StaticOption {
	return func(s *Static) {
		s.denied = true
	}
}

// NewStatic creates a static source
func NewStatic(logger *slog.Logger, opts ...StaticOption) *Static {
	s := &Static{
		clock:  clockwork.NewRealClock(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasFix {
		s.fix.Timestamp = s.clock.Now()
	}
	return s
}

// SetFix moves the device
func (s *Static) SetFix(c Coordinates, accuracy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fix = Fix{Coordinates: c, Accuracy: accuracy, Timestamp: s.clock.Now()}
	s.hasFix = true
}

func (s *Static) RequestPermission(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.denied {
		s.logger.Warn("Location permission denied")
	}
	return !s.denied
}

// CurrentFix returns the configured position. A reading older than maxAge
// is re-taken, which for a static receiver only refreshes its timestamp.
func (s *Static) CurrentFix(ctx context.Context, timeout, maxAge time.Duration) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.denied {
		return Fix{}, ErrPermissionDenied
	}
	if !s.hasFix {
		return Fix{}, ErrNoFix
	}

	if maxAge <= 0 || s.clock.Since(s.fix.Timestamp) > maxAge {
		s.fix.Timestamp = s.clock.Now()
	}
	return s.fix, nil
}

func (s *Static) Watch(interval time.Duration, distanceFilter float64, onUpdate func(Fix)) error {
	s.StopWatch()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.denied {
		return ErrPermissionDenied
	}
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	ticker := s.clock.NewTicker(interval)

	go s.watchLoop(ticker, distanceFilter, onUpdate, s.stop, s.done)
	return nil
}

func (s *Static) watchLoop(ticker clockwork.Ticker, distanceFilter float64, onUpdate func(Fix), stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	var (
		last      Coordinates
		delivered bool
	)
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.Chan():
			s.mu.Lock()
			fix, ok := s.fix, s.hasFix
			if ok {
				s.fix.Timestamp = now
				fix.Timestamp = now
			}
			s.mu.Unlock()

			if !ok {
				continue
			}
			// фильтр по расстоянию, как у настоящего приемника
			if delivered && DistanceMeters(last, fix.Coordinates) < distanceFilter {
				continue
			}
			last, delivered = fix.Coordinates, true
			onUpdate(fix)
		}
	}
}

func (s *Static) StopWatch() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

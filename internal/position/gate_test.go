package position

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Check(t *testing.T) {
	src := &SourceMock{
		CurrentFixFunc: func(ctx context.Context, timeout, maxAge time.Duration) (Fix, error) {
			return Fix{Coordinates: corral, Accuracy: 4}, nil
		},
	}
	gate := NewGate(src)

	tests := []struct {
		name   string
		remote Coordinates
		want   bool
	}{
		{name: "same corral", remote: Coordinates{Latitude: 65.00045, Longitude: 25.0}, want: true},
		{name: "other side of the fell", remote: Coordinates{Latitude: 65.0045, Longitude: 25.0}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, distance, err := gate.Check(context.Background(), tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.InDelta(t, DistanceMeters(corral, tt.remote), distance, 1e-9)
		})
	}

	require.Len(t, src.CurrentFixCalls(), 2)
	assert.Equal(t, DefaultFixTimeout, src.CurrentFixCalls()[0].Timeout)
	assert.Equal(t, DefaultFixMaxAge, src.CurrentFixCalls()[0].MaxAge)
}

func TestGate_CheckSourceError(t *testing.T) {
	gate := NewGate(&SourceMock{
		CurrentFixFunc: func(ctx context.Context, timeout, maxAge time.Duration) (Fix, error) {
			return Fix{}, ErrTimeout
		},
	})

	ok, _, err := gate.Check(context.Background(), corral)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestGate_CustomThreshold(t *testing.T) {
	gate := &Gate{
		Source: NewStatic(testLogger(), WithFix(corral, 5)),
		// без таймаута: контекст не ограничивается
		Threshold: 1000,
	}

	ok, _, err := gate.Check(context.Background(), Coordinates{Latitude: 65.0045, Longitude: 25.0})
	require.NoError(t, err)
	assert.True(t, ok)
}

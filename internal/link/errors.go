package link

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTimeout          = errors.New("link timeout")
	ErrNotFound         = errors.New("peer not found")
	ErrNotConnected     = errors.New("peer not connected")
	ErrTransportFailure = errors.New("transport failure")
	ErrPermissionDenied = errors.New("link permission denied")
	ErrClosed           = errors.New("link manager closed")
)

// classify maps a transport error to one of the link errors
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNotConnected),
		errors.Is(err, ErrTransportFailure),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrClosed):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}
}

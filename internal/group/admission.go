// Package group manages join requests to a marking group. A request is
// admitted only when the requesting device stood next to the host.
package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/vasasync/internal/models"
	"github.com/iudanet/vasasync/internal/position"
)

var (
	ErrAlreadyMember    = errors.New("user is already a member")
	ErrAlreadyPending   = errors.New("join request already pending")
	ErrNoPendingRequest = errors.New("no pending join request")
	ErrMissingLocation  = errors.New("join request has no location")
	ErrNotInProximity   = errors.New("requester is not in proximity of the host")
	ErrGroupInactive    = errors.New("group is not active")
)

// ProximityChecker проверяет координаты относительно текущей позиции хоста
type ProximityChecker interface {
	Check(ctx context.Context, remote position.Coordinates) (bool, float64, error)
}

// Admission applies join requests to groups owned by this device
type Admission struct {
	gate   ProximityChecker
	logger *slog.Logger
	now    func() time.Time
}

// NewAdmission creates an admission service
func NewAdmission(gate ProximityChecker, logger *slog.Logger) *Admission {
	return &Admission{
		gate:   gate,
		logger: logger,
		now:    time.Now,
	}
}

// RequestJoin records a join request in the group's pending list
func (a *Admission) RequestJoin(g *models.Group, userID, username string, loc *models.Location) error {
	if !g.Active {
		return ErrGroupInactive
	}
	if g.IsMember(userID) {
		return ErrAlreadyMember
	}
	if _, ok := g.PendingRequest(userID); ok {
		return ErrAlreadyPending
	}

	g.PendingMembers = append(g.PendingMembers, models.JoinRequest{
		UserID:      userID,
		Username:    username,
		RequestedAt: a.now().UTC(),
		Location:    loc,
	})

	a.logger.Info("Join request recorded", "group_id", g.ID, "user_id", userID)
	return nil
}

// Admit moves the pending request of userID into the member list if the
// location recorded with the request is within proximity of the host
func (a *Admission) Admit(ctx context.Context, g *models.Group, userID string) error {
	if g.IsMember(userID) {
		return ErrAlreadyMember
	}

	req, ok := g.PendingRequest(userID)
	if !ok {
		return ErrNoPendingRequest
	}
	if req.Location == nil {
		return ErrMissingLocation
	}

	near, distance, err := a.gate.Check(ctx, position.Coordinates{
		Latitude:  req.Location.Latitude,
		Longitude: req.Location.Longitude,
	})
	if err != nil {
		return fmt.Errorf("failed to check proximity: %w", err)
	}
	if !near {
		a.logger.Warn("Join request rejected by proximity",
			"group_id", g.ID,
			"user_id", userID,
			"distance_m", distance,
		)
		return fmt.Errorf("%w: %.0fm", ErrNotInProximity, distance)
	}

	removePending(g, userID)
	g.Members = append(g.Members, userID)

	a.logger.Info("Member admitted", "group_id", g.ID, "user_id", userID, "distance_m", distance)
	return nil
}

// Reject drops the pending request of userID
func (a *Admission) Reject(g *models.Group, userID string) error {
	if !removePending(g, userID) {
		return ErrNoPendingRequest
	}
	a.logger.Info("Join request rejected", "group_id", g.ID, "user_id", userID)
	return nil
}

func removePending(g *models.Group, userID string) bool {
	for i, r := range g.PendingMembers {
		if r.UserID == userID {
			g.PendingMembers = append(g.PendingMembers[:i], g.PendingMembers[i+1:]...)
			return true
		}
	}
	return false
}

package models

import (
	"slices"
	"time"
)

// Location географические координаты в градусах
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// JoinRequest представляет запрос на вступление в группу.
// Location фиксирует, где находился пользователь в момент запроса.
type JoinRequest struct {
	RequestedAt time.Time `json:"requestedAt"`
	Location    *Location `json:"location,omitempty"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
}

// Group представляет группу маркировки (vasausryhmä).
// Владелец группы является хостом синхронизации.
type Group struct {
	CreatedAt      time.Time     `json:"createdAt"`
	Location       *Location     `json:"location,omitempty"`
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	OwnerID        string        `json:"ownerId"`
	OwnerName      string        `json:"ownerName"`
	Members        []string      `json:"members"`
	PendingMembers []JoinRequest `json:"pendingMembers"`
	Active         bool          `json:"active"`
}

// IsMember reports whether userID belongs to the group. The owner is always a member.
func (g *Group) IsMember(userID string) bool {
	return userID == g.OwnerID || slices.Contains(g.Members, userID)
}

// PendingRequest возвращает ожидающий запрос пользователя, если он есть
func (g *Group) PendingRequest(userID string) (JoinRequest, bool) {
	for _, r := range g.PendingMembers {
		if r.UserID == userID {
			return r, true
		}
	}
	return JoinRequest{}, false
}

package sync

import "errors"

var (
	// ErrPermissionDenied transport or position permission was not granted
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotInitialized engine is used before Initialize
	ErrNotInitialized = errors.New("sync engine not initialized")
	// ErrRoleActive hosting or joining while another role is bound
	ErrRoleActive = errors.New("a group role is already active")
	// ErrNotMember operation requires the member role
	ErrNotMember = errors.New("not a group member")
	// ErrNotConnected no link to a host is up
	ErrNotConnected = errors.New("not connected to a host")
	// ErrGroupMismatch entry belongs to another group than the active one
	ErrGroupMismatch = errors.New("entry belongs to another group")
	// ErrInvalidEntry entry is nil or has no id
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrDestroyed engine resources have been released
	ErrDestroyed = errors.New("sync engine destroyed")
)

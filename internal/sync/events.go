package sync

import "github.com/iudanet/vasasync/internal/models"

// State of the role state machine
type State int

const (
	StateUninitialized State = iota
	StateIdle
	StateHosting
	StateJoining
	StateMember
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	case StateHosting:
		return "hosting"
	case StateJoining:
		return "joining"
	case StateMember:
		return "member"
	default:
		return "unknown"
	}
}

// EventType kind of engine event
type EventType int

const (
	EventDeviceConnected EventType = iota + 1
	EventDeviceDisconnected
	EventEntryReceived
	EventSyncComplete
	EventSyncError
)

func (t EventType) String() string {
	switch t {
	case EventDeviceConnected:
		return "device_connected"
	case EventDeviceDisconnected:
		return "device_disconnected"
	case EventEntryReceived:
		return "entry_received"
	case EventSyncComplete:
		return "sync_complete"
	case EventSyncError:
		return "sync_error"
	default:
		return "unknown"
	}
}

// Event is delivered to every subscriber
type Event struct {
	Err    error         // Err для EventSyncError
	Entry  *models.Entry // Entry для EventEntryReceived
	PeerID string        // PeerID устройство, к которому относится событие
	Type   EventType
}

package link

import "time"

// State of a peer link
type State int

const (
	StateDiscovered State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// PeerLink describes the link to one peer
type PeerLink struct {
	LastSeenAt time.Time
	PeerID     string
	State      State
}

// EventType типы событий менеджера
type EventType int

const (
	EventDiscovered EventType = iota + 1
	EventConnected
	EventDisconnected
	EventReceived
	EventConnectFailed
)

func (t EventType) String() string {
	switch t {
	case EventDiscovered:
		return "discovered"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventReceived:
		return "received"
	case EventConnectFailed:
		return "connect_failed"
	default:
		return "unknown"
	}
}

// Event is emitted by the Manager. Peer is set for EventDiscovered,
// Data for EventReceived and Err for EventConnectFailed.
type Event struct {
	Err    error
	Peer   DiscoveredPeer
	PeerID string
	Data   []byte
	Type   EventType
}

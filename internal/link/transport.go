// Package link maintains discovery and connection lifecycle over a
// pluggable transport and presents a peer-addressed send/receive surface.
package link

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Identifiers advertised by every device running the application
const (
	ServiceID        = "00001234-0000-1000-8000-00805f9b34fb"
	CharacteristicID = "00001235-0000-1000-8000-00805f9b34fb"
	NamePrefix       = "VasaApp_"
)

// Policy defaults
const (
	DefaultScanWindow     = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
)

// DiscoveredPeer is a device seen while scanning.
// GroupID is empty when the transport cannot advertise one.
type DiscoveredPeer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"groupId,omitempty"`
}

// Advertisement is what a hosting device broadcasts
type Advertisement struct {
	Name      string `json:"name"`
	GroupID   string `json:"groupId,omitempty"`
	ServiceID string `json:"serviceId"`
}

// Connection is an established link to one peer
type Connection interface {
	PeerID() string
	// Notifications delivers inbound payloads in order.
	// The channel is closed when the link is lost or disconnected.
	Notifications() <-chan []byte
}

// Transport адаптер конкретной среды передачи (радио, сеть, память)
type Transport interface {
	Initialize(ctx context.Context) error
	RequestPermissions(ctx context.Context) bool
	// StartScan reports peers advertising serviceID until StopScan is
	// called or ctx is done; the channel is closed then.
	StartScan(ctx context.Context, serviceID string) (<-chan DiscoveredPeer, error)
	StopScan()
	Connect(ctx context.Context, peerID string, timeout time.Duration) (Connection, error)
	Send(ctx context.Context, conn Connection, data []byte) error
	Disconnect(conn Connection) error
	Shutdown() error
}

// Advertiser is implemented by transports that can make the device discoverable
type Advertiser interface {
	StartAdvertising(adv Advertisement) error
	StopAdvertising()
}

// Acceptor is implemented by transports that accept inbound connections
type Acceptor interface {
	Incoming() <-chan Connection
}

// DeviceName generates the advertised name of this device
func DeviceName() string {
	return NamePrefix + uuid.NewString()[:8]
}

package sync

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/iudanet/vasasync/internal/link"
)

// Defaults
const (
	DefaultPingInterval = 60 * time.Second
	DefaultPushDelay    = 100 * time.Millisecond
	DefaultEventBuffer  = 64
)

// Config holds the engine policy constants
type Config struct {
	// ServiceID is advertised while hosting
	ServiceID string
	// NamePrefix marks app devices; the hosting name is NamePrefix + userID
	NamePrefix string
	// PingInterval between liveness pings sent by the host
	PingInterval time.Duration
	// PushDelay between entries pushed in answer to a SyncRequest; 0 disables it
	PushDelay time.Duration
	// EventBuffer capacity of every subscriber channel
	EventBuffer int
}

// DefaultConfig returns the configuration used by the mobile application
func DefaultConfig() Config {
	return Config{
		ServiceID:    link.ServiceID,
		NamePrefix:   link.NamePrefix,
		PingInterval: DefaultPingInterval,
		PushDelay:    DefaultPushDelay,
		EventBuffer:  DefaultEventBuffer,
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithConfig replaces the default configuration. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		def := DefaultConfig()
		if cfg.ServiceID == "" {
			cfg.ServiceID = def.ServiceID
		}
		if cfg.NamePrefix == "" {
			cfg.NamePrefix = def.NamePrefix
		}
		if cfg.PingInterval <= 0 {
			cfg.PingInterval = def.PingInterval
		}
		if cfg.PushDelay < 0 {
			cfg.PushDelay = 0
		}
		if cfg.EventBuffer <= 0 {
			cfg.EventBuffer = def.EventBuffer
		}
		e.cfg = cfg
	}
}

// WithClock replaces the wall clock used for pings and push pacing
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithPeerSelector overrides which discovered host a member connects to.
// By default a member connects to the first host advertising its group.
func WithPeerSelector(sel link.PeerSelector) Option {
	return func(e *Engine) {
		e.selector = sel
	}
}

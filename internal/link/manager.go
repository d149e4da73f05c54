package link

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const defaultEventBuffer = 64

// Manager owns the discovered peer set and the connected links.
// All outcomes are reported on the Events channel; events of one link
// arrive in the order the transport delivered them.
type Manager struct {
	transport  Transport
	clock      clockwork.Clock
	ctx        context.Context
	logger     *slog.Logger
	events     chan Event
	selector   PeerSelector
	discovered map[string]DiscoveredPeer
	links      map[string]*linkEntry
	connecting map[string]bool
	scanCancel context.CancelFunc
	scanDone   chan struct{}
	cancel     context.CancelFunc
	serviceID  string
	order      []string
	wg         sync.WaitGroup
	scanWindow time.Duration
	timeout    time.Duration
	mu         sync.Mutex
	emitMu     sync.RWMutex
	closed     bool
	eventsDone bool
}

type linkEntry struct {
	conn Connection
	link PeerLink
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces the wall clock used for the scan window
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithScanWindow sets how long discovery runs before stopping itself
func WithScanWindow(d time.Duration) Option {
	return func(m *Manager) {
		m.scanWindow = d
	}
}

// WithConnectTimeout bounds every Connect call
func WithConnectTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.timeout = d
	}
}

// WithServiceID sets the service identifier scanned for
func WithServiceID(id string) Option {
	return func(m *Manager) {
		m.serviceID = id
	}
}

// WithPeerSelector enables connecting automatically on discovery
func WithPeerSelector(sel PeerSelector) Option {
	return func(m *Manager) {
		m.selector = sel
	}
}

// WithEventBuffer sets the capacity of the Events channel
func WithEventBuffer(n int) Option {
	return func(m *Manager) {
		m.events = make(chan Event, n)
	}
}

// NewManager creates a link manager over transport.
// Inbound connections of an Acceptor transport become links immediately.
func NewManager(transport Transport, logger *slog.Logger, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		transport:  transport,
		clock:      clockwork.NewRealClock(),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		events:     make(chan Event, defaultEventBuffer),
		discovered: make(map[string]DiscoveredPeer),
		links:      make(map[string]*linkEntry),
		connecting: make(map[string]bool),
		serviceID:  ServiceID,
		scanWindow: DefaultScanWindow,
		timeout:    DefaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}

	if acc, ok := transport.(Acceptor); ok {
		m.wg.Add(1)
		go m.acceptLoop(acc.Incoming())
	}

	return m
}

// Events returns the channel all link events are delivered on.
// It is closed by Close.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Initialize requests transport permissions and powers the transport up
func (m *Manager) Initialize(ctx context.Context) error {
	if !m.transport.RequestPermissions(ctx) {
		return ErrPermissionDenied
	}
	if err := m.transport.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize transport: %w", classify(err))
	}
	return nil
}

// SetPeerSelector replaces the auto-connect policy; nil disables auto-connect
func (m *Manager) SetPeerSelector(sel PeerSelector) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.selector = sel
}

// StartDiscovery begins scanning. It is a no-op while a scan is running.
// The scan stops itself after the scan window.
func (m *Manager) StartDiscovery(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.scanCancel != nil {
		return nil
	}

	// новый скан начинается с пустого списка
	clear(m.discovered)
	m.order = m.order[:0]

	scanCtx, cancel := context.WithCancel(m.ctx)
	peers, err := m.transport.StartScan(scanCtx, m.serviceID)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start scan: %w", classify(err))
	}

	done := make(chan struct{})
	m.scanCancel = cancel
	m.scanDone = done
	timer := m.clock.NewTimer(m.scanWindow)

	m.wg.Add(1)
	go m.scanLoop(scanCtx, peers, timer, done)

	m.logger.Info("Discovery started", "service_id", m.serviceID, "window", m.scanWindow)
	return nil
}

// StopDiscovery cancels a running scan; no-op if not scanning
func (m *Manager) StopDiscovery() {
	m.mu.Lock()
	cancel, done := m.scanCancel, m.scanDone
	m.scanCancel, m.scanDone = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.transport.StopScan()
	<-done

	m.logger.Info("Discovery stopped")
}

// Scanning reports whether discovery is running
func (m *Manager) Scanning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.scanCancel != nil
}

func (m *Manager) scanLoop(ctx context.Context, peers <-chan DiscoveredPeer, timer clockwork.Timer, done chan struct{}) {
	defer m.wg.Done()
	defer close(done)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.Chan():
			m.logger.Info("Scan window elapsed")
			m.endScan(done)
			return
		case p, ok := <-peers:
			if !ok {
				m.endScan(done)
				return
			}
			m.handleDiscovered(ctx, p)
		}
	}
}

// endScan releases the scan state from inside the scan loop
func (m *Manager) endScan(done chan struct{}) {
	m.mu.Lock()
	if m.scanDone != done {
		m.mu.Unlock()
		return
	}
	cancel := m.scanCancel
	m.scanCancel, m.scanDone = nil, nil
	m.mu.Unlock()

	cancel()
	m.transport.StopScan()
}

func (m *Manager) handleDiscovered(ctx context.Context, p DiscoveredPeer) {
	m.mu.Lock()
	if _, seen := m.discovered[p.ID]; seen {
		m.mu.Unlock()
		return
	}
	m.discovered[p.ID] = p
	m.order = append(m.order, p.ID)

	peers := make([]DiscoveredPeer, 0, len(m.order))
	for _, id := range m.order {
		peers = append(peers, m.discovered[id])
	}
	sel := m.selector
	m.mu.Unlock()

	m.logger.Debug("Peer discovered", "peer_id", p.ID, "name", p.Name, "group_id", p.GroupID)
	m.emit(ctx, Event{Type: EventDiscovered, PeerID: p.ID, Peer: p})

	if sel == nil {
		return
	}
	id, ok := sel(peers)
	if !ok {
		return
	}

	m.mu.Lock()
	_, linked := m.links[id]
	busy := linked || m.connecting[id] || m.closed
	m.mu.Unlock()
	if busy {
		return
	}

	// Connect останавливает скан и ждет scanLoop, поэтому отдельная горутина
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if _, err := m.Connect(m.ctx, id); err != nil {
			m.logger.Warn("Auto-connect failed", "peer_id", id, "error", err)
			m.emit(m.ctx, Event{Type: EventConnectFailed, PeerID: id, Err: err})
		}
	}()
}

// Discovered returns the peers seen by the current or last scan in discovery order
func (m *Manager) Discovered() []DiscoveredPeer {
	m.mu.Lock()
	defer m.mu.Unlock()

	peers := make([]DiscoveredPeer, 0, len(m.order))
	for _, id := range m.order {
		peers = append(peers, m.discovered[id])
	}
	return peers
}

// Connect establishes a link to a discovered peer. Scanning is stopped first.
// Returns ErrNotFound for an unknown peer and ErrTimeout when the transport
// does not complete within the connect timeout.
func (m *Manager) Connect(ctx context.Context, peerID string) (PeerLink, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return PeerLink{}, ErrClosed
	}
	if e, ok := m.links[peerID]; ok {
		pl := e.link
		m.mu.Unlock()
		return pl, nil
	}
	if _, ok := m.discovered[peerID]; !ok {
		m.mu.Unlock()
		return PeerLink{}, fmt.Errorf("%w: %s", ErrNotFound, peerID)
	}
	if m.connecting[peerID] {
		m.mu.Unlock()
		return PeerLink{}, fmt.Errorf("%w: connect to %s already in progress", ErrTransportFailure, peerID)
	}
	m.connecting[peerID] = true
	m.mu.Unlock()

	m.StopDiscovery()

	m.logger.Info("Connecting", "peer_id", peerID, "timeout", m.timeout)

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	conn, err := m.transport.Connect(cctx, peerID, m.timeout)

	m.mu.Lock()
	delete(m.connecting, peerID)
	if err != nil {
		m.mu.Unlock()
		if ctx.Err() != nil {
			return PeerLink{}, ctx.Err()
		}
		return PeerLink{}, fmt.Errorf("failed to connect to %s: %w", peerID, classify(err))
	}
	if m.closed {
		m.mu.Unlock()
		_ = m.transport.Disconnect(conn)
		return PeerLink{}, ErrClosed
	}
	e, replaced := m.addLinkLocked(conn)
	// readLoop обновляет LastSeenAt под mu, копия снимается до разблокировки
	pl := e.link
	m.mu.Unlock()

	m.afterLinked(e, replaced)
	return pl, nil
}

func (m *Manager) acceptLoop(incoming <-chan Connection) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case conn, ok := <-incoming:
			if !ok {
				return
			}

			m.mu.Lock()
			if m.closed {
				m.mu.Unlock()
				_ = m.transport.Disconnect(conn)
				continue
			}
			e, replaced := m.addLinkLocked(conn)
			m.mu.Unlock()

			m.logger.Info("Inbound link accepted", "peer_id", e.link.PeerID)
			m.afterLinked(e, replaced)
		}
	}
}

// addLinkLocked registers conn. A previous link to the same peer is returned
// for the caller to tear down outside the lock.
func (m *Manager) addLinkLocked(conn Connection) (*linkEntry, *linkEntry) {
	e := &linkEntry{
		conn: conn,
		link: PeerLink{
			PeerID:     conn.PeerID(),
			State:      StateConnected,
			LastSeenAt: m.clock.Now(),
		},
	}
	old := m.links[e.link.PeerID]
	m.links[e.link.PeerID] = e

	// reader учитывается в wg под локом, чтобы Close его не пропустил
	m.wg.Add(1)

	return e, old
}

// afterLinked reports the link and only then starts its reader, so
// EventConnected always precedes the link's first EventReceived
func (m *Manager) afterLinked(e, replaced *linkEntry) {
	if replaced != nil {
		if err := m.transport.Disconnect(replaced.conn); err != nil {
			m.logger.Debug("Failed to drop replaced link", "peer_id", e.link.PeerID, "error", err)
		}
	}

	m.logger.Info("Peer connected", "peer_id", e.link.PeerID)
	m.emit(m.ctx, Event{Type: EventConnected, PeerID: e.link.PeerID})

	go m.readLoop(e.conn)
}

// readLoop forwards one link's notifications in order until the link closes
func (m *Manager) readLoop(conn Connection) {
	defer m.wg.Done()

	peerID := conn.PeerID()
	for data := range conn.Notifications() {
		m.mu.Lock()
		if e, ok := m.links[peerID]; ok && e.conn == conn {
			e.link.LastSeenAt = m.clock.Now()
		}
		m.mu.Unlock()

		m.emit(m.ctx, Event{Type: EventReceived, PeerID: peerID, Data: data})
	}

	m.mu.Lock()
	e, ok := m.links[peerID]
	lost := ok && e.conn == conn
	if lost {
		delete(m.links, peerID)
	}
	m.mu.Unlock()

	if lost {
		m.logger.Info("Link lost", "peer_id", peerID)
		m.emit(m.ctx, Event{Type: EventDisconnected, PeerID: peerID})
	}
}

// Send writes data to the link of peerID
func (m *Manager) Send(ctx context.Context, peerID string, data []byte) error {
	m.mu.Lock()
	e, ok := m.links[peerID]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, peerID)
	}

	if err := m.transport.Send(ctx, e.conn, data); err != nil {
		return fmt.Errorf("failed to send to %s: %w", peerID, classify(err))
	}
	return nil
}

// Disconnect tears down the link to peerID. Transport errors are only logged.
func (m *Manager) Disconnect(peerID string) {
	m.mu.Lock()
	e, ok := m.links[peerID]
	delete(m.links, peerID)
	m.mu.Unlock()

	if !ok {
		return
	}
	m.teardown(e)
}

// DisconnectAll tears down every link concurrently
func (m *Manager) DisconnectAll() {
	m.mu.Lock()
	entries := make([]*linkEntry, 0, len(m.links))
	for _, e := range m.links {
		entries = append(entries, e)
	}
	clear(m.links)
	m.mu.Unlock()

	var g errgroup.Group
	for _, e := range entries {
		g.Go(func() error {
			m.teardown(e)
			return nil
		})
	}
	_ = g.Wait()
}

func (m *Manager) teardown(e *linkEntry) {
	if err := m.transport.Disconnect(e.conn); err != nil {
		m.logger.Warn("Disconnect failed", "peer_id", e.link.PeerID, "error", err)
	}
	m.logger.Info("Peer disconnected", "peer_id", e.link.PeerID)
	m.emit(m.ctx, Event{Type: EventDisconnected, PeerID: e.link.PeerID})
}

// Links returns a snapshot of connected links ordered by peer id
func (m *Manager) Links() []PeerLink {
	m.mu.Lock()
	defer m.mu.Unlock()

	links := make([]PeerLink, 0, len(m.links))
	for _, e := range m.links {
		links = append(links, e.link)
	}
	slices.SortFunc(links, func(a, b PeerLink) int {
		return strings.Compare(a.PeerID, b.PeerID)
	})
	return links
}

// ConnectedPeers returns the ids of connected peers in sorted order
func (m *Manager) ConnectedPeers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.links))
	for id := range m.links {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// StartAdvertising makes the device discoverable if the transport supports it
func (m *Manager) StartAdvertising(adv Advertisement) error {
	a, ok := m.transport.(Advertiser)
	if !ok {
		return fmt.Errorf("%w: transport cannot advertise", ErrTransportFailure)
	}
	if adv.ServiceID == "" {
		adv.ServiceID = m.serviceID
	}
	if err := a.StartAdvertising(adv); err != nil {
		return fmt.Errorf("failed to start advertising: %w", classify(err))
	}

	m.logger.Info("Advertising", "name", adv.Name, "group_id", adv.GroupID)
	return nil
}

// StopAdvertising is a no-op for transports that cannot advertise
func (m *Manager) StopAdvertising() {
	if a, ok := m.transport.(Advertiser); ok {
		a.StopAdvertising()
	}
}

// Close stops discovery and advertising, drops all links and shuts the
// transport down. Events is closed once every manager goroutine has exited.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.StopDiscovery()
	m.StopAdvertising()
	// события закрытия никто уже не читает
	m.cancel()
	m.DisconnectAll()

	err := m.transport.Shutdown()
	m.wg.Wait()

	m.emitMu.Lock()
	m.eventsDone = true
	close(m.events)
	m.emitMu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to shut down transport: %w", err)
	}
	return nil
}

// emit blocks until the event is consumed or ctx is done
func (m *Manager) emit(ctx context.Context, ev Event) {
	m.emitMu.RLock()
	defer m.emitMu.RUnlock()

	if m.eventsDone {
		return
	}
	select {
	case m.events <- ev:
	case <-ctx.Done():
	}
}

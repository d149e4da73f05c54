// Package sync runs the host/member replication protocol over a link manager.
//
// A host keeps the authoritative entry set of its group and acknowledges
// every entry a member submits. A member queues its entries locally and
// resubmits everything unacknowledged on every new link until the host acks
// it. Link events are handled one at a time by a single goroutine.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	gosync "sync"

	"github.com/jonboulle/clockwork"

	"github.com/iudanet/vasasync/internal/link"
	"github.com/iudanet/vasasync/internal/models"
	"github.com/iudanet/vasasync/internal/position"
	"github.com/iudanet/vasasync/internal/protocol"
	"github.com/iudanet/vasasync/internal/reconcile"
)

// LinkManager is the part of link.Manager the engine drives.
// The engine never calls Disconnect or DisconnectAll from the goroutine
// draining Events: both block until their events are consumed.
type LinkManager interface {
	Initialize(ctx context.Context) error
	SetPeerSelector(sel link.PeerSelector)
	StartDiscovery(ctx context.Context) error
	StopDiscovery()
	Send(ctx context.Context, peerID string, data []byte) error
	Disconnect(peerID string)
	DisconnectAll()
	Events() <-chan link.Event
	StartAdvertising(adv link.Advertisement) error
	StopAdvertising()
	Close() error
}

var _ LinkManager = (*link.Manager)(nil)

// Engine is the sync state machine of one device
type Engine struct {
	links      LinkManager
	pos        position.Source
	clock      clockwork.Clock
	ctx        context.Context
	roleCtx    context.Context
	store      *reconcile.Store
	logger     *slog.Logger
	selector   link.PeerSelector
	cancel     context.CancelFunc
	roleCancel context.CancelFunc
	pending    *pendingQueue
	peers      map[string]struct{}
	members    map[string]struct{}
	pushes     map[string]*push
	subs       map[int]chan Event
	fix        *position.Fix
	actorDone  chan struct{}
	userID     string
	groupID    string
	// membersGroup группа, к которой относится members
	membersGroup string
	cfg          Config
	roleWG       gosync.WaitGroup
	wg           gosync.WaitGroup
	opMu         gosync.Mutex
	mu           gosync.Mutex
	subMu        gosync.Mutex
	nextSub      int
	state        State
	destroyed    bool
}

// New creates an engine. Nothing runs until Initialize.
func New(links LinkManager, pos position.Source, store *reconcile.Store, logger *slog.Logger, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		links:   links,
		pos:     pos,
		store:   store,
		logger:  logger,
		clock:   clockwork.NewRealClock(),
		cfg:     DefaultConfig(),
		ctx:     ctx,
		cancel:  cancel,
		pending: newPendingQueue(),
		peers:   make(map[string]struct{}),
		pushes:  make(map[string]*push),
		subs:    make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize requests transport and position permissions and starts
// handling link events. Calling it again is a no-op.
// A denied permission is returned as ErrPermissionDenied.
func (e *Engine) Initialize(ctx context.Context, userID string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	state, destroyed := e.state, e.destroyed
	e.mu.Unlock()

	if destroyed {
		return ErrDestroyed
	}
	if state != StateUninitialized {
		return nil
	}

	if err := e.links.Initialize(ctx); err != nil {
		if errors.Is(err, link.ErrPermissionDenied) {
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		}
		return fmt.Errorf("failed to initialize links: %w", err)
	}
	if !e.pos.RequestPermission(ctx) {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, position.ErrPermissionDenied)
	}

	e.mu.Lock()
	e.userID = userID
	e.state = StateIdle
	e.mu.Unlock()

	if e.actorDone == nil {
		e.actorDone = make(chan struct{})
		go e.run(e.links.Events(), e.actorDone)
	}

	e.logger.Info("Sync engine initialized", "user_id", userID)
	return nil
}

// StartHosting makes this device the authoritative sink of groupID
func (e *Engine) StartHosting(ctx context.Context, groupID string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	userID, err := e.requireIdle()
	if err != nil {
		return err
	}

	adv := link.Advertisement{
		Name:      e.cfg.NamePrefix + userID,
		GroupID:   groupID,
		ServiceID: e.cfg.ServiceID,
	}
	if err := e.links.StartAdvertising(adv); err != nil {
		return fmt.Errorf("failed to start hosting %s: %w", groupID, err)
	}

	roleCtx := e.bindRole(StateHosting, groupID)

	e.roleWG.Add(1)
	go e.pingLoop(roleCtx)
	e.startWatch()

	e.logger.Info("Hosting group", "group_id", groupID, "name", adv.Name)
	return nil
}

// JoinGroup starts looking for the host of groupID. The engine becomes a
// member once the first link is up. Unsynced entries of the group stored
// earlier are queued for submission.
func (e *Engine) JoinGroup(ctx context.Context, groupID string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	userID, err := e.requireIdle()
	if err != nil {
		return err
	}

	unsynced, err := e.store.ListUnsynced(ctx, userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to load pending entries: %w", err)
	}

	sel := e.selector
	if sel == nil {
		sel = link.GroupMatch(groupID, e.cfg.NamePrefix)
	}
	e.links.SetPeerSelector(sel)

	e.bindRole(StateJoining, groupID)

	e.mu.Lock()
	for _, entry := range unsynced {
		e.pending.merge(entry)
	}
	queued := e.pending.len()
	e.mu.Unlock()

	if err := e.links.StartDiscovery(ctx); err != nil {
		e.unbindRole()
		e.links.SetPeerSelector(nil)
		return fmt.Errorf("failed to start discovery: %w", err)
	}
	e.startWatch()

	e.logger.Info("Joining group", "group_id", groupID, "pending", queued)
	return nil
}

// SubmitEntry records a locally created or edited entry.
//
// A host inserts it straight into the authoritative set. A member queues
// it, persists it unsynced and sends it to the host if a link is up; an
// offline member only queues it. Outside of any role the entry is only
// persisted and is picked up by the next JoinGroup of its group.
func (e *Engine) SubmitEntry(ctx context.Context, entry *models.Entry) error {
	if entry == nil || entry.ID == "" {
		return ErrInvalidEntry
	}

	e.mu.Lock()
	state, userID, groupID := e.state, e.userID, e.groupID
	e.mu.Unlock()

	entry = entry.Clone()
	if entry.CreatedBy == "" {
		entry.CreatedBy = userID
	}

	switch state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateIdle:
		entry.Synced = false
		if err := e.store.UpsertLocal(ctx, userID, entry); err != nil {
			return fmt.Errorf("failed to store entry: %w", err)
		}
		return nil
	}

	if entry.GroupID == "" {
		entry.GroupID = groupID
	}
	if entry.GroupID != groupID {
		return fmt.Errorf("%w: %s is not %s", ErrGroupMismatch, entry.GroupID, groupID)
	}

	if state == StateHosting {
		return e.insertOwn(ctx, entry)
	}
	return e.enqueue(ctx, entry)
}

// RequestFullSync asks the connected host for its complete entry set.
// The host pushes every entry back; each is inserted at most once.
func (e *Engine) RequestFullSync(ctx context.Context) error {
	e.mu.Lock()
	state, userID, groupID := e.state, e.userID, e.groupID
	peers := e.peerListLocked()
	e.mu.Unlock()

	switch state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateJoining, StateMember:
	default:
		return ErrNotMember
	}
	if len(peers) == 0 {
		return ErrNotConnected
	}

	data := protocol.Encode(protocol.SyncRequest{Source: userID, GroupID: groupID})
	for _, peerID := range peers {
		if err := e.links.Send(ctx, peerID, data); err != nil {
			return fmt.Errorf("failed to request full sync: %w", err)
		}
	}

	e.logger.Info("Full sync requested", "group_id", groupID, "peers", len(peers))
	return nil
}

// SetMembers restricts which users a host accepts entries from.
// An empty list accepts everyone.
func (e *Engine) SetMembers(groupID string, members []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.membersGroup = groupID
	if len(members) == 0 {
		e.members = nil
		return
	}
	e.members = make(map[string]struct{}, len(members))
	for _, id := range members {
		e.members[id] = struct{}{}
	}
}

// Stop releases the active role: pings, pushes, discovery, advertising,
// the position watch and every link. The pending queue is cleared; unsynced
// entries stay in storage. Safe to call in any state.
func (e *Engine) Stop() {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.stopRole()
}

// Destroy stops the engine for good and releases the link manager and the
// position source. Subscriber channels are closed. Idempotent.
func (e *Engine) Destroy() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.stopRole()

	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return nil
	}
	e.destroyed = true
	e.state = StateUninitialized
	e.mu.Unlock()

	// Close закрывает Events, после этого актор завершается
	err := e.links.Close()
	if e.actorDone != nil {
		<-e.actorDone
	}
	e.cancel()
	e.wg.Wait()
	e.pos.StopWatch()

	e.subMu.Lock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.subMu.Unlock()

	e.logger.Info("Sync engine destroyed")
	if err != nil {
		return fmt.Errorf("failed to close links: %w", err)
	}
	return nil
}

// Subscribe returns a channel receiving every engine event and a function
// that ends the subscription. A subscriber that falls behind by more than
// the event buffer loses events.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	ch := make(chan Event, e.cfg.EventBuffer)

	e.mu.Lock()
	destroyed := e.destroyed
	e.mu.Unlock()
	if destroyed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch

	return ch, func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()

		if c, ok := e.subs[id]; ok {
			close(c)
			delete(e.subs, id)
		}
	}
}

// State returns the current role state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// GroupID returns the group of the active role, empty when idle
func (e *Engine) GroupID() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.groupID
}

// Peers returns the connected peers of the active role in sorted order
func (e *Engine) Peers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.peerListLocked()
}

// PendingCount returns the number of entries waiting for a host ack
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.pending.len()
}

// Pending returns copies of the queued entries in retry order
func (e *Engine) Pending() []*models.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.pending.list()
}

// LastFix returns the latest position reported while a role is active
func (e *Engine) LastFix() (position.Fix, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fix == nil {
		return position.Fix{}, false
	}
	return *e.fix, true
}

func (e *Engine) requireIdle() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateUninitialized:
		if e.destroyed {
			return "", ErrDestroyed
		}
		return "", ErrNotInitialized
	case StateIdle:
		return e.userID, nil
	default:
		return "", fmt.Errorf("%w: %s %s", ErrRoleActive, e.state, e.groupID)
	}
}

// bindRole switches to a role and returns the context living until Stop
func (e *Engine) bindRole(state State, groupID string) context.Context {
	ctx, cancel := context.WithCancel(e.ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = state
	e.groupID = groupID
	e.roleCtx = ctx
	e.roleCancel = cancel
	return ctx
}

func (e *Engine) unbindRole() {
	e.mu.Lock()
	cancel := e.roleCancel
	e.roleCtx, e.roleCancel = nil, nil
	e.state = StateIdle
	e.groupID = ""
	e.pending.reset()
	clear(e.peers)
	e.fix = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// stopRole must be called with opMu held
func (e *Engine) stopRole() {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	if state == StateUninitialized || state == StateIdle {
		return
	}

	e.pos.StopWatch()

	// сначала Idle: события от закрываемых линков актор игнорирует
	e.unbindRole()
	e.roleWG.Wait()

	e.links.SetPeerSelector(nil)
	e.links.StopDiscovery()
	e.links.StopAdvertising()
	e.links.DisconnectAll()

	e.logger.Info("Role stopped", "state", state)
}

func (e *Engine) startWatch() {
	err := e.pos.Watch(position.DefaultWatchInterval, position.DefaultDistanceFilter, func(fix position.Fix) {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.fix = &fix
	})
	if err != nil {
		// без позиции синхронизация работает, проверка близости нет
		e.logger.Warn("Position watch unavailable", "error", err)
	}
}

func (e *Engine) peerListLocked() []string {
	peers := make([]string, 0, len(e.peers))
	for id := range e.peers {
		peers = append(peers, id)
	}
	slices.Sort(peers)
	return peers
}

// emit delivers ev to every subscriber without blocking
func (e *Engine) emit(ev Event) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			e.logger.Warn("Subscriber is full, event dropped", "event", ev.Type.String())
		}
	}
}

// run handles link events one at a time until the manager is closed
func (e *Engine) run(events <-chan link.Event, done chan struct{}) {
	defer close(done)

	for ev := range events {
		switch ev.Type {
		case link.EventDiscovered:
			e.logger.Debug("Peer discovered", "peer_id", ev.PeerID, "group_id", ev.Peer.GroupID)
		case link.EventConnected:
			e.onConnected(ev.PeerID)
		case link.EventDisconnected:
			e.onDisconnected(ev.PeerID)
		case link.EventConnectFailed:
			e.onConnectFailed(ev.PeerID, ev.Err)
		case link.EventReceived:
			e.onReceived(ev.PeerID, ev.Data)
		}
	}
}

func (e *Engine) onConnected(peerID string) {
	e.mu.Lock()
	state := e.state
	switch state {
	case StateHosting, StateMember:
		e.peers[peerID] = struct{}{}
	case StateJoining:
		e.peers[peerID] = struct{}{}
		e.state = StateMember
	}
	e.mu.Unlock()

	switch state {
	case StateHosting, StateJoining, StateMember:
	default:
		// линк пережил Stop; Disconnect ждет актора, поэтому не здесь
		e.logger.Debug("Dropping link outside of a role", "peer_id", peerID)
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.links.Disconnect(peerID)
		}()
		return
	}

	e.logger.Info("Device connected", "peer_id", peerID, "state", state.String())
	e.emit(Event{Type: EventDeviceConnected, PeerID: peerID})

	if state != StateHosting {
		e.syncPending(peerID)
	}
}

func (e *Engine) onDisconnected(peerID string) {
	e.mu.Lock()
	_, known := e.peers[peerID]
	delete(e.peers, peerID)
	lost := e.state == StateMember && len(e.peers) == 0
	if lost {
		e.state = StateJoining
	}
	if p, ok := e.pushes[peerID]; ok {
		p.cancel()
	}
	e.mu.Unlock()

	if !known {
		return
	}

	e.logger.Info("Device disconnected", "peer_id", peerID)
	e.emit(Event{Type: EventDeviceDisconnected, PeerID: peerID})

	if lost {
		e.rediscover()
	}
}

func (e *Engine) onConnectFailed(peerID string, err error) {
	e.logger.Warn("Connect failed", "peer_id", peerID, "error", err)
	e.emit(Event{Type: EventSyncError, PeerID: peerID, Err: err})

	e.rediscover()
}

// rediscover restarts discovery while a member waits for a host
func (e *Engine) rediscover() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateJoining {
		return
	}
	if err := e.links.StartDiscovery(e.ctx); err != nil {
		e.logger.Warn("Failed to restart discovery", "error", err)
	}
}

func (e *Engine) onReceived(peerID string, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		e.logger.Warn("Dropping malformed message", "peer_id", peerID, "error", err)
		e.emit(Event{Type: EventSyncError, PeerID: peerID, Err: err})
		return
	}

	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	switch m := msg.(type) {
	case protocol.Ping:
		e.reply(peerID, protocol.Pong{Source: e.self(), Timestamp: e.clock.Now().UnixMilli()})
	case protocol.Pong:
		e.logger.Debug("Pong received", "peer_id", peerID, "source", m.Source)
	case protocol.EntrySubmit:
		switch state {
		case StateHosting:
			e.acceptEntry(peerID, m)
		case StateJoining, StateMember:
			e.receivePush(peerID, m)
		}
	case protocol.EntryAck:
		if state == StateJoining || state == StateMember {
			e.acknowledge(m.EntryID)
		}
	case protocol.SyncRequest:
		if state == StateHosting {
			e.startPush(peerID, m)
		}
	}
}

// reply sends msg to peerID; failures are reported, never returned
func (e *Engine) reply(peerID string, msg protocol.Message) {
	if err := e.links.Send(e.ctx, peerID, protocol.Encode(msg)); err != nil {
		e.logger.Warn("Failed to send reply", "peer_id", peerID, "type", msg.MessageType(), "error", err)
		e.emit(Event{Type: EventSyncError, PeerID: peerID, Err: err})
	}
}

func (e *Engine) self() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.userID
}

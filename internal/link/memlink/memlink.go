// Package memlink is an in-process link transport. Radios attached to the
// same Hub discover and connect to each other as if they shared the air.
package memlink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iudanet/vasasync/internal/link"
)

const (
	inboxSize    = 256
	scanBuffer   = 64
	incomingSize = 16
)

// Hub is the shared medium
type Hub struct {
	radios   map[string]*Radio
	scanners map[*scanner]struct{}
	mu       sync.Mutex
}

type scanner struct {
	owner     *Radio
	ch        chan link.DiscoveredPeer
	serviceID string
}

// NewHub creates an empty medium
func NewHub() *Hub {
	return &Hub{
		radios:   make(map[string]*Radio),
		scanners: make(map[*scanner]struct{}),
	}
}

// RadioOption configures a Radio
type RadioOption func(*Radio)

// WithPermissionDenied makes the radio refuse permissions
func WithPermissionDenied() RadioOption {
	return func(r *Radio) {
		r.denied = true
	}
}

// WithConnectDelay delays every inbound connect to this radio
func WithConnectDelay(d time.Duration) RadioOption {
	return func(r *Radio) {
		r.connectDelay = d
	}
}

// Unresponsive makes inbound connects hang until the caller gives up
func Unresponsive() RadioOption {
	return func(r *Radio) {
		r.unresponsive = true
	}
}

// NewRadio attaches a radio with the given peer id to the hub
func (h *Hub) NewRadio(id string, opts ...RadioOption) *Radio {
	r := &Radio{
		hub:      h,
		id:       id,
		incoming: make(chan link.Connection, incomingSize),
		pipes:    make(map[*pipe]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	h.mu.Lock()
	h.radios[id] = r
	h.mu.Unlock()

	return r
}

func (h *Hub) advertiser(id string) (*Radio, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.radios[id]
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	advertising := r.adv != nil
	r.mu.Unlock()
	return r, advertising
}

// broadcast tells every running scan about an advertising radio
func (h *Hub) broadcast(r *Radio, adv link.Advertisement) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.scanners {
		s.offer(r, adv)
	}
}

func (s *scanner) offer(r *Radio, adv link.Advertisement) {
	if s.owner == r || adv.ServiceID != s.serviceID {
		return
	}
	// радио с потерями: если буфер полон, повторная реклама дойдет позже
	select {
	case s.ch <- link.DiscoveredPeer{ID: r.id, Name: adv.Name, GroupID: adv.GroupID}:
	default:
	}
}

// Radio is one device's transport
type Radio struct {
	hub          *Hub
	adv          *link.Advertisement
	scanStop     context.CancelFunc
	incoming     chan link.Connection
	pipes        map[*pipe]struct{}
	id           string
	connectDelay time.Duration
	mu           sync.Mutex
	denied       bool
	unresponsive bool
	shutdown     bool
}

var (
	_ link.Transport  = (*Radio)(nil)
	_ link.Advertiser = (*Radio)(nil)
	_ link.Acceptor   = (*Radio)(nil)
)

// ID returns the peer id other radios see
func (r *Radio) ID() string {
	return r.id
}

// SetUnresponsive switches connect hanging on or off at runtime
func (r *Radio) SetUnresponsive(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unresponsive = v
}

// DropLinks simulates the radio going out of range of every peer
func (r *Radio) DropLinks() {
	r.mu.Lock()
	pipes := make([]*pipe, 0, len(r.pipes))
	for p := range r.pipes {
		pipes = append(pipes, p)
	}
	r.mu.Unlock()

	for _, p := range pipes {
		p.close()
	}
}

func (r *Radio) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.denied {
		return link.ErrPermissionDenied
	}
	if r.shutdown {
		return errors.New("radio is shut down")
	}
	return nil
}

func (r *Radio) RequestPermissions(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return !r.denied
}

func (r *Radio) StartScan(ctx context.Context, serviceID string) (<-chan link.DiscoveredPeer, error) {
	r.StopScan()

	r.mu.Lock()
	if r.denied {
		r.mu.Unlock()
		return nil, link.ErrPermissionDenied
	}
	s := &scanner{owner: r, ch: make(chan link.DiscoveredPeer, scanBuffer), serviceID: serviceID}
	scanCtx, cancel := context.WithCancel(ctx)
	r.scanStop = cancel
	r.mu.Unlock()

	h := r.hub
	h.mu.Lock()
	h.scanners[s] = struct{}{}
	for _, other := range h.radios {
		other.mu.Lock()
		adv := other.adv
		other.mu.Unlock()
		if adv != nil {
			s.offer(other, *adv)
		}
	}
	h.mu.Unlock()

	go func() {
		<-scanCtx.Done()
		h.mu.Lock()
		delete(h.scanners, s)
		close(s.ch)
		h.mu.Unlock()
	}()

	return s.ch, nil
}

func (r *Radio) StopScan() {
	r.mu.Lock()
	cancel := r.scanStop
	r.scanStop = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (r *Radio) StartAdvertising(adv link.Advertisement) error {
	r.mu.Lock()
	if r.denied {
		r.mu.Unlock()
		return link.ErrPermissionDenied
	}
	if adv.ServiceID == "" {
		adv.ServiceID = link.ServiceID
	}
	r.adv = &adv
	r.mu.Unlock()

	r.hub.broadcast(r, adv)
	return nil
}

func (r *Radio) StopAdvertising() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adv = nil
}

func (r *Radio) Incoming() <-chan link.Connection {
	return r.incoming
}

// Connect opens a link to an advertising radio
func (r *Radio) Connect(ctx context.Context, peerID string, timeout time.Duration) (link.Connection, error) {
	target, ok := r.hub.advertiser(peerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not advertising", link.ErrNotFound, peerID)
	}

	target.mu.Lock()
	unresponsive, delay := target.unresponsive, target.connectDelay
	target.mu.Unlock()

	if unresponsive {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p := newPipe(r, target)

	select {
	case target.incoming <- p.b:
	case <-ctx.Done():
		p.close()
		return nil, ctx.Err()
	}

	return p.a, nil
}

func (r *Radio) Send(ctx context.Context, conn link.Connection, data []byte) error {
	e, ok := conn.(*end)
	if !ok {
		return fmt.Errorf("%w: foreign connection %T", link.ErrTransportFailure, conn)
	}
	return e.send(ctx, data)
}

func (r *Radio) Disconnect(conn link.Connection) error {
	e, ok := conn.(*end)
	if !ok {
		return fmt.Errorf("%w: foreign connection %T", link.ErrTransportFailure, conn)
	}
	e.pipe.close()
	return nil
}

// Shutdown detaches the radio from the hub and drops its links
func (r *Radio) Shutdown() error {
	r.StopScan()
	r.StopAdvertising()
	r.DropLinks()

	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()

	r.hub.mu.Lock()
	if r.hub.radios[r.id] == r {
		delete(r.hub.radios, r.id)
	}
	r.hub.mu.Unlock()
	return nil
}

// pipe is a bidirectional link between two radios
type pipe struct {
	a, b *end
	done chan struct{}
	once sync.Once
}

// end is one side of a pipe; peerID is the radio on the other side
type end struct {
	pipe   *pipe
	remote *end
	owner  *Radio
	inbox  chan []byte
	out    chan []byte
	peerID string
}

func newPipe(from, to *Radio) *pipe {
	p := &pipe{done: make(chan struct{})}
	p.a = &end{pipe: p, owner: from, peerID: to.id, inbox: make(chan []byte, inboxSize), out: make(chan []byte)}
	p.b = &end{pipe: p, owner: to, peerID: from.id, inbox: make(chan []byte, inboxSize), out: make(chan []byte)}
	p.a.remote, p.b.remote = p.b, p.a

	for _, r := range []*Radio{from, to} {
		r.mu.Lock()
		r.pipes[p] = struct{}{}
		r.mu.Unlock()
	}

	go p.a.pump()
	go p.b.pump()
	return p
}

func (p *pipe) close() {
	p.once.Do(func() {
		close(p.done)
		for _, e := range []*end{p.a, p.b} {
			e.owner.mu.Lock()
			delete(e.owner.pipes, p)
			e.owner.mu.Unlock()
		}
	})
}

func (e *end) PeerID() string {
	return e.peerID
}

func (e *end) Notifications() <-chan []byte {
	return e.out
}

func (e *end) send(ctx context.Context, data []byte) error {
	select {
	case <-e.pipe.done:
		return link.ErrNotConnected
	default:
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	select {
	case e.remote.inbox <- buf:
		return nil
	case <-e.pipe.done:
		return link.ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pump forwards the inbox to Notifications in order and closes it with the pipe
func (e *end) pump() {
	defer close(e.out)

	for {
		select {
		case <-e.pipe.done:
			return
		case data := <-e.inbox:
			select {
			case e.out <- data:
			case <-e.pipe.done:
				return
			}
		}
	}
}

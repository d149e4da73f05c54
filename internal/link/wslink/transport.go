// Package wslink carries links over WebSockets. Every node can serve an
// advertisement and accept links over HTTP; scanning polls the
// advertisement of a configured list of addresses.
package wslink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/iudanet/vasasync/internal/link"
)

// Defaults
const (
	DefaultPollInterval = 2 * time.Second
	DefaultLinkRate     = 10
	DefaultLinkWindow   = time.Minute

	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	incomingSize = 16
)

var errShutdown = errors.New("transport is shut down")

// Config of one node
type Config struct {
	// ID is the peer id other nodes see
	ID string
	// ListenAddr enables the HTTP surface; empty for scan-only nodes
	ListenAddr string
	// Seeds are host:port addresses polled while scanning
	Seeds        []string
	PollInterval time.Duration
	LinkRate     int
	LinkWindow   time.Duration
}

// advertResponse is served on GET /advert
type advertResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GroupID   string `json:"groupId,omitempty"`
	ServiceID string `json:"serviceId"`
}

// Transport is a link.Transport over WebSockets
type Transport struct {
	clock      clockwork.Clock
	logger     *slog.Logger
	adv        *link.Advertisement
	server     *http.Server
	listener   net.Listener
	httpClient *http.Client
	incoming   chan link.Connection
	addrs      map[string]string
	conns      map[*conn]struct{}
	scanCancel context.CancelFunc
	upgrader   websocket.Upgrader
	cfg        Config
	wg         sync.WaitGroup
	mu         sync.Mutex
	shutdown   bool
}

var (
	_ link.Transport  = (*Transport)(nil)
	_ link.Advertiser = (*Transport)(nil)
	_ link.Acceptor   = (*Transport)(nil)
)

// Option configures a Transport
type Option func(*Transport)

// WithClock replaces the wall clock used for polling and keepalive
func WithClock(clock clockwork.Clock) Option {
	return func(t *Transport) {
		t.clock = clock
	}
}

// New creates a transport; nothing is started until Initialize
func New(cfg Config, logger *slog.Logger, opts ...Option) *Transport {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.LinkRate <= 0 {
		cfg.LinkRate = DefaultLinkRate
	}
	if cfg.LinkWindow <= 0 {
		cfg.LinkWindow = DefaultLinkWindow
	}

	t := &Transport{
		clock:      clockwork.NewRealClock(),
		logger:     logger,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		incoming:   make(chan link.Connection, incomingSize),
		addrs:      make(map[string]string),
		conns:      make(map[*conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Router builds the HTTP surface of the node
func (t *Transport) Router() http.Handler {
	limiter := newRateLimiter(t.cfg.LinkRate, t.cfg.LinkWindow, t.clock, t.logger)

	r := mux.NewRouter()
	r.Use(recoveryMiddleware(t.logger), loggingMiddleware(t.logger))

	r.HandleFunc("/health", t.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/advert", t.handleAdvert).Methods(http.MethodGet)
	r.Handle("/link", limiter.Middleware(http.HandlerFunc(t.handleLink))).
		Methods(http.MethodGet).
		Queries("peer", "{peer}")

	return r
}

// Initialize starts the HTTP server when ListenAddr is set. Idempotent.
func (t *Transport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.shutdown {
		return errShutdown
	}
	if t.server != nil || t.cfg.ListenAddr == "" {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", t.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.cfg.ListenAddr, err)
	}

	t.listener = ln
	t.server = &http.Server{
		Handler:           t.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := t.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("HTTP server failed", "error", err)
		}
	}()

	t.logger.Info("Link server listening", "addr", ln.Addr().String(), "peer_id", t.cfg.ID)
	return nil
}

// Addr returns the address the server listens on, empty before Initialize
func (t *Transport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

// RequestPermissions always succeeds: network access needs no user consent
func (t *Transport) RequestPermissions(ctx context.Context) bool {
	return true
}

func (t *Transport) StartAdvertising(adv link.Advertisement) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if adv.ServiceID == "" {
		adv.ServiceID = link.ServiceID
	}
	t.adv = &adv
	return nil
}

func (t *Transport) StopAdvertising() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.adv = nil
}

func (t *Transport) Incoming() <-chan link.Connection {
	return t.incoming
}

func (t *Transport) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok", "peerId": t.cfg.ID}); err != nil {
		t.logger.Error("failed to encode health response", "error", err)
	}
}

func (t *Transport) handleAdvert(w http.ResponseWriter, r *http.Request) {
	t.mu.Lock()
	adv := t.adv
	t.mu.Unlock()

	if adv == nil {
		http.Error(w, "not advertising", http.StatusNotFound)
		return
	}

	resp := advertResponse{
		ID:        t.cfg.ID,
		Name:      adv.Name,
		GroupID:   adv.GroupID,
		ServiceID: adv.ServiceID,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.logger.Error("failed to encode advert", "error", err)
	}
}

func (t *Transport) handleLink(w http.ResponseWriter, r *http.Request) {
	peerID := mux.Vars(r)["peer"]

	ws, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("Failed to upgrade link", "peer_id", peerID, "error", err)
		return
	}

	c, err := t.track(ws, peerID)
	if err != nil {
		_ = ws.Close()
		return
	}

	select {
	case t.incoming <- c:
		t.logger.Debug("Inbound link", "peer_id", peerID, "remote_addr", r.RemoteAddr)
	default:
		t.logger.Warn("Inbound link dropped, accept queue full", "peer_id", peerID)
		c.close()
	}
}

// StartScan polls every seed for its advertisement until ctx is done or StopScan
func (t *Transport) StartScan(ctx context.Context, serviceID string) (<-chan link.DiscoveredPeer, error) {
	t.StopScan()

	t.mu.Lock()
	if t.shutdown {
		t.mu.Unlock()
		return nil, errShutdown
	}
	scanCtx, cancel := context.WithCancel(ctx)
	t.scanCancel = cancel
	t.wg.Add(1)
	t.mu.Unlock()

	peers := make(chan link.DiscoveredPeer)
	ticker := t.clock.NewTicker(t.cfg.PollInterval)

	go func() {
		defer t.wg.Done()
		defer close(peers)
		defer ticker.Stop()

		for {
			for _, seed := range t.cfg.Seeds {
				p, err := t.probe(scanCtx, seed)
				if err != nil {
					t.logger.Debug("Seed not advertising", "addr", seed, "error", err)
					continue
				}
				if p.ServiceID != serviceID || p.ID == t.cfg.ID {
					continue
				}

				select {
				case peers <- link.DiscoveredPeer{ID: p.ID, Name: p.Name, GroupID: p.GroupID}:
				case <-scanCtx.Done():
					return
				}
			}

			select {
			case <-scanCtx.Done():
				return
			case <-ticker.Chan():
			}
		}
	}()

	return peers, nil
}

func (t *Transport) probe(ctx context.Context, addr string) (advertResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/advert", nil)
	if err != nil {
		return advertResponse{}, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return advertResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return advertResponse{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var adv advertResponse
	if err := json.NewDecoder(resp.Body).Decode(&adv); err != nil {
		return advertResponse{}, fmt.Errorf("failed to decode advert: %w", err)
	}

	t.mu.Lock()
	t.addrs[adv.ID] = addr
	t.mu.Unlock()

	return adv, nil
}

func (t *Transport) StopScan() {
	t.mu.Lock()
	cancel := t.scanCancel
	t.scanCancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Connect dials a peer found by a scan
func (t *Transport) Connect(ctx context.Context, peerID string, timeout time.Duration) (link.Connection, error) {
	t.mu.Lock()
	addr, ok := t.addrs[peerID]
	t.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: no address for %s", link.ErrNotFound, peerID)
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	u := url.URL{Scheme: "ws", Host: addr, Path: "/link", RawQuery: url.Values{"peer": {t.cfg.ID}}.Encode()}

	ws, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	c, err := t.track(ws, peerID)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	return c, nil
}

func (t *Transport) Send(ctx context.Context, lc link.Connection, data []byte) error {
	c, ok := lc.(*conn)
	if !ok {
		return fmt.Errorf("%w: foreign connection %T", link.ErrTransportFailure, lc)
	}
	return c.send(ctx, data)
}

func (t *Transport) Disconnect(lc link.Connection) error {
	c, ok := lc.(*conn)
	if !ok {
		return fmt.Errorf("%w: foreign connection %T", link.ErrTransportFailure, lc)
	}
	c.close()
	return nil
}

// Shutdown stops the server, scan and every link
func (t *Transport) Shutdown() error {
	t.StopScan()

	t.mu.Lock()
	if t.shutdown {
		t.mu.Unlock()
		return nil
	}
	t.shutdown = true
	server := t.server
	t.mu.Unlock()

	var err error
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = server.Shutdown(ctx)
	}

	t.mu.Lock()
	conns := make([]*conn, 0, len(t.conns))
	for c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.Unlock()

	for _, c := range conns {
		c.close()
	}

	t.wg.Wait()
	return err
}

// track registers a websocket as a link and starts its pumps
func (t *Transport) track(ws *websocket.Conn, peerID string) (*conn, error) {
	c := newConn(ws, peerID, t.clock, t.logger)

	t.mu.Lock()
	if t.shutdown {
		t.mu.Unlock()
		return nil, errShutdown
	}
	t.conns[c] = struct{}{}
	t.wg.Add(2)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		c.readPump()

		t.mu.Lock()
		delete(t.conns, c)
		t.mu.Unlock()
	}()
	go func() {
		defer t.wg.Done()
		c.pingPump()
	}()

	return c, nil
}

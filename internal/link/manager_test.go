package link_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vasasync/internal/link"
	"github.com/iudanet/vasasync/internal/link/memlink"
)

const waitTimeout = 2 * time.Second

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitEvent skips events until one of type want arrives
func waitEvent(t *testing.T, events <-chan link.Event, want link.EventType) link.Event {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "events channel closed while waiting for %s", want)
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			require.FailNow(t, "timeout waiting for event", want.String())
		}
	}
}

func newHost(t *testing.T, hub *memlink.Hub, opts ...memlink.RadioOption) (*link.Manager, *memlink.Radio) {
	t.Helper()

	radio := hub.NewRadio("host", opts...)
	m := link.NewManager(radio, testLogger())
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Initialize(context.Background()))
	require.NoError(t, m.StartAdvertising(link.Advertisement{Name: link.NamePrefix + "host", GroupID: "g1"}))
	return m, radio
}

func newMember(t *testing.T, hub *memlink.Hub, id string, opts ...link.Option) (*link.Manager, *memlink.Radio) {
	t.Helper()

	radio := hub.NewRadio(id)
	m := link.NewManager(radio, testLogger(), opts...)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Initialize(context.Background()))
	return m, radio
}

func TestManager_AutoConnectOnDiscovery(t *testing.T) {
	hub := memlink.NewHub()
	host, _ := newHost(t, hub)
	member, _ := newMember(t, hub, "m1", link.WithPeerSelector(link.FirstMatch(link.NamePrefix)))

	require.NoError(t, member.StartDiscovery(context.Background()))

	discovered := waitEvent(t, member.Events(), link.EventDiscovered)
	assert.Equal(t, "host", discovered.PeerID)
	assert.Equal(t, "g1", discovered.Peer.GroupID)

	connected := waitEvent(t, member.Events(), link.EventConnected)
	assert.Equal(t, "host", connected.PeerID)
	assert.False(t, member.Scanning(), "Connecting stops the scan")

	inbound := waitEvent(t, host.Events(), link.EventConnected)
	assert.Equal(t, "m1", inbound.PeerID)

	assert.Equal(t, []string{"host"}, member.ConnectedPeers())
	assert.Equal(t, []string{"m1"}, host.ConnectedPeers())

	links := member.Links()
	require.Len(t, links, 1)
	assert.Equal(t, link.StateConnected, links[0].State)
	assert.False(t, links[0].LastSeenAt.IsZero())
}

func TestManager_PerLinkFIFO(t *testing.T) {
	hub := memlink.NewHub()
	host, _ := newHost(t, hub)
	member, _ := newMember(t, hub, "m1", link.WithPeerSelector(link.FirstMatch(link.NamePrefix)))

	require.NoError(t, member.StartDiscovery(context.Background()))
	waitEvent(t, member.Events(), link.EventConnected)
	waitEvent(t, host.Events(), link.EventConnected)

	const n = 100
	for i := 0; i < n; i++ {
		require.NoError(t, member.Send(context.Background(), "host", []byte(fmt.Sprintf("msg-%03d", i))))
	}

	for i := 0; i < n; i++ {
		ev := waitEvent(t, host.Events(), link.EventReceived)
		assert.Equal(t, "m1", ev.PeerID)
		assert.Equal(t, fmt.Sprintf("msg-%03d", i), string(ev.Data))
	}

	// ответ в обратную сторону по тому же линку
	require.NoError(t, host.Send(context.Background(), "m1", []byte("pong")))
	ev := waitEvent(t, member.Events(), link.EventReceived)
	assert.Equal(t, "pong", string(ev.Data))
}

func TestManager_ConnectErrors(t *testing.T) {
	t.Run("unknown peer", func(t *testing.T) {
		hub := memlink.NewHub()
		member, _ := newMember(t, hub, "m1")

		_, err := member.Connect(context.Background(), "ghost")
		assert.ErrorIs(t, err, link.ErrNotFound)
	})

	t.Run("unresponsive peer times out", func(t *testing.T) {
		hub := memlink.NewHub()
		newHost(t, hub, memlink.Unresponsive())
		member, _ := newMember(t, hub, "m1", link.WithConnectTimeout(50*time.Millisecond))

		require.NoError(t, member.StartDiscovery(context.Background()))
		waitEvent(t, member.Events(), link.EventDiscovered)

		_, err := member.Connect(context.Background(), "host")
		assert.ErrorIs(t, err, link.ErrTimeout)
		assert.Empty(t, member.Links(), "A failed connect leaves no partial link")
	})

	t.Run("auto-connect failure is reported", func(t *testing.T) {
		hub := memlink.NewHub()
		newHost(t, hub, memlink.Unresponsive())
		member, _ := newMember(t, hub, "m1",
			link.WithConnectTimeout(50*time.Millisecond),
			link.WithPeerSelector(link.FirstMatch(link.NamePrefix)),
		)

		require.NoError(t, member.StartDiscovery(context.Background()))
		ev := waitEvent(t, member.Events(), link.EventConnectFailed)
		assert.Equal(t, "host", ev.PeerID)
		assert.ErrorIs(t, ev.Err, link.ErrTimeout)
	})
}

// Хост пишет сразу после подключения, поэтому reader участника обновляет
// LastSeenAt одновременно с возвратом из Connect. Гонку ловит -race.
func TestManager_ConnectWhilePeerSends(t *testing.T) {
	for round := range 20 {
		hub := memlink.NewHub()
		host, _ := newHost(t, hub)
		member, _ := newMember(t, hub, fmt.Sprintf("m%d", round))

		go func() {
			for ev := range host.Events() {
				if ev.Type == link.EventConnected {
					_ = host.Send(context.Background(), ev.PeerID, []byte("hello"))
				}
			}
		}()

		require.NoError(t, member.StartDiscovery(context.Background()))
		waitEvent(t, member.Events(), link.EventDiscovered)

		pl, err := member.Connect(context.Background(), "host")
		require.NoError(t, err)
		assert.Equal(t, "host", pl.PeerID)
		assert.Equal(t, link.StateConnected, pl.State)
		_ = pl.LastSeenAt

		ev := waitEvent(t, member.Events(), link.EventReceived)
		assert.Equal(t, "hello", string(ev.Data))

		again, err := member.Connect(context.Background(), "host")
		require.NoError(t, err, "Connecting to a linked peer returns the existing link")
		assert.Equal(t, "host", again.PeerID)

		require.NoError(t, member.Close())
		require.NoError(t, host.Close())
	}
}

func TestManager_SendNotConnected(t *testing.T) {
	member, _ := newMember(t, memlink.NewHub(), "m1")

	err := member.Send(context.Background(), "host", []byte("x"))
	assert.ErrorIs(t, err, link.ErrNotConnected)
}

func TestManager_DiscoveryLifecycle(t *testing.T) {
	member, _ := newMember(t, memlink.NewHub(), "m1")

	require.NoError(t, member.StartDiscovery(context.Background()))
	require.NoError(t, member.StartDiscovery(context.Background()), "Second start is a no-op")
	assert.True(t, member.Scanning())

	member.StopDiscovery()
	assert.False(t, member.Scanning())
	member.StopDiscovery()
}

func TestManager_ScanWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	member, _ := newMember(t, memlink.NewHub(), "m1", link.WithClock(clock))

	require.NoError(t, member.StartDiscovery(context.Background()))
	assert.True(t, member.Scanning())

	require.Eventually(t, func() bool {
		clock.Advance(link.DefaultScanWindow)
		return !member.Scanning()
	}, waitTimeout, 10*time.Millisecond)
}

func TestManager_Disconnect(t *testing.T) {
	hub := memlink.NewHub()
	host, _ := newHost(t, hub)
	member, _ := newMember(t, hub, "m1", link.WithPeerSelector(link.FirstMatch(link.NamePrefix)))

	require.NoError(t, member.StartDiscovery(context.Background()))
	waitEvent(t, member.Events(), link.EventConnected)
	waitEvent(t, host.Events(), link.EventConnected)

	member.Disconnect("host")
	member.Disconnect("host")

	assert.Equal(t, "host", waitEvent(t, member.Events(), link.EventDisconnected).PeerID)
	assert.Equal(t, "m1", waitEvent(t, host.Events(), link.EventDisconnected).PeerID)
	assert.Empty(t, member.ConnectedPeers())
	assert.Empty(t, host.ConnectedPeers())
}

func TestManager_LinkLoss(t *testing.T) {
	hub := memlink.NewHub()
	host, hostRadio := newHost(t, hub)
	member, _ := newMember(t, hub, "m1", link.WithPeerSelector(link.FirstMatch(link.NamePrefix)))

	require.NoError(t, member.StartDiscovery(context.Background()))
	waitEvent(t, member.Events(), link.EventConnected)
	waitEvent(t, host.Events(), link.EventConnected)

	hostRadio.DropLinks()

	waitEvent(t, member.Events(), link.EventDisconnected)
	waitEvent(t, host.Events(), link.EventDisconnected)

	err := member.Send(context.Background(), "host", []byte("x"))
	assert.ErrorIs(t, err, link.ErrNotConnected)
}

func TestManager_DisconnectAll(t *testing.T) {
	hub := memlink.NewHub()
	host, _ := newHost(t, hub)

	for _, id := range []string{"m1", "m2", "m3"} {
		m, _ := newMember(t, hub, id, link.WithPeerSelector(link.FirstMatch(link.NamePrefix)))
		require.NoError(t, m.StartDiscovery(context.Background()))
		waitEvent(t, m.Events(), link.EventConnected)
	}
	for range 3 {
		waitEvent(t, host.Events(), link.EventConnected)
	}
	assert.Equal(t, []string{"m1", "m2", "m3"}, host.ConnectedPeers())

	host.DisconnectAll()
	assert.Empty(t, host.ConnectedPeers())

	seen := map[string]bool{}
	for range 3 {
		seen[waitEvent(t, host.Events(), link.EventDisconnected).PeerID] = true
	}
	assert.Len(t, seen, 3)
}

func TestManager_PermissionDenied(t *testing.T) {
	radio := memlink.NewHub().NewRadio("m1", memlink.WithPermissionDenied())
	m := link.NewManager(radio, testLogger())
	defer m.Close()

	assert.ErrorIs(t, m.Initialize(context.Background()), link.ErrPermissionDenied)
	assert.ErrorIs(t, m.StartDiscovery(context.Background()), link.ErrPermissionDenied)
}

func TestManager_Close(t *testing.T) {
	hub := memlink.NewHub()
	host, _ := newHost(t, hub)
	member, _ := newMember(t, hub, "m1", link.WithPeerSelector(link.FirstMatch(link.NamePrefix)))

	require.NoError(t, member.StartDiscovery(context.Background()))
	waitEvent(t, member.Events(), link.EventConnected)

	require.NoError(t, member.Close())
	require.NoError(t, member.Close())

	for range member.Events() {
	}
	assert.ErrorIs(t, member.StartDiscovery(context.Background()), link.ErrClosed)
	_, err := member.Connect(context.Background(), "host")
	assert.ErrorIs(t, err, link.ErrClosed)

	waitEvent(t, host.Events(), link.EventDisconnected)
}

func TestManager_AdvertisingUnsupported(t *testing.T) {
	m := link.NewManager(scanOnly{}, testLogger())
	defer m.Close()

	assert.ErrorIs(t, m.StartAdvertising(link.Advertisement{Name: "x"}), link.ErrTransportFailure)
	m.StopAdvertising()
}

// scanOnly is a transport that can neither advertise nor accept
type scanOnly struct{}

func (scanOnly) Initialize(context.Context) error { return nil }
func (scanOnly) RequestPermissions(context.Context) bool { return true }
func (scanOnly) StartScan(ctx context.Context, _ string) (<-chan link.DiscoveredPeer, error) {
	ch := make(chan link.DiscoveredPeer)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
func (scanOnly) StopScan() {}
func (scanOnly) Connect(context.Context, string, time.Duration) (link.Connection, error) {
	return nil, link.ErrNotFound
}
func (scanOnly) Send(context.Context, link.Connection, []byte) error { return link.ErrNotConnected }
func (scanOnly) Disconnect(link.Connection) error { return nil }
func (scanOnly) Shutdown() error { return nil }

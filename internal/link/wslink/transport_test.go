package wslink

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vasasync/internal/link"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHostTransport(t *testing.T) *Transport {
	t.Helper()

	host := New(Config{ID: "host", ListenAddr: "127.0.0.1:0"}, testLogger())
	require.NoError(t, host.Initialize(context.Background()))
	t.Cleanup(func() { _ = host.Shutdown() })

	require.NoError(t, host.StartAdvertising(link.Advertisement{Name: "VasaApp_host", GroupID: "g1"}))
	return host
}

func newMemberTransport(t *testing.T, seeds ...string) *Transport {
	t.Helper()

	member := New(Config{ID: "m1", Seeds: seeds, PollInterval: 20 * time.Millisecond}, testLogger())
	require.NoError(t, member.Initialize(context.Background()))
	t.Cleanup(func() { _ = member.Shutdown() })
	return member
}

func nextPeer(t *testing.T, peers <-chan link.DiscoveredPeer) link.DiscoveredPeer {
	t.Helper()
	select {
	case p, ok := <-peers:
		require.True(t, ok, "scan channel closed")
		return p
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timeout waiting for scan result")
		return link.DiscoveredPeer{}
	}
}

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case data, ok := <-ch:
		require.True(t, ok, "notifications closed")
		return data
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timeout waiting for notification")
		return nil
	}
}

func TestTransport_ScanConnectExchange(t *testing.T) {
	host := newHostTransport(t)
	member := newMemberTransport(t, host.Addr())

	peers, err := member.StartScan(context.Background(), link.ServiceID)
	require.NoError(t, err)

	p := nextPeer(t, peers)
	assert.Equal(t, link.DiscoveredPeer{ID: "host", Name: "VasaApp_host", GroupID: "g1"}, p)
	member.StopScan()

	conn, err := member.Connect(context.Background(), "host", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "host", conn.PeerID())

	var inbound link.Connection
	select {
	case inbound = <-host.Incoming():
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no inbound link")
	}
	assert.Equal(t, "m1", inbound.PeerID())

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, member.Send(context.Background(), conn, []byte(msg)))
	}
	assert.Equal(t, "first", string(receive(t, inbound.Notifications())))
	assert.Equal(t, "second", string(receive(t, inbound.Notifications())))
	assert.Equal(t, "third", string(receive(t, inbound.Notifications())))

	require.NoError(t, host.Send(context.Background(), inbound, []byte("ack")))
	assert.Equal(t, "ack", string(receive(t, conn.Notifications())))

	require.NoError(t, member.Disconnect(conn))
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-inbound.Notifications():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "Host sees the link close")

	assert.ErrorIs(t, member.Send(context.Background(), conn, []byte("late")), link.ErrNotConnected)
}

func TestTransport_ScanFiltersService(t *testing.T) {
	host := newHostTransport(t)
	require.NoError(t, host.StartAdvertising(link.Advertisement{Name: "Other", ServiceID: "other-service"}))

	member := newMemberTransport(t, host.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	peers, err := member.StartScan(ctx, link.ServiceID)
	require.NoError(t, err)

	for p := range peers {
		t.Fatalf("unexpected peer %v", p)
	}
}

func TestTransport_ConnectUnknownPeer(t *testing.T) {
	member := newMemberTransport(t)

	_, err := member.Connect(context.Background(), "host", time.Second)
	assert.ErrorIs(t, err, link.ErrNotFound)
}

func TestTransport_AdvertAndHealth(t *testing.T) {
	tr := New(Config{ID: "host"}, testLogger())
	srv := httptest.NewServer(tr.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/advert")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "Not advertising yet")

	require.NoError(t, tr.StartAdvertising(link.Advertisement{Name: "VasaApp_host", GroupID: "g1"}))

	resp, err = http.Get(srv.URL + "/advert")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var adv advertResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&adv))
	assert.Equal(t, advertResponse{ID: "host", Name: "VasaApp_host", GroupID: "g1", ServiceID: link.ServiceID}, adv)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	tr.StopAdvertising()
	resp2, err := http.Get(srv.URL + "/advert")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestTransport_LinkRequiresPeer(t *testing.T) {
	tr := New(Config{ID: "host"}, testLogger())
	srv := httptest.NewServer(tr.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/link")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransport_ManagerOverWebSocket(t *testing.T) {
	hostTr := newHostTransport(t)
	hostMgr := link.NewManager(hostTr, testLogger())
	defer hostMgr.Close()

	memberTr := New(Config{ID: "m1", Seeds: []string{hostTr.Addr()}, PollInterval: 20 * time.Millisecond}, testLogger())
	memberMgr := link.NewManager(memberTr, testLogger(), link.WithPeerSelector(link.GroupMatch("g1", link.NamePrefix)))
	defer memberMgr.Close()

	require.NoError(t, memberMgr.Initialize(context.Background()))
	require.NoError(t, memberMgr.StartDiscovery(context.Background()))

	waitFor := func(events <-chan link.Event, want link.EventType) link.Event {
		for {
			select {
			case ev := <-events:
				if ev.Type == want {
					return ev
				}
			case <-time.After(2 * time.Second):
				require.FailNow(t, "timeout waiting for event", want.String())
			}
		}
	}

	assert.Equal(t, "host", waitFor(memberMgr.Events(), link.EventConnected).PeerID)
	assert.Equal(t, "m1", waitFor(hostMgr.Events(), link.EventConnected).PeerID)

	require.NoError(t, memberMgr.Send(context.Background(), "host", []byte(`{"type":"PING","source":"m1"}`)))
	ev := waitFor(hostMgr.Events(), link.EventReceived)
	assert.JSONEq(t, `{"type":"PING","source":"m1"}`, string(ev.Data))
}

package memlink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/vasasync/internal/link"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case data, ok := <-ch:
		require.True(t, ok, "notifications closed")
		return data
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for notification")
		return nil
	}
}

func TestRadio_Scan(t *testing.T) {
	hub := NewHub()
	host := hub.NewRadio("host")
	other := hub.NewRadio("other")
	member := hub.NewRadio("member")

	require.NoError(t, host.StartAdvertising(link.Advertisement{Name: "VasaApp_host", GroupID: "g1"}))
	require.NoError(t, other.StartAdvertising(link.Advertisement{Name: "Speaker", ServiceID: "0000180d-0000-1000-8000-00805f9b34fb"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	peers, err := member.StartScan(ctx, link.ServiceID)
	require.NoError(t, err)

	p := <-peers
	assert.Equal(t, link.DiscoveredPeer{ID: "host", Name: "VasaApp_host", GroupID: "g1"}, p)

	// реклама, начатая во время скана, тоже видна
	late := hub.NewRadio("late")
	require.NoError(t, late.StartAdvertising(link.Advertisement{Name: "VasaApp_late"}))
	assert.Equal(t, "late", (<-peers).ID)

	member.StopScan()
	_, open := <-peers
	assert.False(t, open, "StopScan closes the channel")
}

func TestRadio_ScanDoesNotSeeItself(t *testing.T) {
	hub := NewHub()
	host := hub.NewRadio("host")
	require.NoError(t, host.StartAdvertising(link.Advertisement{Name: "VasaApp_host"}))

	ctx, cancel := context.WithCancel(context.Background())
	peers, err := host.StartScan(ctx, link.ServiceID)
	require.NoError(t, err)
	cancel()

	for p := range peers {
		t.Fatalf("unexpected peer %v", p)
	}
}

func TestRadio_ConnectAndSend(t *testing.T) {
	hub := NewHub()
	host := hub.NewRadio("host")
	member := hub.NewRadio("member")
	require.NoError(t, host.StartAdvertising(link.Advertisement{Name: "VasaApp_host"}))

	conn, err := member.Connect(context.Background(), "host", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "host", conn.PeerID())

	inbound := <-host.Incoming()
	assert.Equal(t, "member", inbound.PeerID())

	require.NoError(t, member.Send(context.Background(), conn, []byte("ENTRY")))
	require.NoError(t, member.Send(context.Background(), conn, []byte("PING")))
	assert.Equal(t, "ENTRY", string(receive(t, inbound.Notifications())))
	assert.Equal(t, "PING", string(receive(t, inbound.Notifications())))

	require.NoError(t, host.Send(context.Background(), inbound, []byte("ENTRY_ACK")))
	assert.Equal(t, "ENTRY_ACK", string(receive(t, conn.Notifications())))

	require.NoError(t, member.Disconnect(conn))
	_, open := <-inbound.Notifications()
	assert.False(t, open, "Remote side sees the disconnect")
	assert.ErrorIs(t, host.Send(context.Background(), inbound, []byte("x")), link.ErrNotConnected)
}

func TestRadio_ConnectErrors(t *testing.T) {
	hub := NewHub()
	member := hub.NewRadio("member")
	hub.NewRadio("silent")

	_, err := member.Connect(context.Background(), "nobody", time.Second)
	assert.ErrorIs(t, err, link.ErrNotFound)

	_, err = member.Connect(context.Background(), "silent", time.Second)
	assert.ErrorIs(t, err, link.ErrNotFound, "Radio that does not advertise cannot be connected")

	slow := hub.NewRadio("slow", WithConnectDelay(time.Second))
	require.NoError(t, slow.StartAdvertising(link.Advertisement{Name: "VasaApp_slow"}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = member.Connect(ctx, "slow", 20*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRadio_PermissionDenied(t *testing.T) {
	r := NewHub().NewRadio("r", WithPermissionDenied())

	assert.False(t, r.RequestPermissions(context.Background()))
	assert.ErrorIs(t, r.Initialize(context.Background()), link.ErrPermissionDenied)
	_, err := r.StartScan(context.Background(), link.ServiceID)
	assert.ErrorIs(t, err, link.ErrPermissionDenied)
	assert.ErrorIs(t, r.StartAdvertising(link.Advertisement{}), link.ErrPermissionDenied)
}

func TestRadio_Shutdown(t *testing.T) {
	hub := NewHub()
	host := hub.NewRadio("host")
	member := hub.NewRadio("member")
	require.NoError(t, host.StartAdvertising(link.Advertisement{Name: "VasaApp_host"}))

	conn, err := member.Connect(context.Background(), "host", time.Second)
	require.NoError(t, err)

	require.NoError(t, host.Shutdown())

	_, open := <-conn.Notifications()
	assert.False(t, open)

	_, err = member.Connect(context.Background(), "host", time.Second)
	assert.ErrorIs(t, err, link.ErrNotFound)
	assert.Error(t, host.Initialize(context.Background()))
}

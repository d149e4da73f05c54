package wslink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/iudanet/vasasync/internal/link"
)

// conn is one WebSocket link
type conn struct {
	ws      *websocket.Conn
	clock   clockwork.Clock
	logger  *slog.Logger
	out     chan []byte
	done    chan struct{}
	peerID  string
	once    sync.Once
	writeMu sync.Mutex
}

func newConn(ws *websocket.Conn, peerID string, clock clockwork.Clock, logger *slog.Logger) *conn {
	return &conn{
		ws:     ws,
		clock:  clock,
		logger: logger,
		out:    make(chan []byte),
		done:   make(chan struct{}),
		peerID: peerID,
	}
}

func (c *conn) PeerID() string {
	return c.peerID
}

func (c *conn) Notifications() <-chan []byte {
	return c.out
}

// readPump delivers inbound frames in order; Notifications is closed when it returns
func (c *conn) readPump() {
	defer close(c.out)
	defer c.close()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Link read failed", "peer_id", c.peerID, "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		select {
		case c.out <- message:
		case <-c.done:
			return
		}
	}
}

// pingPump keeps the link alive while nothing is sent
func (c *conn) pingPump() {
	ticker := c.clock.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.Chan():
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("Link ping failed", "peer_id", c.peerID, "error", err)
				c.close()
				return
			}
		}
	}
}

func (c *conn) send(ctx context.Context, data []byte) error {
	select {
	case <-c.done:
		return link.ErrNotConnected
	default:
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %w", link.ErrNotConnected, err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		select {
		case <-c.done:
			return link.ErrNotConnected
		default:
		}
		return fmt.Errorf("failed to write to %s: %w", c.peerID, err)
	}
	return nil
}

// close sends a close frame and releases the socket; safe to call repeatedly
func (c *conn) close() {
	c.once.Do(func() {
		close(c.done)

		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		_ = c.ws.Close()
	})
}

package sync

import (
	"context"
	"fmt"

	"github.com/iudanet/vasasync/internal/models"
	"github.com/iudanet/vasasync/internal/protocol"
)

// push is a running answer to one SyncRequest
type push struct {
	cancel context.CancelFunc
}

// insertOwn adds an entry created on the host itself
func (e *Engine) insertOwn(ctx context.Context, entry *models.Entry) error {
	inserted, err := e.store.InsertIfAbsent(ctx, entry.GroupID, entry)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	if inserted {
		entry.Synced = true
		e.logger.Info("Entry added", "entry_id", entry.ID, "group_id", entry.GroupID)
		e.emit(Event{Type: EventEntryReceived, Entry: entry})
	}
	return nil
}

// acceptEntry handles a member's submission. Duplicates are acked again:
// the member may have missed the first ack.
func (e *Engine) acceptEntry(peerID string, m protocol.EntrySubmit) {
	e.mu.Lock()
	groupID, userID := e.groupID, e.userID
	allowed := e.memberAllowedLocked(m.Entry.CreatedBy)
	e.mu.Unlock()

	// трафик чужих групп в эфире ожидаем, это не ошибка
	if m.GroupID != groupID || m.Entry.GroupID != groupID {
		e.logger.Debug("Discarding entry of another group",
			"peer_id", peerID, "entry_id", m.Entry.ID, "group_id", m.Entry.GroupID)
		return
	}
	if !allowed {
		e.logger.Debug("Discarding entry of a non-member",
			"peer_id", peerID, "entry_id", m.Entry.ID, "created_by", m.Entry.CreatedBy)
		return
	}

	inserted, err := e.store.InsertIfAbsent(e.ctx, groupID, m.Entry)
	if err != nil {
		// без ack участник пришлет запись снова
		e.logger.Error("Failed to store submitted entry", "entry_id", m.Entry.ID, "error", err)
		e.emit(Event{Type: EventSyncError, PeerID: peerID, Err: err})
		return
	}

	e.reply(peerID, protocol.EntryAck{Source: userID, EntryID: m.Entry.ID})

	if !inserted {
		e.logger.Debug("Duplicate entry acknowledged again", "peer_id", peerID, "entry_id", m.Entry.ID)
		return
	}

	entry := m.Entry.Clone()
	entry.Synced = true
	e.logger.Info("Entry received", "peer_id", peerID, "entry_id", entry.ID, "created_by", entry.CreatedBy)
	e.emit(Event{Type: EventEntryReceived, PeerID: peerID, Entry: entry})
}

func (e *Engine) memberAllowedLocked(userID string) bool {
	if e.members == nil || e.membersGroup != e.groupID {
		return true
	}
	_, ok := e.members[userID]
	return ok
}

// startPush answers a SyncRequest with the authoritative set, one entry per
// message in stored order. A newer request from the same peer replaces a
// running push.
func (e *Engine) startPush(peerID string, m protocol.SyncRequest) {
	e.mu.Lock()
	groupID, userID := e.groupID, e.userID
	e.mu.Unlock()

	if m.GroupID != groupID {
		e.logger.Debug("Discarding sync request of another group", "peer_id", peerID, "group_id", m.GroupID)
		return
	}

	entries, err := e.store.ListAll(e.ctx, groupID)
	if err != nil {
		e.logger.Error("Failed to list entries for sync", "group_id", groupID, "error", err)
		e.emit(Event{Type: EventSyncError, PeerID: peerID, Err: err})
		return
	}

	e.mu.Lock()
	if e.state != StateHosting || e.roleCtx == nil {
		e.mu.Unlock()
		return
	}
	if old, ok := e.pushes[peerID]; ok {
		old.cancel()
	}
	ctx, cancel := context.WithCancel(e.roleCtx)
	p := &push{cancel: cancel}
	e.pushes[peerID] = p
	e.roleWG.Add(1)
	e.mu.Unlock()

	e.logger.Info("Pushing entries", "peer_id", peerID, "group_id", groupID, "count", len(entries))

	go func() {
		defer e.roleWG.Done()
		defer func() {
			e.mu.Lock()
			if e.pushes[peerID] == p {
				delete(e.pushes, peerID)
			}
			e.mu.Unlock()
			cancel()
		}()

		for i, entry := range entries {
			if i > 0 && e.cfg.PushDelay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-e.clock.After(e.cfg.PushDelay):
				}
			}

			msg := protocol.EntrySubmit{Entry: entry, Source: userID, GroupID: groupID}
			if err := e.links.Send(ctx, peerID, protocol.Encode(msg)); err != nil {
				if ctx.Err() == nil {
					e.logger.Warn("Push interrupted", "peer_id", peerID, "sent", i, "error", err)
					e.emit(Event{Type: EventSyncError, PeerID: peerID, Err: err})
				}
				return
			}
		}
	}()
}

// pingLoop sends a liveness ping to every peer each PingInterval.
// A missing pong is not acted upon.
func (e *Engine) pingLoop(ctx context.Context) {
	defer e.roleWG.Done()

	ticker := e.clock.NewTicker(e.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			e.mu.Lock()
			peers, userID := e.peerListLocked(), e.userID
			e.mu.Unlock()

			data := protocol.Encode(protocol.Ping{Source: userID, Timestamp: e.clock.Now().UnixMilli()})
			for _, peerID := range peers {
				if err := e.links.Send(ctx, peerID, data); err != nil {
					e.logger.Debug("Ping failed", "peer_id", peerID, "error", err)
				}
			}
		}
	}
}

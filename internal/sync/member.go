package sync

import (
	"context"
	"fmt"

	"github.com/iudanet/vasasync/internal/models"
	"github.com/iudanet/vasasync/internal/protocol"
)

// enqueue queues a member's entry and sends it if a host is linked.
// The in-memory queue is updated first: a storage failure is returned but
// the entry is still retried.
func (e *Engine) enqueue(ctx context.Context, entry *models.Entry) error {
	entry.Synced = false

	e.mu.Lock()
	e.pending.put(entry)
	userID := e.userID
	peers := e.peerListLocked()
	e.mu.Unlock()

	if err := e.store.UpsertLocal(ctx, userID, entry); err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}

	if len(peers) == 0 {
		// офлайн это нормальный режим, запись ждет следующего линка
		e.logger.Info("No host link, entry queued", "entry_id", entry.ID)
		e.rediscover()
		return nil
	}

	data := protocol.Encode(protocol.EntrySubmit{Entry: entry, Source: userID, GroupID: entry.GroupID})
	for _, peerID := range peers {
		if err := e.links.Send(ctx, peerID, data); err != nil {
			e.logger.Warn("Failed to submit entry, it stays queued",
				"peer_id", peerID, "entry_id", entry.ID, "error", err)
			e.emit(Event{Type: EventSyncError, PeerID: peerID, Err: err})
		}
	}
	return nil
}

// syncPending merges the unsynced entries of the group from storage into the
// queue and submits the whole queue, in order, to peerID
func (e *Engine) syncPending(peerID string) {
	e.mu.Lock()
	userID, groupID := e.userID, e.groupID
	e.mu.Unlock()

	unsynced, err := e.store.ListUnsynced(e.ctx, userID, groupID)
	if err != nil {
		// очередь в памяти остается источником истины
		e.logger.Warn("Failed to load unsynced entries", "error", err)
		e.emit(Event{Type: EventSyncError, Err: err})
	}

	e.mu.Lock()
	for _, entry := range unsynced {
		e.pending.merge(entry)
	}
	queue := e.pending.list()
	e.mu.Unlock()

	if len(queue) == 0 {
		return
	}

	e.logger.Info("Submitting pending entries", "peer_id", peerID, "count", len(queue))

	for _, entry := range queue {
		msg := protocol.EntrySubmit{Entry: entry, Source: userID, GroupID: groupID}
		if err := e.links.Send(e.ctx, peerID, protocol.Encode(msg)); err != nil {
			e.logger.Warn("Pending sync interrupted", "peer_id", peerID, "entry_id", entry.ID, "error", err)
			e.emit(Event{Type: EventSyncError, PeerID: peerID, Err: err})
			return
		}
	}
}

// acknowledge marks entryID synced. SyncComplete fires when the ack empties
// the queue.
func (e *Engine) acknowledge(entryID string) {
	userID := e.self()

	if _, err := e.store.MarkSynced(e.ctx, userID, entryID); err != nil {
		// запись остается в очереди и будет отправлена снова
		e.logger.Error("Failed to mark entry synced", "entry_id", entryID, "error", err)
		e.emit(Event{Type: EventSyncError, Err: err})
		return
	}

	e.mu.Lock()
	removed := e.pending.remove(entryID)
	left := e.pending.len()
	e.mu.Unlock()

	if !removed {
		return
	}

	e.logger.Debug("Entry acknowledged", "entry_id", entryID, "pending", left)
	if left == 0 {
		e.logger.Info("All pending entries synced")
		e.emit(Event{Type: EventSyncComplete})
	}
}

// receivePush stores an entry pushed by the host. A push of one of our own
// entries proves the host has it, so it counts as an ack.
func (e *Engine) receivePush(peerID string, m protocol.EntrySubmit) {
	e.mu.Lock()
	userID, groupID := e.userID, e.groupID
	e.mu.Unlock()

	if m.GroupID != groupID || m.Entry.GroupID != groupID {
		e.logger.Debug("Discarding push of another group", "peer_id", peerID, "entry_id", m.Entry.ID)
		return
	}

	inserted, err := e.store.InsertIfAbsent(e.ctx, groupID, m.Entry)
	if err != nil {
		e.logger.Error("Failed to store pushed entry", "entry_id", m.Entry.ID, "error", err)
		e.emit(Event{Type: EventSyncError, PeerID: peerID, Err: err})
		return
	}

	if m.Entry.CreatedBy == userID {
		e.acknowledge(m.Entry.ID)
	}

	if inserted {
		entry := m.Entry.Clone()
		entry.Synced = true
		e.emit(Event{Type: EventEntryReceived, PeerID: peerID, Entry: entry})
	}
}

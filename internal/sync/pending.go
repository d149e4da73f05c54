package sync

import "github.com/iudanet/vasasync/internal/models"

// pendingQueue is the member's ordered set of unacknowledged entries.
// Insertion order is retry order. Not safe for concurrent use.
type pendingQueue struct {
	entries map[string]*models.Entry
	order   []string
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{entries: make(map[string]*models.Entry)}
}

// put adds entry or replaces the queued copy keeping its position
func (q *pendingQueue) put(entry *models.Entry) {
	if _, ok := q.entries[entry.ID]; !ok {
		q.order = append(q.order, entry.ID)
	}
	q.entries[entry.ID] = entry.Clone()
}

// merge adds entry only if it is not queued yet
func (q *pendingQueue) merge(entry *models.Entry) bool {
	if _, ok := q.entries[entry.ID]; ok {
		return false
	}
	q.put(entry)
	return true
}

func (q *pendingQueue) remove(id string) bool {
	if _, ok := q.entries[id]; !ok {
		return false
	}
	delete(q.entries, id)
	for i, v := range q.order {
		if v == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

func (q *pendingQueue) len() int {
	return len(q.order)
}

// list returns copies of the queued entries in retry order
func (q *pendingQueue) list() []*models.Entry {
	out := make([]*models.Entry, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.entries[id].Clone())
	}
	return out
}

func (q *pendingQueue) reset() {
	clear(q.entries)
	q.order = nil
}

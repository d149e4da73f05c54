// Package reconcile keeps the host's authoritative per-group entry sets and
// each member's local entry set on top of a storage.KV.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/iudanet/vasasync/internal/models"
	"github.com/iudanet/vasasync/internal/storage"
)

// Storage keys
const (
	GroupEntriesPrefix = "groupEntries_"
	EntriesPrefix      = "entries_"
)

// Store хранит записи в виде JSON списков. Порядок вставки сохраняется:
// ListAll возвращает записи в том порядке, в котором хост их принял.
type Store struct {
	kv storage.KV
	mu sync.Mutex
}

// NewStore creates a reconciliation store over kv
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// InsertIfAbsent adds entry to the authoritative set of groupID.
// Returns false if an entry with the same ID is already present.
// The stored copy is always marked synced.
func (s *Store) InsertIfAbsent(ctx context.Context, groupID string, entry *models.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := GroupEntriesPrefix + groupID
	entries, err := s.load(ctx, key)
	if err != nil {
		return false, err
	}

	if indexOf(entries, entry.ID) >= 0 {
		return false, nil
	}

	stored := entry.Clone()
	stored.Synced = true
	entries = append(entries, stored)

	if err := s.save(ctx, key, entries); err != nil {
		return false, err
	}

	return true, nil
}

// ListAll returns the authoritative snapshot of groupID in insertion order
func (s *Store) ListAll(ctx context.Context, groupID string) ([]*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, GroupEntriesPrefix+groupID)
}

// UpsertLocal сохраняет запись пользователя, заменяя запись с тем же ID
func (s *Store) UpsertLocal(ctx context.Context, userID string, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := EntriesPrefix + userID
	entries, err := s.load(ctx, key)
	if err != nil {
		return err
	}

	if i := indexOf(entries, entry.ID); i >= 0 {
		entries[i] = entry.Clone()
	} else {
		entries = append(entries, entry.Clone())
	}

	return s.save(ctx, key, entries)
}

// MarkSynced помечает локальную запись как подтверждённую хостом.
// Возвращает false, если записи нет или она уже была помечена.
func (s *Store) MarkSynced(ctx context.Context, userID, entryID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := EntriesPrefix + userID
	entries, err := s.load(ctx, key)
	if err != nil {
		return false, err
	}

	i := indexOf(entries, entryID)
	if i < 0 || entries[i].Synced {
		return false, nil
	}

	entries[i].MarkSynced()
	if err := s.save(ctx, key, entries); err != nil {
		return false, err
	}

	return true, nil
}

// ListUnsynced returns the user's entries of groupID not yet acknowledged by the host
func (s *Store) ListUnsynced(ctx context.Context, userID, groupID string) ([]*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx, EntriesPrefix+userID)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		if e.GroupID == groupID && !e.Synced {
			result = append(result, e)
		}
	}
	return result, nil
}

// ListLocal returns all entries created by userID
func (s *Store) ListLocal(ctx context.Context, userID string) ([]*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, EntriesPrefix+userID)
}

func (s *Store) load(ctx context.Context, key string) ([]*models.Entry, error) {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return []*models.Entry{}, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	var entries []*models.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return entries, nil
}

func (s *Store) save(ctx context.Context, key string, entries []*models.Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}

	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func indexOf(entries []*models.Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

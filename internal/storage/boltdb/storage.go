package boltdb

import (
	"context"
	"fmt"
	"sync"

	"go.etcd.io/bbolt"
)

// все ключи участника лежат в одном bucket
var bucketKV = []byte("kv")

// Storage is the member-side key-value store: the persisted user identity
// and other small settings that must survive an app restart.
type Storage struct {
	db *bbolt.DB
	mu sync.RWMutex
}

// New opens (or creates) the bolt file at dbPath, readable only by the
// owner, and makes sure the kv bucket exists. The file is released again
// if the bucket cannot be created.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open member store %s: %w", dbPath, err)
	}

	s := &Storage{db: db}
	if err := s.ensureBucket(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the bolt file lock. Safe to call more than once.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) ensureBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketKV); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucketKV, err)
		}
		return nil
	})
}

package store

import (
	"context"
	"sync"
	"time"

	"github.com/michaelzixizhou/codag/pkg/errors"
)

// MemoryStore is a process-local Store for tests and single-instance
// serving.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	latest  string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Save upserts a record by snapshot hash.
func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	if rec == nil || rec.Hash == "" {
		return errors.New(errors.ErrCodeInvalidInput, "record must have a hash")
	}
	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[cp.Hash] = &cp
	s.latest = cp.Hash
	return nil
}

// Get retrieves the record for a snapshot hash.
func (s *MemoryStore) Get(_ context.Context, hash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[hash]
	if !ok {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "no layout for snapshot %s", hash)
	}
	return rec, nil
}

// Latest retrieves the most recently saved record.
func (s *MemoryStore) Latest(_ context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == "" {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "store is empty")
	}
	return s.records[s.latest], nil
}

// Close is a no-op.
func (s *MemoryStore) Close(_ context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)

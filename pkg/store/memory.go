package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps jobs in a map. Records are copied in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	r, ok := s.records[id]
	s.mu.RUnlock()
	if !ok || r.Expired() {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) Put(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.UpdatedAt = time.Now().UTC()
	s.records[r.ID] = *r
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Record, error) {
	s.mu.RLock()
	var out []*Record
	for _, r := range s.records {
		if r.Expired() || (opts.GeneratorID != "" && r.GeneratorID != opts.GeneratorID) {
			continue
		}
		out = append(out, &r)
	}
	s.mu.RUnlock()
	return newestFirst(out, opts.Limit), nil
}

func (s *MemoryStore) Cleanup(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.records {
		if r.Expired() {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

// newestFirst sorts by CreatedAt descending, ID ascending on ties, and
// applies the limit.
func newestFirst(rs []*Record, limit int) []*Record {
	slices.SortFunc(rs, func(a, b *Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	return rs
}

var _ Store = (*MemoryStore)(nil)

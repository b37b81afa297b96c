package ledger

import (
	"context"
	"sync"
)

// MemoryStore is an in-process [Store]. Inserts are atomic under a single
// mutex; search walks insertion order. Suitable for a single-instance
// deployment and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

// Insert appends an entry. An id collision is rejected rather than
// overwritten; entries are append-only.
func (s *MemoryStore) Insert(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.ID]; exists {
		return ErrCorruptEntry
	}
	s.entries[entry.ID] = entry
	s.order = append(s.order, entry.ID)
	return nil
}

// Get returns the entry with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

// Search returns entries matching q in insertion order.
func (s *MemoryStore) Search(ctx context.Context, q Query) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, id := range s.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := s.entries[id]
		if !q.matches(entry) {
			continue
		}
		out = append(out, entry)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// tamper overwrites a stored entry in place. Test hook only; the exported
// API has no mutation path.
func (s *MemoryStore) tamper(id string, mutate func(*Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return false
	}
	mutate(&entry)
	s.entries[id] = entry
	return true
}

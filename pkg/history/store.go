package history

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the interface for history storage.
type Store interface {
	// Append adds an entry to the log, assigning an ID if unset.
	Append(e *Entry)

	// Get retrieves an entry by ID, nil when absent.
	Get(id string) *Entry

	// List returns entries in insertion order, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of stored entries.
	Count() int
}

// MemoryStore is a capacity-bounded in-memory Store. When full, the
// oldest entries are dropped.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []*Entry
	maxEntries int
}

// NewMemoryStore creates a MemoryStore holding up to maxEntries entries.
// A non-positive capacity defaults to 1000.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemoryStore{
		entries:    make([]*Entry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// Append implements Store.
func (s *MemoryStore) Append(e *Entry) {
	if e == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.maxEntries {
		drop := len(s.entries) - s.maxEntries + 1
		s.entries = append(s.entries[:0], s.entries[drop:]...)
	}
	s.entries = append(s.entries, e)
}

// Get implements Store.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// List implements Store.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Entry
	for _, e := range s.entries {
		if filter.accepts(e) {
			out = append(out, e)
		}
	}
	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(out) {
				return nil
			}
			out = out[filter.Offset:]
		}
		if filter.Limit > 0 && len(out) > filter.Limit {
			out = out[:filter.Limit]
		}
	}
	return out
}

// Clear implements Store.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

// Count implements Store.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

package wizard

import (
	"context"
	"sync"
	"time"

	domain "parker/internal/domain/wizard"
)

type memoryEntry struct {
	session *domain.Session
	touched time.Time
}

// MemoryStore keeps sessions in process memory. State is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store that forgets sessions idle for longer than ttl.
// A non-positive ttl uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create saves a new session and returns its id.
func (m *MemoryStore) Create(_ context.Context, s *domain.Session) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = memoryEntry{session: s.Clone(), touched: m.now()}
	return id, nil
}

// Get returns a copy of the session.
func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	return e.session.Clone(), nil
}

// Update applies fn to a copy under the store lock and keeps the copy only when fn succeeds.
func (m *MemoryStore) Update(_ context.Context, id string, fn func(s *domain.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return ErrNotFound
	}
	working := e.session.Clone()
	if err := fn(working); err != nil {
		return err
	}
	m.entries[id] = memoryEntry{session: working, touched: m.now()}
	return nil
}

// Delete removes the session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Sweep drops every idle session and reports how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.ttl)
	n := 0
	for id, e := range m.entries {
		if e.touched.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, idle ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// live returns the entry when it exists and is not idle. Caller holds mu.
func (m *MemoryStore) live(id string) (memoryEntry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if m.now().Sub(e.touched) > m.ttl {
		delete(m.entries, id)
		return memoryEntry{}, false
	}
	return e, true
}

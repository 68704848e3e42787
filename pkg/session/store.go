package session

import (
	"context"
	"sync"
	"time"
)

// Store is the interface for live session storage.
type Store interface {
	// Get returns the handle for sessionID.
	// Returns ErrNotFound if the session doesn't exist and ErrExpired if it
	// was idle longer than the store's TTL.
	Get(ctx context.Context, sessionID string) (*Handle, error)

	// Put registers a handle.
	Put(ctx context.Context, h *Handle) error

	// Delete closes and removes a session. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup closes and removes expired sessions.
	Cleanup(ctx context.Context) error
}

// MemoryStore keeps handles in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	handles map[string]*Handle
	ttl     time.Duration
}

// NewMemoryStore returns an empty store. A ttl of zero or less selects
// [DefaultTTL].
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{handles: make(map[string]*Handle), ttl: ttl}
}

func (m *MemoryStore) expired(h *Handle, now time.Time) bool {
	return now.Sub(h.LastUsed()) > m.ttl
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Handle, error) {
	m.mu.RLock()
	h, ok := m.handles[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(h, time.Now()) {
		_ = m.Delete(ctx, sessionID)
		return nil, ErrExpired
	}
	return h, nil
}

func (m *MemoryStore) Put(ctx context.Context, h *Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handles[h.ID()] = h
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	h, ok := m.handles[sessionID]
	delete(m.handles, sessionID)
	m.mu.Unlock()
	if ok {
		h.Close()
	}
	return nil
}

func (m *MemoryStore) Cleanup(ctx context.Context) error {
	now := time.Now()
	var stale []*Handle
	m.mu.Lock()
	for id, h := range m.handles {
		if m.expired(h, now) {
			stale = append(stale, h)
			delete(m.handles, id)
		}
	}
	m.mu.Unlock()
	for _, h := range stale {
		h.Close()
	}
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

// Close closes every session.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[string]*Handle)
	m.mu.Unlock()
	for _, h := range handles {
		h.Close()
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)

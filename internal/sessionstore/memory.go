package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/mcxraider/agentic-travel-planner-backend/internal/interview"
)

// MemoryConfig tunes the in-memory store. A zero TTL disables expiry.
type MemoryConfig struct {
	TTL   time.Duration
	Clock func() time.Time
}

type memoryEntry struct {
	session   *interview.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in a mutex-guarded map. Get and Put exchange
// deep copies, so a caller mutating its snapshot never leaks partial state
// into the store.
type MemoryStore struct {
	mu       sync.Mutex
	cfg      MemoryConfig
	sessions map[string]memoryEntry
}

func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &MemoryStore{cfg: cfg, sessions: map[string]memoryEntry{}}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*interview.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.session.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, s *interview.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	entry := memoryEntry{session: s.Clone()}
	if m.cfg.TTL > 0 {
		entry.expiresAt = m.cfg.Clock().Add(m.cfg.TTL)
	}
	m.sessions[s.ID] = entry
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) sweepLocked() {
	if m.cfg.TTL <= 0 {
		return
	}
	now := m.cfg.Clock()
	for id, entry := range m.sessions {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(m.sessions, id)
		}
	}
}

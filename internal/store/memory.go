package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	prompts   []string
	updatedAt time.Time
}

// MemoryStore keeps history in process. Entries untouched for longer than
// ttl are dropped on read; a zero ttl keeps them forever.
type MemoryStore struct {
	mu         sync.Mutex
	sessions   map[string]*memoryEntry
	maxPrompts int
	ttl        time.Duration
	now        func() time.Time
}

func NewMemoryStore(maxPrompts int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]*memoryEntry),
		maxPrompts: maxPrompts,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (m *MemoryStore) Append(_ context.Context, sessionID, prompt string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok || m.expiredLocked(e) {
		e = &memoryEntry{}
		m.sessions[sessionID] = e
	}
	e.prompts = append(e.prompts, prompt)
	e.updatedAt = m.now()
	m.trimLocked(e)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) ([]string, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if m.expiredLocked(e) {
		delete(m.sessions, sessionID)
		return nil, nil
	}
	return append([]string(nil), e.prompts...), nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) expiredLocked(e *memoryEntry) bool {
	return m.ttl > 0 && m.now().Sub(e.updatedAt) > m.ttl
}

func (m *MemoryStore) trimLocked(e *memoryEntry) {
	if m.maxPrompts > 0 && len(e.prompts) > m.maxPrompts {
		e.prompts = append([]string(nil), e.prompts[len(e.prompts)-m.maxPrompts:]...)
	}
}

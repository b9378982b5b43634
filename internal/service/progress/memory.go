package progress

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a MemoryStore whose sessions expire ttl after their last write
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Start(ctx context.Context, id, userID, operation string, total int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()

	if e, ok := m.sessions[id]; ok && !e.session.Done() {
		return nil, apperrors.New(apperrors.CodeConflict, "session is already running")
	}
	now := m.now()
	s := newSession(id, userID, operation, total, now)
	m.sessions[id] = &memoryEntry{session: *s, expiresAt: now.Add(m.ttl)}
	return s, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, item ItemState) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	now := m.now()
	e.session.apply(item, now)
	e.expiresAt = now.Add(m.ttl)
	return copySession(&e.session), nil
}

func (m *MemoryStore) Finish(ctx context.Context, id string, cause error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	now := m.now()
	e.session.finish(cause, now)
	e.expiresAt = now.Add(m.ttl)
	return copySession(&e.session), nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return copySession(&e.session), nil
}

func (m *MemoryStore) lookup(id string) (*memoryEntry, error) {
	e, ok := m.sessions[id]
	if !ok || !m.now().Before(e.expiresAt) {
		delete(m.sessions, id)
		return nil, apperrors.New(apperrors.CodeNotFound, "progress session not found")
	}
	return e, nil
}

func (m *MemoryStore) prune() {
	now := m.now()
	for id, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, id)
		}
	}
}

func copySession(s *Session) *Session {
	cp := *s
	cp.Items = append([]ItemState(nil), s.Items...)
	return &cp
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process [Store] for tests and single-node development.
// Expired sessions are dropped lazily on Get.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session

	// now is swappable in tests.
	now func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	if !sess.ExpiredAt.After(s.now()) {
		delete(s.sessions, id)
		return nil, nil
	}
	out := sess
	return &out, nil
}

func (s *MemoryStore) Create(_ context.Context, pre PreSession) (*Session, error) {
	if !pre.ExpiredAt.After(s.now()) {
		return nil, ErrExpiredPreSession
	}

	sess := Session{
		ID:         uuid.NewString(),
		EntityName: pre.EntityName,
		UserID:     pre.UserID,
		ExpiredAt:  pre.ExpiredAt,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	out := sess
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok, nil
}

package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session *Session
	userID  int
	expires time.Time
}

// MemoryStore представляет хранилище в памяти процесса для разработки и тестов.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	codes    map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		codes:    make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = memoryEntry{session: &cp, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || s.now().After(e.expires) {
		delete(s.sessions, id)
		return nil, ErrNoSession
	}
	cp := *e.session
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) PutCode(_ context.Context, code string, userID int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = memoryEntry{userID: userID, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) TakeCode(_ context.Context, code string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.codes[code]
	delete(s.codes, code)
	if !ok || s.now().After(e.expires) {
		return 0, ErrInvalidCode
	}
	return e.userID, nil
}

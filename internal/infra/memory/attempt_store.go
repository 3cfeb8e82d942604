package memory

import (
	"sync"

	"learnloop-attempt-service/internal/app"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// Sessions own live timer goroutines, so they always live in-process.
type AttemptStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.AttemptSession
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		sessions: make(map[string]*app.AttemptSession),
	}
}

func (s *AttemptStore) Add(session *app.AttemptSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
}

func (s *AttemptStore) Get(attemptID string) (*app.AttemptSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[attemptID]
	return session, ok
}

func (s *AttemptStore) Remove(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, attemptID)
}

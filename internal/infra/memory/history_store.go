package memory

import (
	"context"
	"sync"

	"learnloop-attempt-service/internal/domain"
)

// HistoryStore keeps each user's completed attempts and badge set in memory,
// ordered oldest first.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string][]domain.AttemptRecord
	badges  map[string][]domain.Badge
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		records: make(map[string][]domain.AttemptRecord),
		badges:  make(map[string][]domain.Badge),
	}
}

func (s *HistoryStore) Records(_ context.Context, userID string) ([]domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AttemptRecord(nil), s.records[userID]...), nil
}

func (s *HistoryStore) Badges(_ context.Context, userID string) ([]domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Badge(nil), s.badges[userID]...), nil
}

func (s *HistoryStore) Append(_ context.Context, record domain.AttemptRecord, newBadges []domain.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = append(s.records[record.UserID], record)
	s.badges[record.UserID] = append(s.badges[record.UserID], newBadges...)
	return nil
}

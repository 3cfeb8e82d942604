package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"learnloop-attempt-service/internal/domain"
)

// HistoryStore keeps completed attempts and badges in Redis:
//
//	RPUSH user:{userID}:attempts {record JSON}   (oldest first)
//	HSET  user:{userID}:badges {type:level} {badge JSON}
//
// A zero TTL keeps history forever; otherwise keys refresh on every append.
type HistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHistoryStore(client *redis.Client, ttl time.Duration) *HistoryStore {
	return &HistoryStore{client: client, ttl: ttl}
}

func (s *HistoryStore) Records(ctx context.Context, userID string) ([]domain.AttemptRecord, error) {
	raw, err := s.client.LRange(ctx, s.recordsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load attempt history: %w", err)
	}
	records := make([]domain.AttemptRecord, 0, len(raw))
	for _, item := range raw {
		var record domain.AttemptRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("unmarshal attempt record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *HistoryStore) Badges(ctx context.Context, userID string) ([]domain.Badge, error) {
	raw, err := s.client.HGetAll(ctx, s.badgesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load badges: %w", err)
	}
	badges := make([]domain.Badge, 0, len(raw))
	for _, item := range raw {
		var badge domain.Badge
		if err := json.Unmarshal([]byte(item), &badge); err != nil {
			return nil, fmt.Errorf("unmarshal badge: %w", err)
		}
		badges = append(badges, badge)
	}
	return badges, nil
}

func (s *HistoryStore) Append(ctx context.Context, record domain.AttemptRecord, newBadges []domain.Badge) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal attempt record: %w", err)
	}

	recordsKey := s.recordsKey(record.UserID)
	badgesKey := s.badgesKey(record.UserID)

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, recordsKey, data)
	for _, badge := range newBadges {
		encoded, err := json.Marshal(badge)
		if err != nil {
			return fmt.Errorf("marshal badge: %w", err)
		}
		pipe.HSet(ctx, badgesKey, badge.Key(), encoded)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, recordsKey, s.ttl)
		pipe.Expire(ctx, badgesKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append attempt history: %w", err)
	}
	return nil
}

func (s *HistoryStore) recordsKey(userID string) string {
	return "user:" + userID + ":attempts"
}

func (s *HistoryStore) badgesKey(userID string) string {
	return "user:" + userID + ":badges"
}

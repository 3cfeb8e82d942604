package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"learnloop-attempt-service/internal/domain"
)

// AttemptRecorder persists completed attempts and awarded badges. Records are
// written once; an attempt ID never changes after submission, so conflicts
// are ignored rather than overwritten.
type AttemptRecorder struct {
	pool *pgxpool.Pool
}

func NewAttemptRecorder(pool *pgxpool.Pool) *AttemptRecorder {
	return &AttemptRecorder{pool: pool}
}

func (r *AttemptRecorder) RecordAttempt(ctx context.Context, record domain.AttemptRecord, newBadges []domain.Badge) error {
	result, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin record attempt: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO quiz_attempts (id, quiz_id, user_id, category, status, result, limit_seconds, started_at, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		record.AttemptID, record.QuizID, record.UserID, record.Category,
		string(record.Status), result, record.LimitSeconds, record.StartedAt, record.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	for _, badge := range newBadges {
		_, err = tx.Exec(ctx,
			`INSERT INTO user_badges (user_id, badge_type, level, name, attempt_id, earned_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (user_id, badge_type, level) DO NOTHING`,
			record.UserID, string(badge.Type), string(badge.Level), badge.Name, record.AttemptID, badge.EarnedAt,
		)
		if err != nil {
			return fmt.Errorf("insert badge: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit record attempt: %w", err)
	}
	return nil
}

// AttemptsByUser lists persisted attempts for a user, oldest first.
func (r *AttemptRecorder) AttemptsByUser(ctx context.Context, userID string) ([]domain.AttemptRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, user_id, category, status, result, limit_seconds, started_at, submitted_at
		 FROM quiz_attempts WHERE user_id=$1 ORDER BY submitted_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var records []domain.AttemptRecord
	for rows.Next() {
		var (
			record domain.AttemptRecord
			status string
			result []byte
		)
		if err := rows.Scan(&record.AttemptID, &record.QuizID, &record.UserID, &record.Category,
			&status, &result, &record.LimitSeconds, &record.StartedAt, &record.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		record.Status = domain.AttemptStatus(status)
		if err := json.Unmarshal(result, &record.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

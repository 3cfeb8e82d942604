package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"learnloop-attempt-service/internal/domain"
)

func TestHistoryStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewHistoryStore(client, time.Hour)

	records, err := store.Records(ctx, "u1")
	if err != nil {
		t.Fatalf("records on empty store: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history, got %+v", records)
	}

	record := domain.AttemptRecord{
		AttemptID:   "a1",
		QuizID:      "quiz-1",
		UserID:      "u1",
		Category:    "math",
		Status:      domain.StatusSubmitted,
		Result:      domain.Result{Score: 75, CorrectCount: 3, IncorrectCount: 1, Passed: true, TimeTakenSeconds: 42},
		SubmittedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	badge := domain.Badge{
		Type:     domain.BadgeQuizNovice,
		Level:    domain.LevelBronze,
		Name:     "Quiz Novice",
		EarnedAt: record.SubmittedAt,
	}

	if err := store.Append(ctx, record, []domain.Badge{badge}); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err = store.Records(ctx, "u1")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].Result.Score != 75 || !records[0].Result.Passed {
		t.Fatalf("unexpected history: %+v", records)
	}

	badges, err := store.Badges(ctx, "u1")
	if err != nil {
		t.Fatalf("badges: %v", err)
	}
	if len(badges) != 1 || badges[0].Key() != "QUIZ_NOVICE:BRONZE" {
		t.Fatalf("unexpected badges: %+v", badges)
	}

	// Re-awarding the same key overwrites, not duplicates.
	if err := store.Append(ctx, record, []domain.Badge{badge}); err != nil {
		t.Fatalf("append again: %v", err)
	}
	badges, _ = store.Badges(ctx, "u1")
	if len(badges) != 1 {
		t.Fatalf("expected deduped badge set, got %+v", badges)
	}

	if mr.TTL("user:u1:attempts") <= 0 {
		t.Fatalf("expected TTL on history key")
	}
}

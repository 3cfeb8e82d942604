package memory

import (
	"context"
	"testing"
	"time"

	"learnloop-attempt-service/internal/domain"
)

func TestHistoryStoreAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewHistoryStore()

	records, err := store.Records(ctx, "u1")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history, got %+v", records)
	}

	first := record("a1", 60)
	second := record("a2", 90)
	badge := domain.Badge{Type: domain.BadgeQuizNovice, Level: domain.LevelBronze, Name: "Quiz Novice"}

	if err := store.Append(ctx, first, []domain.Badge{badge}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, second, nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, _ = store.Records(ctx, "u1")
	if len(records) != 2 || records[0].AttemptID != "a1" || records[1].AttemptID != "a2" {
		t.Fatalf("expected oldest-first history, got %+v", records)
	}

	badges, _ := store.Badges(ctx, "u1")
	if len(badges) != 1 || badges[0].Type != domain.BadgeQuizNovice {
		t.Fatalf("expected the stored badge, got %+v", badges)
	}

	// Histories are per user.
	records, _ = store.Records(ctx, "u2")
	if len(records) != 0 {
		t.Fatalf("expected no history for another user, got %+v", records)
	}
}

func record(attemptID string, score int) domain.AttemptRecord {
	return domain.AttemptRecord{
		AttemptID:   attemptID,
		QuizID:      "quiz-1",
		UserID:      "u1",
		Status:      domain.StatusSubmitted,
		Result:      domain.Result{Score: score, Passed: score >= 70},
		SubmittedAt: time.Now(),
	}
}

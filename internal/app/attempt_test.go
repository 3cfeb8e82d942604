package app

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"learnloop-attempt-service/internal/domain"
)

func untimedQuiz() domain.Quiz {
	quiz := fourQuestionQuiz()
	quiz.TimeLimitMinutes = 0
	return quiz
}

func countingFinish(calls *atomic.Int32) CompletionFunc {
	return func(record domain.AttemptRecord) []domain.Badge {
		calls.Add(1)
		return []domain.Badge{{
			Type:     domain.BadgeQuizNovice,
			Level:    domain.LevelBronze,
			Name:     "Quiz Novice",
			EarnedAt: record.SubmittedAt,
		}}
	}
}

func TestSessionDoubleStart(t *testing.T) {
	session := NewAttemptSession()
	if _, err := session.Start(untimedQuiz(), "u1", nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := session.Start(untimedQuiz(), "u1", nil); !errors.Is(err, domain.ErrAlreadyStarted) {
		t.Fatalf("expected already-started error, got %v", err)
	}
}

func TestSessionSubmitIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	session := NewAttemptSession()
	if _, err := session.Start(untimedQuiz(), "u1", countingFinish(&calls)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := session.SetAnswer(0, []int{0}); err != nil {
		t.Fatalf("set answer: %v", err)
	}

	first, err := session.Submit(domain.SubmitManual)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Status != domain.StatusSubmitted || first.Reason != domain.SubmitManual {
		t.Fatalf("expected manual submission, got %+v", first)
	}

	// A racing timer path must be a no-op returning the same outcome.
	second, err := session.Submit(domain.SubmitTimerExpired)
	if err != nil {
		t.Fatalf("repeat submit: %v", err)
	}
	if second.Result != first.Result || second.Reason != first.Reason {
		t.Fatalf("repeat submit changed the outcome: %+v vs %+v", second, first)
	}
	if len(second.NewBadges) != len(first.NewBadges) {
		t.Fatalf("repeat submit changed badges: %+v vs %+v", second.NewBadges, first.NewBadges)
	}
	if calls.Load() != 1 {
		t.Fatalf("completion ran %d times, want 1", calls.Load())
	}

	if _, err := session.SetAnswer(1, []int{1}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state after submission, got %v", err)
	}
}

func TestSessionSubmitRace(t *testing.T) {
	var calls atomic.Int32
	session := NewAttemptSession()
	if _, err := session.Start(untimedQuiz(), "u1", countingFinish(&calls)); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 2)
	for i, reason := range []domain.SubmitReason{domain.SubmitManual, domain.SubmitTimerExpired} {
		wg.Add(1)
		go func(i int, reason domain.SubmitReason) {
			defer wg.Done()
			out, err := session.Submit(reason)
			if err != nil {
				t.Errorf("submit %s: %v", reason, err)
				return
			}
			outcomes[i] = out
		}(i, reason)
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("completion ran %d times under race, want 1", calls.Load())
	}
	if outcomes[0].Result != outcomes[1].Result {
		t.Fatalf("racing submits saw different results: %+v vs %+v", outcomes[0], outcomes[1])
	}
}

func TestSessionAutoSubmitsOnExpiry(t *testing.T) {
	var calls atomic.Int32
	session := NewAttemptSession()
	// One-second limit via the internal hook; the public path converts
	// minutes.
	if _, err := session.start(fourQuestionQuiz(), "u1", 1, countingFinish(&calls)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := session.SetAnswer(0, []int{0}); err != nil {
		t.Fatalf("set answer: %v", err)
	}

	watch, cancel := session.Watch()
	defer cancel()

	select {
	case out := <-watch:
		if out.Reason != domain.SubmitTimerExpired || out.Status != domain.StatusExpired {
			t.Fatalf("expected expiry submission, got %+v", out)
		}
		// The partial ledger is scored as-is: 1 of 4 correct.
		if out.Result.CorrectCount != 1 || out.Result.UnansweredCount != 3 {
			t.Fatalf("expected partial ledger scored as-is, got %+v", out.Result)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timer never forced a submission")
	}

	if calls.Load() != 1 {
		t.Fatalf("completion ran %d times, want 1", calls.Load())
	}
	if status := session.Status(); status != domain.StatusExpired {
		t.Fatalf("expected expired status, got %s", status)
	}
}

func TestSessionAbandon(t *testing.T) {
	session := NewAttemptSession()
	if _, err := session.start(fourQuestionQuiz(), "u1", 60, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	watch, cancel := session.Watch()
	defer cancel()

	if err := session.Abandon(); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, ok := <-watch; ok {
		t.Fatal("abandon must close the watch without an outcome")
	}

	if _, err := session.Submit(domain.SubmitManual); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state submitting an abandoned attempt, got %v", err)
	}
	if err := session.Abandon(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state on double abandon, got %v", err)
	}
}

func TestSessionClampsTimeTaken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	quiz := fourQuestionQuiz()
	quiz.TimeLimitMinutes = 1
	session := NewAttemptSessionWithClock(clock)
	if _, err := session.Start(quiz, "u1", nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	now = now.Add(2 * time.Minute)
	out, err := session.Submit(domain.SubmitManual)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Result.TimeTakenSeconds != 60 {
		t.Fatalf("expected time taken clamped to the limit, got %d", out.Result.TimeTakenSeconds)
	}
}

func TestSessionProgress(t *testing.T) {
	session := NewAttemptSession()
	if _, err := session.Start(untimedQuiz(), "u1", nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	if got := session.ProgressPercent(); got != 0 {
		t.Fatalf("expected 0%% progress, got %d", got)
	}
	if _, err := session.SetAnswer(0, []int{0}); err != nil {
		t.Fatalf("set answer: %v", err)
	}
	if got := session.ProgressPercent(); got != 25 {
		t.Fatalf("expected 25%% progress, got %d", got)
	}
	if got := session.UnansweredIndices(); len(got) != 3 {
		t.Fatalf("expected 3 unanswered, got %v", got)
	}
}

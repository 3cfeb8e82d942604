package app

import (
	"context"
	"log"
	"time"

	"learnloop-attempt-service/internal/domain"
)

// AttemptRepository holds the live attempt sessions by attempt ID.
type AttemptRepository interface {
	Add(session *AttemptSession)
	Get(attemptID string) (*AttemptSession, bool)
	Remove(attemptID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// HistoryRepository is the per-user working set of completed attempts and
// owned badges that badge evaluation runs against.
type HistoryRepository interface {
	Records(ctx context.Context, userID string) ([]domain.AttemptRecord, error)
	Badges(ctx context.Context, userID string) ([]domain.Badge, error)
	Append(ctx context.Context, record domain.AttemptRecord, newBadges []domain.Badge) error
}

// AttemptRecorder is an optional durable sink for completed attempts.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, record domain.AttemptRecord, newBadges []domain.Badge) error
}

// AttemptService contains the attempt-engine use cases.
type AttemptService struct {
	attempts AttemptRepository
	quizzes  QuizRepository
	history  HistoryRepository
	badges   *BadgeEvaluator
	recorder AttemptRecorder
	now      func() time.Time
}

func NewAttemptService(attempts AttemptRepository, quizzes QuizRepository, history HistoryRepository, badges *BadgeEvaluator) *AttemptService {
	return &AttemptService{
		attempts: attempts,
		quizzes:  quizzes,
		history:  history,
		badges:   badges,
		now:      time.Now,
	}
}

// WithRecorder attaches a durable attempt sink (e.g. postgres).
func (s *AttemptService) WithRecorder(recorder AttemptRecorder) *AttemptService {
	s.recorder = recorder
	return s
}

// WithClock is test-only for deterministic timestamps.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// StartedAttempt is the initial state handed back by StartAttempt.
type StartedAttempt struct {
	AttemptID        string `json:"attemptId"`
	QuizID           string `json:"quizId"`
	QuestionCount    int    `json:"questionCount"`
	RemainingSeconds int    `json:"remainingSeconds"`
	Unlimited        bool   `json:"unlimited"`
}

// StartAttempt loads the quiz and spins up a new attempt session. Quizzes
// without questions are rejected before any session exists.
func (s *AttemptService) StartAttempt(ctx context.Context, quizID, userID string) (StartedAttempt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return StartedAttempt{}, err
	}
	if len(quiz.Questions) == 0 {
		return StartedAttempt{}, domain.ErrEmptyQuiz
	}

	session := NewAttemptSessionWithClock(s.now)
	attemptID, err := session.Start(quiz, userID, s.finish)
	if err != nil {
		return StartedAttempt{}, err
	}
	s.attempts.Add(session)

	remaining, unlimited := session.Remaining()
	return StartedAttempt{
		AttemptID:        attemptID,
		QuizID:           quiz.ID,
		QuestionCount:    len(quiz.Questions),
		RemainingSeconds: remaining,
		Unlimited:        unlimited,
	}, nil
}

// RecordAnswer applies one selection and returns the unanswered count.
func (s *AttemptService) RecordAnswer(_ context.Context, attemptID string, questionIndex int, optionIndices []int) (int, error) {
	session, ok := s.attempts.Get(attemptID)
	if !ok {
		return 0, domain.ErrAttemptNotFound
	}
	return session.SetAnswer(questionIndex, optionIndices)
}

// SubmitAttempt completes the attempt. Repeat calls, from either the manual
// path or the timer, return the already-computed outcome.
func (s *AttemptService) SubmitAttempt(_ context.Context, attemptID string, reason domain.SubmitReason) (Outcome, error) {
	session, ok := s.attempts.Get(attemptID)
	if !ok {
		return Outcome{}, domain.ErrAttemptNotFound
	}
	return session.Submit(reason)
}

// AbandonAttempt discards an in-progress attempt. Nothing is graded or
// persisted and the session is dropped.
func (s *AttemptService) AbandonAttempt(_ context.Context, attemptID string) error {
	session, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if err := session.Abandon(); err != nil {
		return err
	}
	s.attempts.Remove(attemptID)
	return nil
}

// RemainingTime reports seconds left for a timed attempt, or unlimited=true.
func (s *AttemptService) RemainingTime(_ context.Context, attemptID string) (int, bool, error) {
	session, ok := s.attempts.Get(attemptID)
	if !ok {
		return 0, false, domain.ErrAttemptNotFound
	}
	remaining, unlimited := session.Remaining()
	return remaining, unlimited, nil
}

// UnansweredIndices supports the submit-confirmation policy.
func (s *AttemptService) UnansweredIndices(_ context.Context, attemptID string) ([]int, error) {
	session, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return session.UnansweredIndices(), nil
}

// WatchAttempt returns a channel that receives the completion outcome, e.g.
// a timer-forced submission. The caller must invoke cancel to avoid leaks.
func (s *AttemptService) WatchAttempt(_ context.Context, attemptID string) (<-chan Outcome, func(), error) {
	session, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, nil, domain.ErrAttemptNotFound
	}
	ch, cancel := session.Watch()
	return ch, cancel, nil
}

// History lists the user's completed attempts, oldest first.
func (s *AttemptService) History(ctx context.Context, userID string) ([]domain.AttemptRecord, error) {
	return s.history.Records(ctx, userID)
}

// HistoryForQuiz lists the user's completed attempts at one quiz, oldest
// first.
func (s *AttemptService) HistoryForQuiz(ctx context.Context, userID, quizID string) ([]domain.AttemptRecord, error) {
	records, err := s.history.Records(ctx, userID)
	if err != nil {
		return nil, err
	}
	var filtered []domain.AttemptRecord
	for _, record := range records {
		if record.QuizID == quizID {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// UserBadges lists the badges the user holds.
func (s *AttemptService) UserBadges(ctx context.Context, userID string) ([]domain.Badge, error) {
	return s.history.Badges(ctx, userID)
}

// finish runs inside the session's submission critical section: evaluate
// badges against history, then persist. Persistence failures are logged, not
// surfaced; the graded result must still reach the caller.
func (s *AttemptService) finish(record domain.AttemptRecord) []domain.Badge {
	ctx := context.Background()

	history, err := s.history.Records(ctx, record.UserID)
	if err != nil {
		log.Printf("load history for %s: %v", record.UserID, err)
	}
	owned, err := s.history.Badges(ctx, record.UserID)
	if err != nil {
		log.Printf("load badges for %s: %v", record.UserID, err)
	}

	newBadges := s.badges.Evaluate(record, history, owned)

	if err := s.history.Append(ctx, record, newBadges); err != nil {
		log.Printf("append history for %s: %v", record.UserID, err)
	}
	if s.recorder != nil {
		if err := s.recorder.RecordAttempt(ctx, record, newBadges); err != nil {
			log.Printf("record attempt %s: %v", record.AttemptID, err)
		}
	}
	return newBadges
}

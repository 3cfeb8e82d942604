package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"learnloop-attempt-service/internal/domain"
)

// Outcome is what a completed attempt hands back to the caller.
type Outcome struct {
	AttemptID string               `json:"attemptId"`
	Reason    domain.SubmitReason  `json:"reason"`
	Result    domain.Result        `json:"result"`
	NewBadges []domain.Badge       `json:"newBadges"`
	Status    domain.AttemptStatus `json:"status"`
}

// CompletionFunc runs once per attempt, inside the submission critical
// section, to evaluate badges and persist the record. It must not call back
// into the session.
type CompletionFunc func(record domain.AttemptRecord) []domain.Badge

// AttemptSession is the state machine for one user's single pass at a quiz:
// NotStarted -> InProgress -> {Submitted, Expired, Abandoned}. It owns its
// ledger and countdown exclusively; a retake is a brand-new session.
type AttemptSession struct {
	mu        sync.Mutex
	id        string
	quiz      domain.Quiz
	userID    string
	status    domain.AttemptStatus
	startedAt time.Time
	now       func() time.Time
	ledger    *AnswerLedger
	timer     *CountdownTimer
	finish    CompletionFunc
	outcome   *Outcome
	watchers  map[chan Outcome]struct{}
}

func NewAttemptSession() *AttemptSession {
	return NewAttemptSessionWithClock(time.Now)
}

// NewAttemptSessionWithClock is test-only for deterministic timestamps.
func NewAttemptSessionWithClock(now func() time.Time) *AttemptSession {
	return &AttemptSession{
		status:   domain.StatusNotStarted,
		now:      now,
		watchers: make(map[chan Outcome]struct{}),
	}
}

// Start allocates the attempt ID, sizes the ledger, and arms the countdown
// when the quiz is timed. Starting twice fails with ErrAlreadyStarted.
func (s *AttemptSession) Start(quiz domain.Quiz, userID string, finish CompletionFunc) (string, error) {
	return s.start(quiz, userID, quiz.TimeLimitMinutes*60, finish)
}

func (s *AttemptSession) start(quiz domain.Quiz, userID string, limitSeconds int, finish CompletionFunc) (string, error) {
	s.mu.Lock()
	if s.status != domain.StatusNotStarted {
		s.mu.Unlock()
		return "", domain.ErrAlreadyStarted
	}

	s.id = uuid.NewString()
	s.quiz = quiz
	s.userID = userID
	s.startedAt = s.now()
	s.status = domain.StatusInProgress
	s.ledger = NewAnswerLedger(len(quiz.Questions))
	s.finish = finish
	s.timer = NewCountdownTimer(limitSeconds)
	s.mu.Unlock()

	// The timer stops itself when it fires; the expiry path must not call
	// Stop again.
	s.timer.Start(func() {
		_, _ = s.Submit(domain.SubmitTimerExpired)
	})
	return s.id, nil
}

// SetAnswer overwrites one ledger entry and reports how many questions remain
// unanswered. Valid only while the attempt is in progress.
func (s *AttemptSession) SetAnswer(questionIndex int, optionIndices []int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusInProgress {
		return 0, fmt.Errorf("%w: attempt is %s", domain.ErrInvalidState, s.status)
	}
	if questionIndex < 0 || questionIndex >= len(s.quiz.Questions) {
		return 0, fmt.Errorf("%w: question index %d out of range", domain.ErrValidation, questionIndex)
	}
	if err := s.ledger.SetSelection(questionIndex, optionIndices, s.quiz.Questions[questionIndex]); err != nil {
		return 0, err
	}
	return s.ledger.UnansweredCount(), nil
}

// Submit is the single authoritative completion path. The first call (manual
// or timer-triggered) wins; every later call is a no-op that returns the
// already-computed outcome, because a manual submit and a firing timer can
// race.
func (s *AttemptSession) Submit(reason domain.SubmitReason) (Outcome, error) {
	s.mu.Lock()
	switch {
	case s.status == domain.StatusNotStarted:
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: attempt not started", domain.ErrInvalidState)
	case s.status == domain.StatusAbandoned:
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: attempt was abandoned", domain.ErrInvalidState)
	case s.status.Terminal():
		out := *s.outcome
		s.mu.Unlock()
		return out, nil
	}

	submittedAt := s.now()
	taken := int(submittedAt.Sub(s.startedAt) / time.Second)
	limitSeconds := s.quiz.TimeLimitMinutes * 60
	if limitSeconds > 0 && taken > limitSeconds {
		taken = limitSeconds
	}

	result := Grade(s.quiz, s.ledger.ToGradingView())
	result.TimeTakenSeconds = taken

	status := domain.StatusSubmitted
	if reason == domain.SubmitTimerExpired {
		status = domain.StatusExpired
	}
	s.status = status

	record := domain.AttemptRecord{
		AttemptID:    s.id,
		QuizID:       s.quiz.ID,
		UserID:       s.userID,
		Category:     s.quiz.Category,
		Status:       status,
		Result:       result,
		LimitSeconds: limitSeconds,
		StartedAt:    s.startedAt,
		SubmittedAt:  submittedAt,
	}

	var badges []domain.Badge
	if s.finish != nil {
		badges = s.finish(record)
	}

	out := Outcome{
		AttemptID: s.id,
		Reason:    reason,
		Result:    result,
		NewBadges: badges,
		Status:    status,
	}
	s.outcome = &out
	s.notifyLocked(out)
	s.mu.Unlock()

	if reason == domain.SubmitManual {
		// A racing expiry finds the terminal status above and returns the
		// stored outcome instead of double-grading.
		s.timer.Stop()
	}
	return out, nil
}

// Abandon discards the attempt without a result. The countdown is stopped
// synchronously, so no late expiry can reach the session afterwards.
func (s *AttemptSession) Abandon() error {
	s.mu.Lock()
	if s.status != domain.StatusInProgress {
		s.mu.Unlock()
		return fmt.Errorf("%w: attempt is %s", domain.ErrInvalidState, s.status)
	}
	s.status = domain.StatusAbandoned
	s.ledger = nil
	s.closeWatchersLocked()
	s.mu.Unlock()

	s.timer.Stop()
	return nil
}

// Remaining reports whole seconds left and whether the attempt is untimed.
func (s *AttemptSession) Remaining() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz.TimeLimitMinutes <= 0 {
		return 0, true
	}
	if s.status.Terminal() {
		return 0, false
	}
	return s.timer.Remaining(), false
}

// Watch delivers the completion outcome to the returned channel. If the
// attempt already completed, the outcome is delivered immediately. The cancel
// function must be called to avoid leaks; on abandonment the channel closes
// without a value.
func (s *AttemptSession) Watch() (<-chan Outcome, func()) {
	ch := make(chan Outcome, 1)

	s.mu.Lock()
	if s.outcome != nil {
		ch <- *s.outcome
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	if s.status == domain.StatusAbandoned {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *AttemptSession) notifyLocked(out Outcome) {
	for ch := range s.watchers {
		ch <- out
		close(ch)
		delete(s.watchers, ch)
	}
}

func (s *AttemptSession) closeWatchersLocked() {
	for ch := range s.watchers {
		close(ch)
		delete(s.watchers, ch)
	}
}

func (s *AttemptSession) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *AttemptSession) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *AttemptSession) QuizID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz.ID
}

func (s *AttemptSession) Status() domain.AttemptStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// UnansweredIndices lists the questions still empty, for the submit
// confirmation policy and progress display.
func (s *AttemptSession) UnansweredIndices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return nil
	}
	return s.ledger.UnansweredIndices()
}

// ProgressPercent is the share of questions answered so far, rounded.
func (s *AttemptSession) ProgressPercent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil || s.ledger.Len() == 0 {
		return 0
	}
	return (s.ledger.AnsweredCount()*100 + s.ledger.Len()/2) / s.ledger.Len()
}

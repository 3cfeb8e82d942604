package domain

import "time"

// QuestionType distinguishes single-answer from multi-answer questions.
type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
)

// Question models one quiz question with zero-based correct option indices.
// SingleChoice questions carry exactly one correct index, MultiChoice at least one.
type Question struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Type           QuestionType `json:"type"`
	Options        []string     `json:"options"`
	CorrectIndices []int        `json:"correctIndices"`
}

// Quiz is an immutable quiz definition supplied by the catalog.
// TimeLimitMinutes of zero means the attempt is untimed.
type Quiz struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Category            string     `json:"category"`
	TimeLimitMinutes    int        `json:"timeLimitMinutes"`
	PassingScorePercent int        `json:"passingScorePercent"`
	Questions           []Question `json:"questions"`
}

// AttemptStatus is the lifecycle state of one attempt.
type AttemptStatus string

const (
	StatusNotStarted AttemptStatus = "not_started"
	StatusInProgress AttemptStatus = "in_progress"
	StatusSubmitted  AttemptStatus = "submitted"
	StatusExpired    AttemptStatus = "expired"
	StatusAbandoned  AttemptStatus = "abandoned"
)

// Terminal reports whether no further mutation of the attempt is possible.
func (s AttemptStatus) Terminal() bool {
	return s == StatusSubmitted || s == StatusExpired || s == StatusAbandoned
}

// SubmitReason says which path completed the attempt.
type SubmitReason string

const (
	SubmitManual       SubmitReason = "manual"
	SubmitTimerExpired SubmitReason = "timer_expired"
)

// Result is the graded outcome of one completed attempt.
type Result struct {
	Score            int  `json:"score"`
	CorrectCount     int  `json:"correctCount"`
	IncorrectCount   int  `json:"incorrectCount"`
	UnansweredCount  int  `json:"unansweredCount"`
	Passed           bool `json:"passed"`
	TimeTakenSeconds int  `json:"timeTakenSeconds"`
}

// AttemptRecord is the completed-attempt summary kept in a user's history.
type AttemptRecord struct {
	AttemptID    string        `json:"attemptId"`
	QuizID       string        `json:"quizId"`
	UserID       string        `json:"userId"`
	Category     string        `json:"category"`
	Status       AttemptStatus `json:"status"`
	Result       Result        `json:"result"`
	LimitSeconds int           `json:"limitSeconds"` // 0 for untimed quizzes
	StartedAt    time.Time     `json:"startedAt"`
	SubmittedAt  time.Time     `json:"submittedAt"`
}

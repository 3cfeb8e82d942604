package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input (out-of-range indices, wrong
	// selection cardinality). Recoverable; the caller should re-prompt.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState is returned when an operation runs outside its legal
	// attempt state, e.g. recording an answer after submission.
	ErrInvalidState = errors.New("invalid attempt state")
	// ErrAlreadyStarted is returned on a double start of the same session.
	ErrAlreadyStarted = errors.New("attempt already started")
	// ErrAttemptNotFound indicates an unknown attempt ID. Unknown IDs are a
	// state error at the service boundary, so it matches ErrInvalidState too.
	ErrAttemptNotFound = fmt.Errorf("%w: attempt not found", ErrInvalidState)
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrEmptyQuiz rejects starting an attempt on a quiz with no questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
)

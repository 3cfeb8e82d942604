package app

import (
	"fmt"
	"sort"

	"learnloop-attempt-service/internal/domain"
)

// AnswerLedger is the authoritative store of option selections for one
// attempt. Selections are validated on write; the ledger never truncates a
// selection to make it fit.
type AnswerLedger struct {
	selections [][]int
}

func NewAnswerLedger(questionCount int) *AnswerLedger {
	return &AnswerLedger{selections: make([][]int, questionCount)}
}

// SetSelection overwrites the entry for a question. An empty selection
// unselects the question. SingleChoice entries hold at most one index.
func (l *AnswerLedger) SetSelection(questionIndex int, optionIndices []int, question domain.Question) error {
	if questionIndex < 0 || questionIndex >= len(l.selections) {
		return fmt.Errorf("%w: question index %d out of range", domain.ErrValidation, questionIndex)
	}

	selection := normalizeSelection(optionIndices)
	for _, idx := range selection {
		if idx < 0 || idx >= len(question.Options) {
			return fmt.Errorf("%w: option index %d out of range for question %d", domain.ErrValidation, idx, questionIndex)
		}
	}
	if question.Type == domain.SingleChoice && len(selection) > 1 {
		return fmt.Errorf("%w: single-choice question %d allows one selection, got %d", domain.ErrValidation, questionIndex, len(selection))
	}

	l.selections[questionIndex] = selection
	return nil
}

// UnansweredIndices lists questions with empty selections, in order.
func (l *AnswerLedger) UnansweredIndices() []int {
	indices := make([]int, 0, len(l.selections))
	for i, selection := range l.selections {
		if len(selection) == 0 {
			indices = append(indices, i)
		}
	}
	return indices
}

func (l *AnswerLedger) UnansweredCount() int {
	return len(l.UnansweredIndices())
}

func (l *AnswerLedger) AnsweredCount() int {
	return len(l.selections) - l.UnansweredCount()
}

func (l *AnswerLedger) Len() int {
	return len(l.selections)
}

// GradingView is an immutable snapshot of the ledger consumed by grading.
type GradingView struct {
	selections [][]int
}

// Selection returns a copy of the recorded selection for a question.
func (v GradingView) Selection(questionIndex int) []int {
	if questionIndex < 0 || questionIndex >= len(v.selections) {
		return nil
	}
	return append([]int(nil), v.selections[questionIndex]...)
}

func (v GradingView) Len() int {
	return len(v.selections)
}

// ToGradingView deep-copies the current selections so later ledger writes
// cannot reach a result that has already been graded.
func (l *AnswerLedger) ToGradingView() GradingView {
	snapshot := make([][]int, len(l.selections))
	for i, selection := range l.selections {
		snapshot[i] = append([]int(nil), selection...)
	}
	return GradingView{selections: snapshot}
}

// normalizeSelection dedupes and sorts, so selections behave as sets.
func normalizeSelection(optionIndices []int) []int {
	if len(optionIndices) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(optionIndices))
	selection := make([]int, 0, len(optionIndices))
	for _, idx := range optionIndices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		selection = append(selection, idx)
	}
	sort.Ints(selection)
	return selection
}

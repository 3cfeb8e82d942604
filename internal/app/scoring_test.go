package app

import (
	"reflect"
	"testing"

	"learnloop-attempt-service/internal/domain"
)

// fourQuestionQuiz has SingleChoice questions with correct indices 0,1,0,2
// and a passing score of 70.
func fourQuestionQuiz() domain.Quiz {
	questions := make([]domain.Question, 4)
	for i, correct := range []int{0, 1, 0, 2} {
		questions[i] = domain.Question{
			ID:             string(rune('a' + i)),
			Type:           domain.SingleChoice,
			Options:        []string{"one", "two", "three"},
			CorrectIndices: []int{correct},
		}
	}
	return domain.Quiz{
		ID:                  "quiz-4",
		Category:            "general",
		PassingScorePercent: 70,
		Questions:           questions,
	}
}

func ledgerView(t *testing.T, quiz domain.Quiz, selections map[int][]int) GradingView {
	t.Helper()
	ledger := NewAnswerLedger(len(quiz.Questions))
	for idx, sel := range selections {
		if err := ledger.SetSelection(idx, sel, quiz.Questions[idx]); err != nil {
			t.Fatalf("set selection %d: %v", idx, err)
		}
	}
	return ledger.ToGradingView()
}

func TestGradeScenario(t *testing.T) {
	quiz := fourQuestionQuiz()
	view := ledgerView(t, quiz, map[int][]int{0: {0}, 1: {1}, 2: {1}, 3: {2}})

	result := Grade(quiz, view)
	if result.CorrectCount != 3 || result.IncorrectCount != 1 || result.UnansweredCount != 0 {
		t.Fatalf("expected 3/1/0 counts, got %+v", result)
	}
	if result.Score != 75 || !result.Passed {
		t.Fatalf("expected score 75 passed, got %+v", result)
	}
}

func TestGradeIsDeterministic(t *testing.T) {
	quiz := fourQuestionQuiz()
	view := ledgerView(t, quiz, map[int][]int{0: {0}, 2: {1}})

	first := Grade(quiz, view)
	second := Grade(quiz, view)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("grading not deterministic: %+v vs %+v", first, second)
	}
}

func TestGradeAllCorrectIsHundred(t *testing.T) {
	quiz := fourQuestionQuiz()
	view := ledgerView(t, quiz, map[int][]int{0: {0}, 1: {1}, 2: {0}, 3: {2}})

	result := Grade(quiz, view)
	if result.Score != 100 || !result.Passed {
		t.Fatalf("expected perfect pass, got %+v", result)
	}
}

func TestGradeEmptyLedgerIsZero(t *testing.T) {
	quiz := fourQuestionQuiz()
	result := Grade(quiz, NewAnswerLedger(len(quiz.Questions)).ToGradingView())
	if result.Score != 0 || result.UnansweredCount != 4 || result.Passed {
		t.Fatalf("expected zero score with 4 unanswered, got %+v", result)
	}
}

func TestGradeMultiChoiceIsAllOrNothing(t *testing.T) {
	quiz := domain.Quiz{
		ID:                  "quiz-multi",
		PassingScorePercent: 50,
		Questions: []domain.Question{
			{
				ID:             "m1",
				Type:           domain.MultiChoice,
				Options:        []string{"a", "b", "c", "d"},
				CorrectIndices: []int{0, 2},
			},
			{
				ID:             "m2",
				Type:           domain.MultiChoice,
				Options:        []string{"a", "b", "c"},
				CorrectIndices: []int{1},
			},
		},
	}

	// Partially correct and over-selected answers both count as incorrect.
	view := ledgerView(t, quiz, map[int][]int{0: {0}, 1: {0, 1}})
	result := Grade(quiz, view)
	if result.CorrectCount != 0 || result.Score != 0 {
		t.Fatalf("expected no credit for partial selections, got %+v", result)
	}

	view = ledgerView(t, quiz, map[int][]int{0: {2, 0}, 1: {1}})
	result = Grade(quiz, view)
	if result.CorrectCount != 2 || result.Score != 100 {
		t.Fatalf("expected exact matches to score, got %+v", result)
	}
}

func TestGradeRoundsHalfUp(t *testing.T) {
	// 1 of 8 correct = 12.5, which rounds up to 13.
	questions := make([]domain.Question, 8)
	for i := range questions {
		questions[i] = domain.Question{
			Type:           domain.SingleChoice,
			Options:        []string{"x", "y"},
			CorrectIndices: []int{0},
		}
	}
	quiz := domain.Quiz{ID: "quiz-8", PassingScorePercent: 50, Questions: questions}

	view := ledgerView(t, quiz, map[int][]int{0: {0}})
	if result := Grade(quiz, view); result.Score != 13 {
		t.Fatalf("expected 12.5 to round to 13, got %d", result.Score)
	}
}

package app

import (
	"math"

	"learnloop-attempt-service/internal/domain"
)

// Grade computes the result for a quiz against a ledger snapshot. It is pure:
// the same quiz and view always produce the same result. TimeTakenSeconds is
// left zero; the session owns wall-clock accounting.
//
// A question is correct iff the selected set equals the correct set exactly.
// A partially-correct multi-choice selection scores as incorrect, and an
// unanswered question always counts as incorrect. Callers reject empty
// quizzes before an attempt starts, so len(quiz.Questions) >= 1 here.
func Grade(quiz domain.Quiz, view GradingView) domain.Result {
	var correct, unanswered int
	for i, question := range quiz.Questions {
		selection := view.Selection(i)
		if len(selection) == 0 {
			unanswered++
			continue
		}
		if selectionMatches(selection, question.CorrectIndices) {
			correct++
		}
	}

	total := len(quiz.Questions)
	score := int(math.Round(100 * float64(correct) / float64(total)))
	return domain.Result{
		Score:           score,
		CorrectCount:    correct,
		IncorrectCount:  total - correct - unanswered,
		UnansweredCount: unanswered,
		Passed:          score >= quiz.PassingScorePercent,
	}
}

// selectionMatches compares the selection against the correct indices as
// sets. The ledger stores selections sorted and deduped already; the correct
// set comes from catalog data and is normalized here.
func selectionMatches(selection, correctIndices []int) bool {
	correctSet := make(map[int]struct{}, len(correctIndices))
	for _, idx := range correctIndices {
		correctSet[idx] = struct{}{}
	}
	if len(selection) != len(correctSet) {
		return false
	}
	for _, idx := range selection {
		if _, ok := correctSet[idx]; !ok {
			return false
		}
	}
	return true
}

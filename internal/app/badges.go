package app

import (
	"learnloop-attempt-service/internal/domain"
)

// BadgeRule decides which levels of one badge kind the new record unlocks.
// History holds the user's prior completed attempts, oldest first, and never
// includes the new record itself.
type BadgeRule struct {
	Kind domain.BadgeType
	Name string
	Met  func(record domain.AttemptRecord, history []domain.AttemptRecord) []domain.BadgeLevel
}

// BadgeEvaluator applies a fixed rule table to a completed attempt. It is
// pure over its inputs: no global state, safe on an empty history, and it
// never re-issues a (type, level) pair already held.
type BadgeEvaluator struct {
	rules []BadgeRule
}

func NewBadgeEvaluator(rules []BadgeRule) *BadgeEvaluator {
	return &BadgeEvaluator{rules: rules}
}

// Evaluate returns only badges the user does not already own.
func (e *BadgeEvaluator) Evaluate(record domain.AttemptRecord, history []domain.AttemptRecord, owned []domain.Badge) []domain.Badge {
	held := make(map[string]struct{}, len(owned))
	for _, badge := range owned {
		held[badge.Key()] = struct{}{}
	}

	var unlocked []domain.Badge
	for _, rule := range e.rules {
		for _, level := range rule.Met(record, history) {
			badge := domain.Badge{
				Type:     rule.Kind,
				Level:    level,
				Name:     rule.Name,
				EarnedAt: record.SubmittedAt,
			}
			if _, ok := held[badge.Key()]; ok {
				continue
			}
			held[badge.Key()] = struct{}{}
			unlocked = append(unlocked, badge)
		}
	}
	return unlocked
}

// PerfectScoreLevels maps quiz categories to the tier a perfect score earns.
// Unlisted categories earn Bronze.
type PerfectScoreLevels struct {
	Silver []string
	Gold   []string
}

func (p PerfectScoreLevels) levelFor(category string) domain.BadgeLevel {
	for _, c := range p.Gold {
		if c == category {
			return domain.LevelGold
		}
	}
	for _, c := range p.Silver {
		if c == category {
			return domain.LevelSilver
		}
	}
	return domain.LevelBronze
}

// DefaultBadgeRules is the built-in achievement table. The thresholds mirror
// the platform's badge set: novice on the first completion, master by volume,
// perfect scores tiered by category difficulty, fast finishes on timed
// quizzes, subject depth per category, and pass streaks.
func DefaultBadgeRules(perfect PerfectScoreLevels) []BadgeRule {
	return []BadgeRule{
		{
			Kind: domain.BadgeQuizNovice,
			Name: "Quiz Novice",
			Met: func(_ domain.AttemptRecord, history []domain.AttemptRecord) []domain.BadgeLevel {
				if len(history) == 0 {
					return []domain.BadgeLevel{domain.LevelBronze}
				}
				return nil
			},
		},
		{
			Kind: domain.BadgeQuizMaster,
			Name: "Quiz Master",
			Met: func(_ domain.AttemptRecord, history []domain.AttemptRecord) []domain.BadgeLevel {
				return tieredLevels(len(history)+1, 5, 15, 30)
			},
		},
		{
			Kind: domain.BadgePerfectScore,
			Name: "Perfect Score",
			Met: func(record domain.AttemptRecord, _ []domain.AttemptRecord) []domain.BadgeLevel {
				if record.Result.Score != 100 {
					return nil
				}
				return []domain.BadgeLevel{perfect.levelFor(record.Category)}
			},
		},
		{
			Kind: domain.BadgeFastLearner,
			Name: "Fast Learner",
			Met: func(record domain.AttemptRecord, _ []domain.AttemptRecord) []domain.BadgeLevel {
				if !record.Result.Passed || record.LimitSeconds <= 0 {
					return nil
				}
				var levels []domain.BadgeLevel
				if record.Result.TimeTakenSeconds*2 <= record.LimitSeconds {
					levels = append(levels, domain.LevelBronze)
				}
				if record.Result.TimeTakenSeconds*4 <= record.LimitSeconds {
					levels = append(levels, domain.LevelSilver)
				}
				return levels
			},
		},
		{
			Kind: domain.BadgeSubjectExpert,
			Name: "Subject Expert",
			Met: func(record domain.AttemptRecord, history []domain.AttemptRecord) []domain.BadgeLevel {
				if !record.Result.Passed {
					return nil
				}
				passes := 1
				for _, prior := range history {
					if prior.Category == record.Category && prior.Result.Passed {
						passes++
					}
				}
				return tieredLevels(passes, 3, 5, 10)
			},
		},
		{
			Kind: domain.BadgeStreakMaster,
			Name: "Streak Master",
			Met: func(record domain.AttemptRecord, history []domain.AttemptRecord) []domain.BadgeLevel {
				if !record.Result.Passed {
					return nil
				}
				streak := 1
				for i := len(history) - 1; i >= 0; i-- {
					if !history[i].Result.Passed {
						break
					}
					streak++
				}
				return tieredLevels(streak, 3, 5, 10)
			},
		},
	}
}

func tieredLevels(count, bronze, silver, gold int) []domain.BadgeLevel {
	var levels []domain.BadgeLevel
	if count >= bronze {
		levels = append(levels, domain.LevelBronze)
	}
	if count >= silver {
		levels = append(levels, domain.LevelSilver)
	}
	if count >= gold {
		levels = append(levels, domain.LevelGold)
	}
	return levels
}

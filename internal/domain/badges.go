package domain

import "time"

// BadgeType enumerates the achievement kinds. Adding a kind means adding a
// constant here and an evaluator rule, not a new string constant at call sites.
type BadgeType string

const (
	BadgeQuizNovice    BadgeType = "QUIZ_NOVICE"
	BadgeQuizMaster    BadgeType = "QUIZ_MASTER"
	BadgePerfectScore  BadgeType = "PERFECT_SCORE"
	BadgeFastLearner   BadgeType = "FAST_LEARNER"
	BadgeSubjectExpert BadgeType = "SUBJECT_EXPERT"
	BadgeStreakMaster  BadgeType = "STREAK_MASTER"
)

// BadgeLevel is the tier of an awarded badge.
type BadgeLevel string

const (
	LevelBronze BadgeLevel = "BRONZE"
	LevelSilver BadgeLevel = "SILVER"
	LevelGold   BadgeLevel = "GOLD"
)

// Badge is one achievement a user has unlocked. A (Type, Level) pair is
// awarded at most once per user.
type Badge struct {
	Type     BadgeType  `json:"badgeType"`
	Level    BadgeLevel `json:"level"`
	Name     string     `json:"badgeName"`
	EarnedAt time.Time  `json:"earnedAt"`
}

// Key identifies a badge for dedup purposes.
func (b Badge) Key() string {
	return string(b.Type) + ":" + string(b.Level)
}

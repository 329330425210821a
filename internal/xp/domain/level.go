package domain

import "math"

// LevelForXP is the canonical level formula:
//
//	level = floor(sqrt(xp/100)) + 1
//
// This is the formula the reconciliation tooling treats as ground truth;
// the award path, the reconciler and the leaderboard all derive levels
// from it and from nothing else.
func LevelForXP(totalXP int64) int {
	if totalXP <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(totalXP)/100)) + 1
}

// XP badge thresholds, checked when total_xp crosses them.
const (
	BadgeActiveLearner = "ActiveLearner"
	BadgeCenturyClub   = "CenturyClub"
	BadgeXPMaster      = "XPMaster"
	BadgeWeekWarrior   = "WeekWarrior"
)

// XPBadgeThresholds maps badge names to the total_xp needed to earn them.
var XPBadgeThresholds = map[string]int64{
	BadgeActiveLearner: 50,
	BadgeCenturyClub:   100,
	BadgeXPMaster:      500,
}

// WeekWarriorStreak is the current_streak needed for the streak badge.
const WeekWarriorStreak = 7

// Streak protocol constants.
const (
	StreakTickXP = 5
)

// StreakMilestoneBonuses maps a streak length to a one-time bonus grant.
var StreakMilestoneBonuses = map[int]int64{
	3: 10,
	7: 100,
}

package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DayKeyLayout buckets timestamps into UTC calendar days.
const DayKeyLayout = "2006-01-02"

// XPEvent is one immutable ledger entry. Events are never updated or
// deleted; the aggregate is a projection over them.
type XPEvent struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	UserID       string            `json:"user_id" gorm:"type:text;not null;index:idx_xp_events_user_time,priority:1"`
	Amount       int64             `json:"amount" gorm:"not null"`
	ActivityType string            `json:"activity_type" gorm:"type:text;not null;index"`
	DayKey       string            `json:"day_key" gorm:"type:text;not null;index"`
	DedupeKey    *string           `json:"dedupe_key,omitempty" gorm:"type:text;uniqueIndex:ux_xp_events_dedupe"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at" gorm:"not null;index:idx_xp_events_user_time,priority:2"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null"`
}

func (XPEvent) TableName() string { return "xp_events" }

// DayKeyFor formats t as a UTC day bucket.
func DayKeyFor(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}

// DailyLoginDedupeKey gates the daily-login grant (one per user per day).
func DailyLoginDedupeKey(userID, day string) string {
	return fmt.Sprintf("%s:%s:%s", userID, ActivityDailyLogin, day)
}

// StreakTickDedupeKey gates the streak tick (one per user per day).
func StreakTickDedupeKey(userID, day string) string {
	return fmt.Sprintf("%s:%s:%s", userID, ActivityStreakTick, day)
}

// StreakBonusDedupeKey gates a milestone bonus of a given magnitude so a
// same-day replay cannot double-count it.
func StreakBonusDedupeKey(userID string, amount int64, day string) string {
	return fmt.Sprintf("%s:%s:%d:%s", userID, ActivityStreakBonus, amount, day)
}

// WeeklyScore is one row of the windowed ledger aggregation.
type WeeklyScore struct {
	UserID string `gorm:"column:user_id"`
	Score  int64  `gorm:"column:score"`
}

// TypeStat is a per-activity rollup over a time range.
type TypeStat struct {
	ActivityType string `json:"activity_type" gorm:"column:activity_type"`
	TotalXP      int64  `json:"total_xp" gorm:"column:total_xp"`
	Count        int64  `json:"count" gorm:"column:count"`
}

// DayStat is a per-day rollup over a time range.
type DayStat struct {
	Day        string `json:"date" gorm:"column:day_key"`
	TotalXP    int64  `json:"xp" gorm:"column:total_xp"`
	Activities int64  `json:"activities" gorm:"column:activities"`
}

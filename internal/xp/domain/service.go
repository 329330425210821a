package domain

import (
	"context"
	"time"
)

// Service is the award processor: the single entry point deciding how
// much XP an activity earns and applying the result to the ledger and
// the per-user aggregate. Feature modules call Award after their own
// action succeeds, fire-and-forget: an award failure must never roll
// back the triggering action.
type Service interface {
	Award(ctx context.Context, req AwardRequest) (*AwardResult, error)
	History(ctx context.Context, req HistoryRequest) (*HistoryResult, error)
	Stats(ctx context.Context, req StatsRequest) (*StatsResult, error)
}

// AwardRequest describes one activity performed by a user. Amount, when
// nil, falls back to the activity's base XP.
type AwardRequest struct {
	UserID       string
	ActivityType string
	Amount       *int64
	Metadata     map[string]any
}

// AwardResult reports what one award call granted and the resulting
// aggregate view.
type AwardResult struct {
	GrantedAmount int64    `json:"granted_amount"`
	TotalXP       int64    `json:"total_xp"`
	Level         int      `json:"level"`
	CurrentStreak int      `json:"current_streak"`
	Badges        []string `json:"badges"`
}

// HistoryRequest filters the user's ledger entries.
type HistoryRequest struct {
	UserID       string
	ActivityType string
	Limit        int
	Offset       int
}

// HistoryEntry is one ledger entry in API form.
type HistoryEntry struct {
	ID           string         `json:"id"`
	Amount       int64          `json:"xp_earned"`
	ActivityType string         `json:"activity_type"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// HistoryResult pages through a user's ledger newest-first.
type HistoryResult struct {
	Entries []HistoryEntry `json:"logs"`
	Total   int64          `json:"total"`
	HasMore bool           `json:"has_more"`
	TotalXP int64          `json:"total_xp"`
	Level   int            `json:"level"`
}

// StatsRequest selects the rollup window: "7d", "30d", "90d" or "all".
type StatsRequest struct {
	UserID    string
	TimeRange string
}

// StatsResult summarizes earning activity over the window.
type StatsResult struct {
	TimeRange       string     `json:"time_range"`
	TotalXP         int64      `json:"total_xp"`
	TotalActivities int64      `json:"total_activities"`
	ByActivityType  []TypeStat `json:"by_activity_type"`
	DailyBreakdown  []DayStat  `json:"daily_breakdown"`
}

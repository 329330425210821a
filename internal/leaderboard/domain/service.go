package domain

import (
	"context"
	"time"
)

// Entry is one leaderboard row. Rank is dense and assigned at read time
// over the visible population.
type Entry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	DisplayName   string `json:"display_name"`
	Institution   string `json:"institution,omitempty"`
	TotalXP       int64  `json:"total_xp"`
	Level         int    `json:"level"`
	CurrentStreak int    `json:"current_streak"`
	SOTWWinCount  int    `json:"sotw_win_count"`
}

// Result is a point-in-time projection of the top students.
type Result struct {
	Entries     []Entry   `json:"leaderboard"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Service projects the aggregate store into a ranked, cached view.
type Service interface {
	Top(ctx context.Context, limit int) (*Result, error)
	// Join and Leave toggle the caller's presence on the board.
	Join(ctx context.Context, userID string) error
	Leave(ctx context.Context, userID string) error
}

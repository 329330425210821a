package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	// ErrNoWinner means the elected window holds no ledger activity.
	ErrNoWinner = errors.New("no_winner")
	// ErrNotWinner means the caller is not the current title holder.
	ErrNotWinner    = errors.New("not_winner")
	ErrInvalidQuote = errors.New("invalid_quote")
)

// WeeklyWinner is the immutable snapshot of one week's election. The
// unique week_start column makes election idempotent: N racing elections
// for the same window persist exactly one row.
type WeeklyWinner struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	WeekStart   string       `json:"week_start" gorm:"type:text;not null;uniqueIndex:ux_weekly_winners_week"`
	WeekEnd     string       `json:"week_end" gorm:"type:text;not null"`
	UserID      string       `json:"user_id" gorm:"type:text;not null;index"`
	DisplayName string       `json:"display_name" gorm:"type:text"`
	Score       int64        `json:"score" gorm:"not null"`
	Quote       *string      `json:"quote,omitempty" gorm:"type:text"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
}

func (WeeklyWinner) TableName() string { return "weekly_winners" }

// LastFullWeek returns the most recently completed Monday-anchored week
// as a half-open UTC window [start, end): end is the most recent Monday
// 00:00 UTC at or before now, start is seven days earlier.
func LastFullWeek(now time.Time) (start, end time.Time) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	daysSinceMonday := (int(midnight.Weekday()) + 6) % 7
	end = midnight.AddDate(0, 0, -daysSinceMonday)
	return end.AddDate(0, 0, -7), end
}

// Repository persists election snapshots.
type Repository interface {
	FindByWeekStart(ctx context.Context, weekStart string) (*WeeklyWinner, error)
	// InsertIfAbsent persists the snapshot unless the window was already
	// decided. Exactly one of N racing calls observes inserted=true.
	InsertIfAbsent(ctx context.Context, winner *WeeklyWinner) (inserted bool, err error)
	ListArchive(ctx context.Context, offset, limit int) ([]WeeklyWinner, int64, error)
	SetQuote(ctx context.Context, weekStart, userID, quote string) error
}

// Service elects and serves the student of the week.
type Service interface {
	// CurrentWinner returns the winner for the last full week, electing
	// and snapshotting it on first call.
	CurrentWinner(ctx context.Context) (*WeeklyWinner, error)
	Archive(ctx context.Context, offset, limit int) ([]WeeklyWinner, int64, error)
	// SubmitQuote stores the winner's quote. Only the current title
	// holder may call it.
	SubmitQuote(ctx context.Context, userID, quote string) (*WeeklyWinner, error)
}

package domain

import (
	"context"
	"time"
)

// Repository is the append-only ledger store. Correctness under
// concurrency rests on two primitives: InsertEvent (plain append) and
// InsertEventIfAbsent (unique-keyed conditional insert), plus read-side
// aggregations. Events are never updated or deleted.
type Repository interface {
	// InsertEvent appends an event unconditionally.
	InsertEvent(ctx context.Context, event *XPEvent) error
	// InsertEventIfAbsent appends an event gated by its DedupeKey.
	// Exactly one of N racing calls observes inserted=true.
	InsertEventIfAbsent(ctx context.Context, event *XPEvent) (inserted bool, err error)

	// SumByUser computes the true ledger total for a user.
	SumByUser(ctx context.Context, userID string) (int64, error)
	// SumMinorClassForDay sums the cap-bounded class for one day bucket.
	SumMinorClassForDay(ctx context.Context, userID, dayKey string) (int64, error)
	// WeeklyScores aggregates all events in [start, end) grouped by
	// user, ordered by score descending with user_id as tie-break.
	WeeklyScores(ctx context.Context, start, end time.Time, limit int) ([]WeeklyScore, error)
	// ActiveDayCount counts distinct day buckets with activity for a
	// user within [start, end).
	ActiveDayCount(ctx context.Context, userID string, start, end time.Time) (int64, error)

	ListByUser(ctx context.Context, req HistoryRequest) ([]XPEvent, int64, error)
	StatsByType(ctx context.Context, userID string, since time.Time) ([]TypeStat, error)
	StatsByDay(ctx context.Context, userID string, since time.Time) ([]DayStat, error)
}

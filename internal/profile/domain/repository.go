package domain

import "context"

// AwardUpdate is applied to a profile as one atomic statement: total_xp
// is incremented (commutative, safe under any interleaving) while the
// remaining fields are plain sets.
type AwardUpdate struct {
	XPDelta        int64
	LastActiveDate string
	// Streak, when non-nil, sets current_streak. Only the call that won
	// the streak-tick insert carries it.
	Streak *int
}

// Repository is the aggregate store. Every mutation is a single atomic
// operation; cross-row consistency is the reconciler's job.
type Repository interface {
	// Ensure creates the zero-valued profile if absent. Idempotent.
	Ensure(ctx context.Context, profile *UserProfile) error
	Get(ctx context.Context, userID string) (*UserProfile, error)

	ApplyAward(ctx context.Context, userID string, update AwardUpdate) error
	// SetLevelIfHigher persists a recomputed level only when it exceeds
	// the stored one. Best-effort: a lost race self-heals on the next
	// award.
	SetLevelIfHigher(ctx context.Context, userID string, level int) error
	// OverwriteTotals forces total_xp and level to the reconciled values.
	OverwriteTotals(ctx context.Context, userID string, totalXP int64, level int) error
	IncrementSOTWWins(ctx context.Context, userID string) error
	SetLeaderboardVisible(ctx context.Context, userID string, visible bool) error

	// Top returns visible, non-privileged profiles ordered by total_xp
	// descending with user_id ascending as the deterministic tie-break.
	Top(ctx context.Context, limit int) ([]UserProfile, error)
	// ListUserIDs pages through all profiles for batch reconciliation.
	ListUserIDs(ctx context.Context, offset, limit int) ([]string, error)
}

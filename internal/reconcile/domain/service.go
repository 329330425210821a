package domain

import "context"

// Result reports one user's reconciliation.
type Result struct {
	UserID     string `json:"user_id"`
	WasDrifted bool   `json:"was_drifted"`
	StoredXP   int64  `json:"stored_xp"`
	TrueXP     int64  `json:"true_xp"`
	Level      int    `json:"level"`
}

// Summary reports a batch run.
type Summary struct {
	Scanned   int `json:"scanned"`
	Corrected int `json:"corrected"`
}

// Service converges aggregates back onto the ledger. The ledger sum is
// authoritative: whatever the aggregate says, reconciliation overwrites
// it with the recomputed total and the level derived from it.
type Service interface {
	Reconcile(ctx context.Context, userID string) (*Result, error)
	ReconcileAll(ctx context.Context) (*Summary, error)
}

package repository

import "context"

// SequencesRepository per-tenant, per-series counters (sequence_counters table)
type SequencesRepository interface {
	// Increment atomically bumps the counter, creating it at 1 on first use, and returns the new value.
	// The row stays locked until the enclosing transaction ends.
	Increment(ctx context.Context, tenantID, series string) (int64, error)

	// Current last issued value, 0 when the series was never used
	Current(ctx context.Context, tenantID, series string) (int64, error)
}

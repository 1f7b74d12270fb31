package contracts

import "errors"

var (
	// ErrEmptyStore signals that the features table has no rows at all.
	// Callers respond with a full backfill instead of an incremental query.
	ErrEmptyStore = errors.New("feature store is empty")

	// ErrRowNotFound signals a missing row for a specific date.
	ErrRowNotFound = errors.New("feature row not found")

	// ErrNoData signals that a source produced records but none survived
	// normalization. Distinct from an empty-but-valid result.
	ErrNoData = errors.New("no usable records after normalization")

	// ErrSourceUnavailable signals that a fetch call failed entirely. The
	// domain proceeds with whatever other sources succeeded.
	ErrSourceUnavailable = errors.New("external source unavailable")
)

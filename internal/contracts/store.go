package contracts

import (
	"context"
	"time"
)

// FeatureStore is the persisted features table. Implementations must key
// rows by date and treat Put as a full-row idempotent upsert; the merge
// semantics for partial updates live in the upsert engine, which is the only
// component that mutates rows.
type FeatureStore interface {
	// Get returns the row for date, or ErrRowNotFound.
	Get(ctx context.Context, date time.Time) (*FeatureRow, error)

	// Put inserts or fully replaces the row for row.Date.
	Put(ctx context.Context, row *FeatureRow) error

	// ReadAll returns every row ordered by date ascending.
	ReadAll(ctx context.Context) ([]*FeatureRow, error)

	// ReadRange returns rows with from <= date <= to, ordered ascending.
	ReadRange(ctx context.Context, from, to time.Time) ([]*FeatureRow, error)

	// MaxDate returns the latest date present, or ErrEmptyStore.
	MaxDate(ctx context.Context) (time.Time, error)
}

package gaps

import (
	"context"
	"fmt"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
)

// Report describes which dates and fields still need a refresh. Partially
// populated rows are the expected steady state between pipeline stages, so
// each field gap is tracked independently.
type Report struct {
	// MaxDate is the latest date present in the store.
	MaxDate time.Time

	// MissingRain lists dates whose rain_average has not been fetched yet.
	MissingRain []time.Time

	// Unclassified lists dates still carrying the day_type placeholder.
	Unclassified []time.Time
}

// Detect scans the persisted store and reports refresh targets. Read-only.
// An empty store returns contracts.ErrEmptyStore so the caller performs a
// full backfill instead of an incremental query.
func Detect(ctx context.Context, store contracts.FeatureStore) (*Report, error) {
	rows, err := store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read feature store: %w", err)
	}

	if len(rows) == 0 {
		return nil, contracts.ErrEmptyStore
	}

	report := &Report{}
	for _, row := range rows {
		if row.Date.After(report.MaxDate) {
			report.MaxDate = row.Date
		}
		if row.RainAverage == nil {
			report.MissingRain = append(report.MissingRain, row.Date)
		}
		if row.DayType == contracts.DayTypeUnclassified {
			report.Unclassified = append(report.Unclassified, row.Date)
		}
	}

	return report, nil
}

package normalize

import (
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
)

// HolidayResult is the outcome of normalizing one holiday calendar batch.
type HolidayResult struct {
	// Dates is the set of official holiday dates.
	Dates map[time.Time]bool

	// Dropped counts entries discarded for an unparseable date.
	Dropped int
}

// NormalizeHolidays parses raw calendar entries into a holiday date set. The
// upstream calendar mixes compact (20250101) and delimited (2025-01-01)
// encodings; both are accepted and anything else is skipped. A non-empty
// input with nothing usable returns contracts.ErrNoData.
func NormalizeHolidays(entries []string) (*HolidayResult, error) {
	result := &HolidayResult{Dates: make(map[time.Time]bool)}

	for _, entry := range entries {
		date, ok := ParseDate(entry)
		if !ok {
			result.Dropped++
			continue
		}
		result.Dates[date] = true
	}

	if len(entries) > 0 && len(result.Dates) == 0 {
		return result, contracts.ErrNoData
	}
	return result, nil
}

package normalize

import (
	"sort"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
)

// RainReading is one sampling point's daily rainfall in millimetres. Valid
// is false when the point errored or returned no data for the date; such
// readings are skipped, never treated as zero rain.
type RainReading struct {
	Location    string
	DateText    string
	Millimetres float64
	Valid       bool
}

// RainResult is the outcome of normalizing one rain batch.
type RainResult struct {
	Fragments []contracts.FeatureFragment

	// Dropped counts readings discarded for an unparseable date.
	Dropped int

	// Skipped counts invalid readings excluded from the average.
	Skipped int
}

// NormalizeRain averages rainfall across all valid sampling points per date,
// producing one rain_average fragment per date. A non-empty input with
// nothing usable returns contracts.ErrNoData.
func NormalizeRain(readings []RainReading) (*RainResult, error) {
	result := &RainResult{}

	type acc struct {
		sum   float64
		count int
	}
	byDate := make(map[time.Time]*acc)

	for _, r := range readings {
		if !r.Valid {
			result.Skipped++
			continue
		}

		date, ok := ParseDate(r.DateText)
		if !ok {
			result.Dropped++
			continue
		}

		a := byDate[date]
		if a == nil {
			a = &acc{}
			byDate[date] = a
		}
		a.sum += r.Millimetres
		a.count++
	}

	for date, a := range byDate {
		result.Fragments = append(result.Fragments, contracts.FeatureFragment{
			Date:        date,
			RainSet:     true,
			RainAverage: a.sum / float64(a.count),
		})
	}
	sort.Slice(result.Fragments, func(i, j int) bool {
		return result.Fragments[i].Date.Before(result.Fragments[j].Date)
	})

	if len(readings) > 0 && len(result.Fragments) == 0 {
		return result, contracts.ErrNoData
	}
	return result, nil
}

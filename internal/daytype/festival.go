package daytype

import (
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
)

// FestivalDates returns the fixed festival set for a year: Thai Children's
// Day (second Saturday of January), Valentine's Day, Songkran, Christmas Eve,
// Christmas and New Year's Eve. These are high-ridership days that are not
// official holidays, tracked separately from the holiday calendar.
func FestivalDates(year int) map[time.Time]bool {
	dates := []time.Time{
		SecondSaturday(year, time.January),
		date(year, time.February, 14),
		date(year, time.April, 13),
		date(year, time.April, 14),
		date(year, time.April, 15),
		date(year, time.December, 24),
		date(year, time.December, 25),
		date(year, time.December, 31),
	}

	set := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set
}

// SecondSaturday returns the second Saturday of the given month. With the
// first Saturday on day N, the second is N+7; this holds whether or not the
// month's first calendar week contains a Saturday.
func SecondSaturday(year int, month time.Month) time.Time {
	first := date(year, month, 1)
	offset := (int(time.Saturday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7)
}

func date(year int, month time.Month, day int) time.Time {
	return contracts.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

package daytype

import (
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
)

// Classify labels a date by priority: Holiday beats Festival beats Normal.
// A date that is both an official holiday and a festival is a Holiday. Plain
// weekends are Normal; only explicit calendar membership changes the label.
// Pure function, no side effects.
func Classify(date time.Time, holidays, festivals map[time.Time]bool) contracts.DayType {
	date = contracts.Date(date)

	if holidays[date] {
		return contracts.DayTypeHoliday
	}
	if festivals[date] {
		return contracts.DayTypeFestival
	}
	return contracts.DayTypeNormal
}

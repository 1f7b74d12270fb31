package contracts

import "time"

// LineID identifies one of the tracked Bangkok rail lines. The set is fixed:
// every FeatureRow carries a value for every line, never a subset.
type LineID string

const (
	LineARL       LineID = "arl"
	LineBTS       LineID = "bts"
	LineMRTBlue   LineID = "mrt_blue"
	LineMRTPurple LineID = "mrt_purple"
	LineMRTPink   LineID = "mrt_pink"
	LineSRTRed    LineID = "srt_red"
	LineMRTYellow LineID = "mrt_yellow"
)

// Lines returns all tracked lines in table column order.
func Lines() []LineID {
	return []LineID{
		LineARL,
		LineBTS,
		LineMRTBlue,
		LineMRTPurple,
		LineMRTPink,
		LineSRTRed,
		LineMRTYellow,
	}
}

// DayType classifies a calendar date for the feature table.
type DayType int8

const (
	// DayTypeUnclassified is the placeholder written by the transit stage
	// until the day-type stage fills the real classification.
	DayTypeUnclassified DayType = -1
	DayTypeHoliday      DayType = 0
	DayTypeNormal       DayType = 1
	DayTypeFestival     DayType = 2
)

// Valid reports whether d is one of the four defined values.
func (d DayType) Valid() bool {
	switch d {
	case DayTypeUnclassified, DayTypeHoliday, DayTypeNormal, DayTypeFestival:
		return true
	}
	return false
}

// String returns a human-readable name.
func (d DayType) String() string {
	switch d {
	case DayTypeUnclassified:
		return "unclassified"
	case DayTypeHoliday:
		return "holiday"
	case DayTypeNormal:
		return "normal"
	case DayTypeFestival:
		return "festival"
	default:
		return "invalid"
	}
}

// Date truncates t to midnight UTC. All feature dates are stored this way so
// map keys and equality checks behave.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayOfWeek returns 0=Monday .. 6=Sunday, the convention the feature table
// uses for its dow column.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// FeatureRow is one calendar date's state in the features table.
type FeatureRow struct {
	Date        time.Time          `json:"date"`
	DayOfWeek   int                `json:"dow"`
	DayType     DayType            `json:"day_type"`
	RainAverage *float64           `json:"rain_average"` // nil until the rain stage fills it
	Lines       map[LineID]float64 `json:"lines"`        // always the complete line set
}

// NewFeatureRow returns a row for date with every field at its placeholder
// default: day_type unclassified, rain unset, all line values 0.
func NewFeatureRow(date time.Time) *FeatureRow {
	date = Date(date)
	lines := make(map[LineID]float64, len(Lines()))
	for _, line := range Lines() {
		lines[line] = 0
	}
	return &FeatureRow{
		Date:      date,
		DayOfWeek: DayOfWeek(date),
		DayType:   DayTypeUnclassified,
		Lines:     lines,
	}
}

// Clone returns a deep copy of the row.
func (r *FeatureRow) Clone() *FeatureRow {
	out := *r
	out.Lines = make(map[LineID]float64, len(r.Lines))
	for k, v := range r.Lines {
		out.Lines[k] = v
	}
	if r.RainAverage != nil {
		rain := *r.RainAverage
		out.RainAverage = &rain
	}
	return &out
}

// FeatureFragment is a partial update for one date. Only the fields a source
// domain produced are set; everything else stays untouched on merge.
type FeatureFragment struct {
	Date time.Time

	// DayType, when non-nil, replaces the row's classification.
	DayType *DayType

	// RainSet marks the rain field as present; RainAverage may legitimately
	// be nil-valued data only when RainSet is false.
	RainSet     bool
	RainAverage float64

	// Lines, when non-nil, replaces the listed line values. Lines not listed
	// keep their stored value.
	Lines map[LineID]float64
}

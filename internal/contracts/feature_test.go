package contracts

import (
	"testing"
	"time"
)

func TestDayType_Valid(t *testing.T) {
	tests := []struct {
		name string
		d    DayType
		want bool
	}{
		{"unclassified", DayTypeUnclassified, true},
		{"holiday", DayTypeHoliday, true},
		{"normal", DayTypeNormal, true},
		{"festival", DayTypeFestival, true},
		{"below range", DayType(-2), false},
		{"above range", DayType(3), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDate_TruncatesToMidnightUTC(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*3600)
	in := time.Date(2025, 6, 15, 23, 45, 12, 999, bangkok)

	got := Date(in)
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Errorf("Date() = %v, want %v", got, want)
	}
	if !Date(got).Equal(got) {
		t.Errorf("Date() is not idempotent: %v", Date(got))
	}
}

func TestDayOfWeek_MondayIsZero(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2025-06-16", 0}, // Monday
		{"2025-06-17", 1},
		{"2025-06-20", 4}, // Friday
		{"2025-06-21", 5}, // Saturday
		{"2025-06-22", 6}, // Sunday
	}

	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		if err != nil {
			t.Fatal(err)
		}
		if got := DayOfWeek(d); got != tt.want {
			t.Errorf("DayOfWeek(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestNewFeatureRow_Defaults(t *testing.T) {
	date := time.Date(2025, 3, 8, 14, 30, 0, 0, time.Local)
	row := NewFeatureRow(date)

	if !row.Date.Equal(Date(date)) {
		t.Errorf("Date = %v, want %v", row.Date, Date(date))
	}
	if row.DayType != DayTypeUnclassified {
		t.Errorf("DayType = %v, want unclassified", row.DayType)
	}
	if row.RainAverage != nil {
		t.Errorf("RainAverage = %v, want nil", *row.RainAverage)
	}
	if len(row.Lines) != len(Lines()) {
		t.Fatalf("Lines has %d entries, want %d", len(row.Lines), len(Lines()))
	}
	for _, line := range Lines() {
		if v, ok := row.Lines[line]; !ok || v != 0 {
			t.Errorf("Lines[%s] = %v (present=%v), want 0", line, v, ok)
		}
	}
}

func TestFeatureRow_CloneIsDeep(t *testing.T) {
	rain := 4.2
	row := NewFeatureRow(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	row.RainAverage = &rain
	row.Lines[LineBTS] = 700_000

	clone := row.Clone()
	clone.Lines[LineBTS] = 1
	*clone.RainAverage = 99

	if row.Lines[LineBTS] != 700_000 {
		t.Errorf("clone mutation leaked into Lines: %v", row.Lines[LineBTS])
	}
	if *row.RainAverage != 4.2 {
		t.Errorf("clone mutation leaked into RainAverage: %v", *row.RainAverage)
	}
}

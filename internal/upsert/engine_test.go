package upsert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/store"
	"github.com/warit/ridership/backend/pkg/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func lineFragment(date time.Time, values map[contracts.LineID]float64) contracts.FeatureFragment {
	return contracts.FeatureFragment{Date: date, Lines: values}
}

func TestApply_InsertsMissingRowsWithDefaults(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	engine := New(mem, logger.NewNop())

	frag := contracts.FeatureFragment{
		Date:        day(2025, 6, 1),
		RainSet:     true,
		RainAverage: 4.5,
	}

	applied, err := engine.Apply(ctx, []contracts.FeatureFragment{frag}, WherePlaceholder)
	require.NoError(t, err)
	assert.Equal(t, Applied{Inserted: 1}, applied)

	row, err := mem.Get(ctx, frag.Date)
	require.NoError(t, err)
	require.NotNil(t, row.RainAverage)
	assert.Equal(t, 4.5, *row.RainAverage)
	// Unspecified fields land at their placeholder defaults.
	assert.Equal(t, contracts.DayTypeUnclassified, row.DayType)
	assert.Equal(t, 0.0, row.Lines[contracts.LineBTS])
}

func TestApply_Idempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	engine := New(mem, logger.NewNop())

	batch := []contracts.FeatureFragment{
		lineFragment(day(2025, 6, 1), map[contracts.LineID]float64{contracts.LineBTS: 700_000}),
		lineFragment(day(2025, 6, 2), map[contracts.LineID]float64{contracts.LineBTS: 650_000}),
	}

	_, err := engine.Apply(ctx, batch, Unconditional)
	require.NoError(t, err)
	first, err := mem.ReadAll(ctx)
	require.NoError(t, err)

	_, err = engine.Apply(ctx, batch, Unconditional)
	require.NoError(t, err)
	second, err := mem.ReadAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestApply_PartialFragmentLeavesOtherFieldsUntouched(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	engine := New(mem, logger.NewNop())
	date := day(2025, 6, 1)

	// Transit writes the row, rain fills it, then a day-type-only fragment
	// arrives. Rain and lines must survive.
	_, err := engine.Apply(ctx, []contracts.FeatureFragment{
		lineFragment(date, map[contracts.LineID]float64{contracts.LineMRTBlue: 400_000}),
	}, Unconditional)
	require.NoError(t, err)

	_, err = engine.Apply(ctx, []contracts.FeatureFragment{
		{Date: date, RainSet: true, RainAverage: 7.2},
	}, WherePlaceholder)
	require.NoError(t, err)

	holiday := contracts.DayTypeHoliday
	_, err = engine.Apply(ctx, []contracts.FeatureFragment{
		{Date: date, DayType: &holiday},
	}, WherePlaceholder)
	require.NoError(t, err)

	row, err := mem.Get(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, 400_000.0, row.Lines[contracts.LineMRTBlue])
	require.NotNil(t, row.RainAverage)
	assert.Equal(t, 7.2, *row.RainAverage)
	assert.Equal(t, contracts.DayTypeHoliday, row.DayType)
}

func TestApply_WherePlaceholderProtectsSettledValues(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	engine := New(mem, logger.NewNop())
	date := day(2025, 6, 1)

	normal := contracts.DayTypeNormal
	_, err := engine.Apply(ctx, []contracts.FeatureFragment{
		{Date: date, DayType: &normal, RainSet: true, RainAverage: 2.0},
	}, Unconditional)
	require.NoError(t, err)

	// A guarded re-run with different values must not clobber anything.
	festival := contracts.DayTypeFestival
	applied, err := engine.Apply(ctx, []contracts.FeatureFragment{
		{Date: date, DayType: &festival, RainSet: true, RainAverage: 99.0},
	}, WherePlaceholder)
	require.NoError(t, err)
	assert.Equal(t, Applied{Skipped: 1}, applied)

	row, err := mem.Get(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, contracts.DayTypeNormal, row.DayType)
	assert.Equal(t, 2.0, *row.RainAverage)
}

func TestApply_UnconditionalOverwrites(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	engine := New(mem, logger.NewNop())
	date := day(2025, 6, 1)

	_, err := engine.Apply(ctx, []contracts.FeatureFragment{
		lineFragment(date, map[contracts.LineID]float64{contracts.LineBTS: 100}),
	}, Unconditional)
	require.NoError(t, err)

	// Upstream corrections replace stored counts.
	applied, err := engine.Apply(ctx, []contracts.FeatureFragment{
		lineFragment(date, map[contracts.LineID]float64{contracts.LineBTS: 200}),
	}, Unconditional)
	require.NoError(t, err)
	assert.Equal(t, Applied{Updated: 1}, applied)

	row, err := mem.Get(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, 200.0, row.Lines[contracts.LineBTS])
}

func TestApplied_Touched(t *testing.T) {
	a := Applied{Inserted: 3, Updated: 2, Skipped: 4}
	assert.Equal(t, 5, a.Touched())
}

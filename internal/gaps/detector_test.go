package gaps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/store"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestDetect_EmptyStore(t *testing.T) {
	_, err := Detect(context.Background(), store.NewMemory())
	assert.ErrorIs(t, err, contracts.ErrEmptyStore)
}

func TestDetect_PartialRows(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	// Fully settled row.
	full := contracts.NewFeatureRow(day(1))
	rain := 1.5
	full.RainAverage = &rain
	full.DayType = contracts.DayTypeNormal
	require.NoError(t, mem.Put(ctx, full))

	// Rain filled, day type still placeholder.
	partial := contracts.NewFeatureRow(day(2))
	partial.RainAverage = &rain
	require.NoError(t, mem.Put(ctx, partial))

	// Fresh transit-only row.
	fresh := contracts.NewFeatureRow(day(3))
	require.NoError(t, mem.Put(ctx, fresh))

	report, err := Detect(ctx, mem)
	require.NoError(t, err)

	assert.Equal(t, day(3), report.MaxDate)
	assert.Equal(t, []time.Time{day(3)}, report.MissingRain)
	assert.Equal(t, []time.Time{day(2), day(3)}, report.Unclassified)
}

func TestDetect_FullySettledStoreHasNoGaps(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	rain := 0.0
	for d := 1; d <= 3; d++ {
		row := contracts.NewFeatureRow(day(d))
		row.RainAverage = &rain
		row.DayType = contracts.DayTypeNormal
		require.NoError(t, mem.Put(ctx, row))
	}

	report, err := Detect(ctx, mem)
	require.NoError(t, err)

	assert.Empty(t, report.MissingRain)
	assert.Empty(t, report.Unclassified)
	assert.Equal(t, day(3), report.MaxDate)
}

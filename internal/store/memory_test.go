package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warit/ridership/backend/internal/contracts"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestMemory_GetMissingRow(t *testing.T) {
	mem := NewMemory()
	_, err := mem.Get(context.Background(), day(1))
	assert.ErrorIs(t, err, contracts.ErrRowNotFound)
}

func TestMemory_PutNormalizesDate(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	row := contracts.NewFeatureRow(day(1))
	row.Date = time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	require.NoError(t, mem.Put(ctx, row))

	got, err := mem.Get(ctx, day(1))
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(day(1)))
}

func TestMemory_GetReturnsACopy(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Put(ctx, contracts.NewFeatureRow(day(1))))

	got, err := mem.Get(ctx, day(1))
	require.NoError(t, err)
	got.Lines[contracts.LineBTS] = 999

	again, err := mem.Get(ctx, day(1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, again.Lines[contracts.LineBTS])
}

func TestMemory_ReadRangeAndOrder(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	for _, d := range []int{3, 1, 5, 2} {
		require.NoError(t, mem.Put(ctx, contracts.NewFeatureRow(day(d))))
	}

	rows, err := mem.ReadRange(ctx, day(1), day(3))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Date.Equal(day(1)))
	assert.True(t, rows[2].Date.Equal(day(3)))

	all, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Date.Before(all[i].Date))
	}
}

func TestMemory_MaxDate(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	_, err := mem.MaxDate(ctx)
	assert.ErrorIs(t, err, contracts.ErrEmptyStore)

	require.NoError(t, mem.Put(ctx, contracts.NewFeatureRow(day(2))))
	require.NoError(t, mem.Put(ctx, contracts.NewFeatureRow(day(7))))

	max, err := mem.MaxDate(ctx)
	require.NoError(t, err)
	assert.True(t, max.Equal(day(7)))
}

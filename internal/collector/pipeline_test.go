package collector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/external/meteo"
	"github.com/warit/ridership/backend/internal/normalize"
	"github.com/warit/ridership/backend/internal/pipeline"
	"github.com/warit/ridership/backend/internal/quality"
	"github.com/warit/ridership/backend/internal/store"
	"github.com/warit/ridership/backend/internal/upsert"
	"github.com/warit/ridership/backend/pkg/logger"
)

// Fixed window for the end-to-end run: 2025-06-02 (Mon) .. 2025-06-06 (Fri).
var (
	e2eFrom = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	e2eTo   = time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
)

// fakeTransitSource serves every tracked line for each day in the window,
// with a deliberately misspelled purple label thrown in.
type fakeTransitSource struct{}

func (fakeTransitSource) FetchMonth(_ context.Context, year int, month time.Month) ([]normalize.TransitObservation, error) {
	var obs []normalize.TransitObservation
	labels := map[contracts.LineID]string{
		contracts.LineARL:       "ARL",
		contracts.LineBTS:       "BTS",
		contracts.LineMRTBlue:   "สายสีน้ำเงิน",
		contracts.LineMRTPurple: "สายสีมวง",
		contracts.LineMRTPink:   "สายสีชมพู",
		contracts.LineSRTRed:    "สายสีแดง",
		contracts.LineMRTYellow: "สายสีเหลือง",
	}

	for d := e2eFrom; !d.After(e2eTo); d = d.AddDate(0, 0, 1) {
		if d.Year() != year || d.Month() != month {
			continue
		}
		for _, label := range labels {
			obs = append(obs, normalize.TransitObservation{
				DateText:  d.Format("2006-01-02"),
				Label:     label,
				ValueText: "120000",
			})
		}
	}
	return obs, nil
}

// fakeRainSource reports a constant rainfall at every sampling point.
type fakeRainSource struct{}

func (fakeRainSource) FetchDailyRain(_ context.Context, loc meteo.Location, from, to time.Time) ([]normalize.RainReading, error) {
	var readings []normalize.RainReading
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		readings = append(readings, normalize.RainReading{
			Location:    loc.Name,
			DateText:    d.Format("2006-01-02"),
			Millimetres: 6.5,
			Valid:       true,
		})
	}
	return readings, nil
}

type fakeHolidaySource struct {
	holidays []string
}

func (f fakeHolidaySource) FetchHolidays(context.Context, int) ([]string, error) {
	return f.holidays, nil
}

type failingHolidaySource struct{}

func (failingHolidaySource) FetchHolidays(context.Context, int) ([]string, error) {
	return nil, fmt.Errorf("myhora: %w", contracts.ErrSourceUnavailable)
}

func newE2ERunner(mem *store.Memory, holidaySource HolidaySource) *pipeline.Runner {
	log := logger.NewNop()
	engine := upsert.New(mem, log)

	transit := NewTransitStage(fakeTransitSource{}, normalize.NewTransitNormalizer(normalize.DefaultLineGroups(), log), engine, mem, e2eFrom, log).
		WithNow(func() time.Time { return e2eTo })

	locations := []meteo.Location{
		{Name: "siam", Lat: 13.7456, Lon: 100.5339},
		{Name: "bang sue", Lat: 13.8023, Lon: 100.5297},
	}
	rain := NewRainStage(fakeRainSource{}, locations, engine, mem, 2, log)
	dayType := NewDayTypeStage(holidaySource, engine, mem, log)

	return pipeline.NewRunner(
		[]pipeline.StageRunner{transit, rain, dayType},
		mem,
		quality.New(quality.DefaultConfig(), log),
		7,
		log,
	)
}

func TestPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	// 2025-06-03 is an official holiday in the fake calendar.
	runner := newE2ERunner(mem, fakeHolidaySource{holidays: []string{"2025-06-03"}})

	report, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, pipeline.PhaseCompleted, report.Final.Phase)
	assert.Equal(t, contracts.VerdictPass, report.Overall)
	assert.Empty(t, report.NotRun)
	for _, stage := range contracts.AllStages() {
		sr := report.Reports[stage]
		require.NotNil(t, sr, "missing report for %s", stage)
		assert.Equal(t, contracts.VerdictPass, sr.Verdict, "stage %s", stage)
	}

	rows, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	for _, row := range rows {
		for _, line := range contracts.Lines() {
			assert.Equal(t, 120_000.0, row.Lines[line], "%s on %s", line, row.Date.Format("2006-01-02"))
		}
		require.NotNil(t, row.RainAverage)
		assert.InDelta(t, 6.5, *row.RainAverage, 1e-9)
		assert.NotEqual(t, contracts.DayTypeUnclassified, row.DayType)
	}

	holiday, err := mem.Get(ctx, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, contracts.DayTypeHoliday, holiday.DayType)

	normalDay, err := mem.Get(ctx, e2eFrom)
	require.NoError(t, err)
	assert.Equal(t, contracts.DayTypeNormal, normalDay.DayType)
}

func TestPipeline_SecondRunIsANoOp(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	runner := newE2ERunner(mem, fakeHolidaySource{holidays: []string{"2025-06-03"}})

	_, err := runner.Run(ctx)
	require.NoError(t, err)
	first, err := mem.ReadAll(ctx)
	require.NoError(t, err)

	report, err := runner.Run(ctx)
	require.NoError(t, err)
	second, err := mem.ReadAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, pipeline.PhaseCompleted, report.Final.Phase)
}

func TestDayTypeStage_FailedCalendarLeavesDatesUnclassified(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	log := logger.NewNop()
	engine := upsert.New(mem, log)

	// Seed two placeholder rows, then run day-type with a dead calendar.
	for _, d := range []time.Time{e2eFrom, e2eFrom.AddDate(0, 0, 1)} {
		require.NoError(t, mem.Put(ctx, contracts.NewFeatureRow(d)))
	}

	stage := NewDayTypeStage(failingHolidaySource{}, engine, mem, log)
	_, err := stage.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrSourceUnavailable)

	rows, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	for _, row := range rows {
		assert.Equal(t, contracts.DayTypeUnclassified, row.DayType)
	}
}

func TestTransitStage_IncrementalRunOnlyAppendsNewDates(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	log := logger.NewNop()
	engine := upsert.New(mem, log)

	// Pretend an earlier run already stored the first three days.
	for i := 0; i < 3; i++ {
		row := contracts.NewFeatureRow(e2eFrom.AddDate(0, 0, i))
		for _, line := range contracts.Lines() {
			row.Lines[line] = 99_000
		}
		require.NoError(t, mem.Put(ctx, row))
	}

	transit := NewTransitStage(fakeTransitSource{}, normalize.NewTransitNormalizer(normalize.DefaultLineGroups(), log), engine, mem, e2eFrom, log).
		WithNow(func() time.Time { return e2eTo })

	outcome, err := transit.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Processed)
	assert.Equal(t, e2eFrom.AddDate(0, 0, 3), outcome.From)
	assert.Equal(t, e2eTo, outcome.To)

	// Existing rows keep the values of the earlier run.
	row, err := mem.Get(ctx, e2eFrom)
	require.NoError(t, err)
	assert.Equal(t, 99_000.0, row.Lines[contracts.LineBTS])
}

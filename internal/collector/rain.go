package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/external/meteo"
	"github.com/warit/ridership/backend/internal/gaps"
	"github.com/warit/ridership/backend/internal/normalize"
	"github.com/warit/ridership/backend/internal/pipeline"
	"github.com/warit/ridership/backend/internal/upsert"
	"github.com/warit/ridership/backend/pkg/logger"
)

// RainSource provides daily rainfall readings for one sampling point.
type RainSource interface {
	FetchDailyRain(ctx context.Context, loc meteo.Location, from, to time.Time) ([]normalize.RainReading, error)
}

// RainStage fills rain_average for every date still missing it, averaging
// across the configured Bangkok sampling points. Point fetches are
// independent and run on a bounded worker pool; one point failing only
// shrinks the sample for its dates.
type RainStage struct {
	source    RainSource
	locations []meteo.Location
	engine    *upsert.Engine
	store     contracts.FeatureStore
	workers   int
	logger    *logger.Logger
}

// NewRainStage creates the rain stage.
func NewRainStage(source RainSource, locations []meteo.Location, engine *upsert.Engine, store contracts.FeatureStore, workers int, log *logger.Logger) *RainStage {
	if workers < 1 {
		workers = 1
	}
	return &RainStage{
		source:    source,
		locations: locations,
		engine:    engine,
		store:     store,
		workers:   workers,
		logger:    log.WithField("stage", "rain"),
	}
}

// Stage implements pipeline.StageRunner.
func (s *RainStage) Stage() contracts.Stage {
	return contracts.StageRain
}

// Run detects the rain gaps, fans out across sampling points for the gap
// window, and merges the per-date averages in placeholder-guarded mode.
func (s *RainStage) Run(ctx context.Context) (*pipeline.StageOutcome, error) {
	report, err := gaps.Detect(ctx, s.store)
	if err != nil {
		// Empty store: transit has written nothing yet, nothing to fill.
		return nil, err
	}
	if len(report.MissingRain) == 0 {
		s.logger.Info("No rain gaps, stage is a no-op")
		return &pipeline.StageOutcome{}, nil
	}

	from, to := dateBounds(report.MissingRain)

	readings, failed := s.fetchAllPoints(ctx, from, to)
	if failed == len(s.locations) {
		return nil, fmt.Errorf("%w: all %d rain sampling points failed", contracts.ErrSourceUnavailable, failed)
	}

	result, err := normalize.NormalizeRain(readings)
	if err != nil {
		return nil, err
	}

	// Guard mode protects settled values, but only fragments for gap dates
	// are worth writing at all.
	fragments := onlyDates(result.Fragments, report.MissingRain)

	s.logger.WithFields(map[string]interface{}{
		"points":    len(s.locations),
		"failed":    failed,
		"readings":  len(readings),
		"skipped":   result.Skipped,
		"fragments": len(fragments),
	}).Info("Rain batch normalized")

	if len(fragments) == 0 {
		return &pipeline.StageOutcome{}, nil
	}

	applied, err := s.engine.Apply(ctx, fragments, upsert.WherePlaceholder)
	if err != nil {
		return nil, err
	}

	return &pipeline.StageOutcome{
		Processed: applied.Touched(),
		From:      from,
		To:        to,
	}, nil
}

// fetchAllPoints dispatches the sampling points to a bounded worker pool.
// Readings are aggregated through a channel; workers share no mutable state.
func (s *RainStage) fetchAllPoints(ctx context.Context, from, to time.Time) ([]normalize.RainReading, int) {
	type pointResult struct {
		readings []normalize.RainReading
		err      error
		name     string
	}

	locCh := make(chan meteo.Location, len(s.locations))
	resultCh := make(chan pointResult, len(s.locations))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for loc := range locCh {
				select {
				case <-ctx.Done():
					resultCh <- pointResult{err: ctx.Err(), name: loc.Name}
					continue
				default:
				}

				readings, err := s.source.FetchDailyRain(ctx, loc, from, to)
				resultCh <- pointResult{readings: readings, err: err, name: loc.Name}
			}
		}()
	}

	for _, loc := range s.locations {
		locCh <- loc
	}
	close(locCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var (
		readings []normalize.RainReading
		failed   int
	)
	for result := range resultCh {
		if result.err != nil {
			failed++
			s.logger.WithError(result.err).WithField("location", result.name).
				Warn("Rain sampling point failed, skipping")
			continue
		}
		readings = append(readings, result.readings...)
	}

	return readings, failed
}

// dateBounds returns the min and max of a non-empty date list.
func dateBounds(dates []time.Time) (time.Time, time.Time) {
	min, max := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max
}

// onlyDates keeps fragments whose date appears in wanted.
func onlyDates(fragments []contracts.FeatureFragment, wanted []time.Time) []contracts.FeatureFragment {
	set := make(map[time.Time]bool, len(wanted))
	for _, d := range wanted {
		set[contracts.Date(d)] = true
	}

	out := fragments[:0:0]
	for _, frag := range fragments {
		if set[frag.Date] {
			out = append(out, frag)
		}
	}
	return out
}

package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/normalize"
	"github.com/warit/ridership/backend/internal/pipeline"
	"github.com/warit/ridership/backend/internal/upsert"
	"github.com/warit/ridership/backend/pkg/logger"
)

// TransitSource provides raw monthly ridership observations.
type TransitSource interface {
	FetchMonth(ctx context.Context, year int, month time.Month) ([]normalize.TransitObservation, error)
}

// TransitStage collects ridership counts and writes the placeholder rows the
// later stages fill. It runs first and in Unconditional mode: ridership
// corrections published upstream should overwrite what we stored.
type TransitStage struct {
	source        TransitSource
	normalizer    *normalize.TransitNormalizer
	engine        *upsert.Engine
	store         contracts.FeatureStore
	backfillStart time.Time
	now           func() time.Time
	logger        *logger.Logger
}

// NewTransitStage creates the transit stage.
func NewTransitStage(source TransitSource, normalizer *normalize.TransitNormalizer, engine *upsert.Engine, store contracts.FeatureStore, backfillStart time.Time, log *logger.Logger) *TransitStage {
	return &TransitStage{
		source:        source,
		normalizer:    normalizer,
		engine:        engine,
		store:         store,
		backfillStart: contracts.Date(backfillStart),
		now:           time.Now,
		logger:        log.WithField("stage", "transit"),
	}
}

// WithNow overrides the clock bounding the fetch window. Used for bounded
// historical runs.
func (s *TransitStage) WithNow(now func() time.Time) *TransitStage {
	if now != nil {
		s.now = now
	}
	return s
}

// Stage implements pipeline.StageRunner.
func (s *TransitStage) Stage() contracts.Stage {
	return contracts.StageTransit
}

// Run decides the fetch window from the persisted state (incremental past
// the max stored date, full backfill when the store is empty), pulls the
// involved months, normalizes and merges.
func (s *TransitStage) Run(ctx context.Context) (*pipeline.StageOutcome, error) {
	since, backfill, err := s.sinceDate(ctx)
	if err != nil {
		return nil, err
	}

	obs, months, fetchErrs := s.fetchMonths(ctx, since)
	if len(obs) == 0 && fetchErrs == months {
		return nil, fmt.Errorf("%w: all %d transit months failed", contracts.ErrSourceUnavailable, months)
	}

	result, err := s.normalizer.Normalize(obs)
	if err != nil {
		return nil, err
	}

	fragments := filterNew(result.Fragments, since)

	s.logger.WithFields(map[string]interface{}{
		"observations": len(obs),
		"fragments":    len(fragments),
		"dropped":      result.Dropped,
		"unmatched":    result.Unmatched,
		"ambiguous":    result.Ambiguous,
		"backfill":     backfill,
	}).Info("Transit batch normalized")

	if len(fragments) == 0 {
		return &pipeline.StageOutcome{}, nil
	}

	applied, err := s.engine.Apply(ctx, fragments, upsert.Unconditional)
	if err != nil {
		return nil, err
	}

	return &pipeline.StageOutcome{
		Processed: applied.Touched(),
		From:      fragments[0].Date,
		To:        fragments[len(fragments)-1].Date,
	}, nil
}

// sinceDate returns the exclusive lower bound for new rows. An empty store
// switches to the full backfill path starting one day before BackfillStart.
func (s *TransitStage) sinceDate(ctx context.Context) (time.Time, bool, error) {
	maxDate, err := s.store.MaxDate(ctx)
	if errors.Is(err, contracts.ErrEmptyStore) {
		return s.backfillStart.AddDate(0, 0, -1), true, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query max date: %w", err)
	}
	return maxDate, false, nil
}

// fetchMonths queries every month from the month containing since through
// the current month. A failed month is absorbed: remaining months are still
// processed.
func (s *TransitStage) fetchMonths(ctx context.Context, since time.Time) ([]normalize.TransitObservation, int, int) {
	var (
		obs      []normalize.TransitObservation
		months   int
		failures int
	)

	cursor := time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := s.now()

	for !cursor.After(end) {
		months++
		batch, err := s.source.FetchMonth(ctx, cursor.Year(), cursor.Month())
		if err != nil {
			failures++
			s.logger.WithError(err).WithField("month", cursor.Format("2006-01")).
				Warn("Transit month fetch failed, continuing")
		} else {
			obs = append(obs, batch...)
		}
		cursor = cursor.AddDate(0, 1, 0)
	}

	return obs, months, failures
}

// filterNew keeps fragments strictly past the incremental bound. Fragments
// are already date-sorted by the normalizer.
func filterNew(fragments []contracts.FeatureFragment, since time.Time) []contracts.FeatureFragment {
	out := fragments[:0:0]
	for _, frag := range fragments {
		if frag.Date.After(since) {
			out = append(out, frag)
		}
	}
	return out
}

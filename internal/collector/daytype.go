package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/daytype"
	"github.com/warit/ridership/backend/internal/gaps"
	"github.com/warit/ridership/backend/internal/normalize"
	"github.com/warit/ridership/backend/internal/pipeline"
	"github.com/warit/ridership/backend/internal/upsert"
	"github.com/warit/ridership/backend/pkg/logger"
)

// HolidaySource provides raw holiday calendar entries for a Christian year.
type HolidaySource interface {
	FetchHolidays(ctx context.Context, year int) ([]string, error)
}

// DayTypeStage classifies every date still carrying the day_type
// placeholder. Classification needs the official holiday calendar; dates in
// a year whose calendar could not be fetched are left unclassified rather
// than misclassified, because the placeholder guard would make a wrong label
// permanent.
type DayTypeStage struct {
	source HolidaySource
	engine *upsert.Engine
	store  contracts.FeatureStore
	logger *logger.Logger
}

// NewDayTypeStage creates the day-type stage.
func NewDayTypeStage(source HolidaySource, engine *upsert.Engine, store contracts.FeatureStore, log *logger.Logger) *DayTypeStage {
	return &DayTypeStage{
		source: source,
		engine: engine,
		store:  store,
		logger: log.WithField("stage", "day_type"),
	}
}

// Stage implements pipeline.StageRunner.
func (s *DayTypeStage) Stage() contracts.Stage {
	return contracts.StageDayType
}

// Run finds unclassified dates, loads holiday and festival sets for the
// involved years, classifies and merges in placeholder-guarded mode.
func (s *DayTypeStage) Run(ctx context.Context) (*pipeline.StageOutcome, error) {
	report, err := gaps.Detect(ctx, s.store)
	if err != nil {
		return nil, err
	}
	if len(report.Unclassified) == 0 {
		s.logger.Info("No unclassified dates, stage is a no-op")
		return &pipeline.StageOutcome{}, nil
	}

	holidays, failedYears, totalYears := s.loadHolidays(ctx, report.Unclassified)
	if failedYears == totalYears {
		return nil, fmt.Errorf("%w: holiday calendar failed for all %d years", contracts.ErrSourceUnavailable, totalYears)
	}

	festivals := make(map[int]map[time.Time]bool)

	var fragments []contracts.FeatureFragment
	skipped := 0
	for _, date := range report.Unclassified {
		yearHolidays, ok := holidays[date.Year()]
		if !ok {
			skipped++
			continue
		}
		if festivals[date.Year()] == nil {
			festivals[date.Year()] = daytype.FestivalDates(date.Year())
		}

		label := daytype.Classify(date, yearHolidays, festivals[date.Year()])
		fragments = append(fragments, contracts.FeatureFragment{
			Date:    date,
			DayType: &label,
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"unclassified": len(report.Unclassified),
		"classified":   len(fragments),
		"skipped":      skipped,
	}).Info("Day types classified")

	if len(fragments) == 0 {
		return &pipeline.StageOutcome{}, nil
	}

	applied, err := s.engine.Apply(ctx, fragments, upsert.WherePlaceholder)
	if err != nil {
		return nil, err
	}

	from, to := dateBounds(report.Unclassified)
	return &pipeline.StageOutcome{
		Processed: applied.Touched(),
		From:      from,
		To:        to,
	}, nil
}

// loadHolidays fetches and normalizes the holiday calendar for every year
// the gap dates span. A failed year is skipped; its dates stay unclassified
// for a later run.
func (s *DayTypeStage) loadHolidays(ctx context.Context, dates []time.Time) (map[int]map[time.Time]bool, int, int) {
	years := make(map[int]bool)
	for _, d := range dates {
		years[d.Year()] = true
	}

	holidays := make(map[int]map[time.Time]bool, len(years))
	failed := 0

	for year := range years {
		entries, err := s.source.FetchHolidays(ctx, year)
		if err != nil {
			failed++
			s.logger.WithError(err).WithField("year", year).
				Warn("Holiday calendar fetch failed, leaving year unclassified")
			continue
		}

		result, err := normalize.NormalizeHolidays(entries)
		if err != nil {
			failed++
			s.logger.WithError(err).WithField("year", year).
				Warn("Holiday calendar unusable, leaving year unclassified")
			continue
		}
		if result.Dropped > 0 {
			s.logger.WithFields(map[string]interface{}{
				"year":    year,
				"dropped": result.Dropped,
			}).Warn("Dropped malformed holiday entries")
		}

		holidays[year] = result.Dates
	}

	return holidays, failed, len(years)
}

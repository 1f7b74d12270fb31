package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/quality"
	"github.com/warit/ridership/backend/pkg/logger"
)

// StageOutcome is what a stage's fetch+normalize+upsert produced. From and
// To bound the dates the stage touched; when nothing was touched they are
// zero and evaluation falls back to the trailing window.
type StageOutcome struct {
	Processed int
	From      time.Time
	To        time.Time
}

// StageRunner is one data domain of the pipeline. Implementations fetch from
// the external source, normalize and merge into the store; the runner wraps
// each with quality evaluation and branching.
type StageRunner interface {
	Stage() contracts.Stage
	Run(ctx context.Context) (*StageOutcome, error)
}

// RunReport is the aggregate result of one pipeline run: every stage report
// that ran, the stages skipped after an abort, and the overall verdict
// (worst of the stage verdicts). This is the single user-visible failure
// channel of the pipeline.
type RunReport struct {
	StartedAt  time.Time                                  `json:"started_at"`
	FinishedAt time.Time                                  `json:"finished_at"`
	Final      State                                      `json:"final_state"`
	Reports    map[contracts.Stage]*contracts.QualityReport `json:"reports"`
	NotRun     []contracts.Stage                          `json:"not_run"`
	Overall    contracts.Verdict                          `json:"overall_status"`
}

// Runner sequences the three stages strictly in order: transit writes the
// placeholder rows that rain and day-type later fill, so stages never run
// concurrently with each other.
type Runner struct {
	stages     []StageRunner
	store      contracts.FeatureStore
	evaluator  *quality.Evaluator
	windowDays int
	logger     *logger.Logger
}

// NewRunner creates a pipeline runner. stages must arrive in execution order.
func NewRunner(stages []StageRunner, store contracts.FeatureStore, evaluator *quality.Evaluator, windowDays int, log *logger.Logger) *Runner {
	return &Runner{
		stages:     stages,
		store:      store,
		evaluator:  evaluator,
		windowDays: windowDays,
		logger:     log.WithField("module", "pipeline"),
	}
}

// Run executes the full pipeline. Stage-internal source failures are
// absorbed into the quality report; only store failures and context
// cancellation abort with an error.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		StartedAt: time.Now(),
		Reports:   make(map[contracts.Stage]*contracts.QualityReport),
	}

	state := Start()
	r.logger.Info("Pipeline run started")

	for _, stage := range r.stages {
		if state.Terminal() {
			report.NotRun = append(report.NotRun, stage.Stage())
			continue
		}

		state = Next(state, contracts.VerdictPass) // Pending -> Running

		outcome, err := stage.Run(ctx)
		if err != nil {
			if !recoverable(err) {
				return nil, fmt.Errorf("stage %s: %w", stage.Stage(), err)
			}
			r.logger.WithError(err).WithField("stage", stage.Stage().String()).
				Warn("Stage produced no data, evaluating stored state")
			outcome = &StageOutcome{}
		}

		state = Next(state, contracts.VerdictPass) // Running -> Evaluating

		stageReport, err := r.evaluate(ctx, stage.Stage(), outcome)
		if err != nil {
			return nil, fmt.Errorf("evaluate stage %s: %w", stage.Stage(), err)
		}
		report.Reports[stage.Stage()] = stageReport
		report.Overall = contracts.WorstVerdict(report.Overall, stageReport.Verdict)

		state = Next(state, stageReport.Verdict) // Evaluating -> Passed | Failed
		if state.Phase == PhaseFailed {
			r.logger.WithFields(map[string]interface{}{
				"stage": stage.Stage().String(),
				"score": stageReport.Score,
			}).Error("Stage failed quality gate, aborting remaining stages")
		}
		state = Next(state, stageReport.Verdict) // -> next Pending | Completed | Aborted
	}

	report.Final = state
	report.FinishedAt = time.Now()

	r.logger.WithFields(map[string]interface{}{
		"final":   string(state.Phase),
		"overall": report.Overall.String(),
		"skipped": len(report.NotRun),
	}).Info("Pipeline run finished")

	return report, nil
}

// evaluate scores the stage over the window it touched, falling back to the
// trailing window over the latest stored dates when the stage touched
// nothing.
func (r *Runner) evaluate(ctx context.Context, stage contracts.Stage, outcome *StageOutcome) (*contracts.QualityReport, error) {
	from, to := outcome.From, outcome.To
	trailing := from.IsZero() || to.IsZero()
	if trailing {
		max, err := r.store.MaxDate(ctx)
		if errors.Is(err, contracts.ErrEmptyStore) {
			// Nothing stored and nothing fetched: an all-missing window.
			max = contracts.Date(time.Now())
		} else if err != nil {
			return nil, err
		}
		to = max
		from = to.AddDate(0, 0, -(r.windowDays - 1))
	}

	rows, err := r.store.ReadRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	// A trailing window can reach past the configured history start when the
	// store holds fewer days than the window. Days before the first stored
	// row are not gaps, so clamp rather than score them as missing.
	if trailing && len(rows) > 0 && rows[0].Date.After(from) {
		from = rows[0].Date
	}

	stageReport := r.evaluator.Evaluate(stage, rows, from, to)
	if outcome.Processed > 0 {
		stageReport.RecordsProcessed = outcome.Processed
	}
	return stageReport, nil
}

// recoverable reports whether a stage error should degrade to an evaluation
// of stored state instead of aborting the run.
func recoverable(err error) bool {
	return errors.Is(err, contracts.ErrNoData) ||
		errors.Is(err, contracts.ErrSourceUnavailable) ||
		errors.Is(err, contracts.ErrEmptyStore)
}

package jobs

import (
	"context"
	"fmt"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/pipeline"
	"github.com/warit/ridership/backend/pkg/logger"
)

// FeatureRefreshJob runs the full feature pipeline on a nightly schedule.
type FeatureRefreshJob struct {
	runner   *pipeline.Runner
	schedule string
	logger   *logger.Logger
}

// NewFeatureRefreshJob creates the nightly refresh job.
func NewFeatureRefreshJob(runner *pipeline.Runner, schedule string, log *logger.Logger) *FeatureRefreshJob {
	return &FeatureRefreshJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name.
func (j *FeatureRefreshJob) Name() string {
	return "feature_refresh"
}

// Schedule returns the cron expression from config.
func (j *FeatureRefreshJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline run. An aborted run is reported as a job
// failure so it shows up in the scheduler history.
func (j *FeatureRefreshJob) Run(ctx context.Context) error {
	report, err := j.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"overall": report.Overall.String(),
		"final":   string(report.Final.Phase),
	}).Info("Scheduled feature refresh finished")

	if report.Overall == contracts.VerdictFail {
		return fmt.Errorf("pipeline aborted with overall status %s", report.Overall)
	}
	return nil
}

package contracts

import "time"

// Stage identifies one of the three pipeline data domains. Stages always run
// in the order returned by AllStages: transit writes the placeholder rows
// that rain and day-type later fill.
type Stage string

const (
	StageTransit Stage = "transit"
	StageRain    Stage = "rain"
	StageDayType Stage = "day_type"
)

// AllStages returns the pipeline stages in execution order.
func AllStages() []Stage {
	return []Stage{StageTransit, StageRain, StageDayType}
}

// String returns the stage name.
func (s Stage) String() string {
	return string(s)
}

// Verdict summarizes a QualityReport. The numeric values define a total
// order (Pass < Warning < Fail) so "worst of" aggregation is an integer
// comparison, never a string comparison.
type Verdict int

const (
	VerdictPass    Verdict = 0
	VerdictWarning Verdict = 1
	VerdictFail    Verdict = 2
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "pass"
	case VerdictWarning:
		return "warning"
	case VerdictFail:
		return "fail"
	default:
		return "unknown"
	}
}

// WorstVerdict returns the most severe of the given verdicts, VerdictPass
// when none are given.
func WorstVerdict(verdicts ...Verdict) Verdict {
	worst := VerdictPass
	for _, v := range verdicts {
		if v > worst {
			worst = v
		}
	}
	return worst
}

// QualityReport is produced once per pipeline stage. It lives for the
// duration of a run: the orchestrator consumes the verdict to branch and
// folds the report into the final aggregate.
type QualityReport struct {
	Stage            Stage                  `json:"stage"`
	RecordsProcessed int                    `json:"records_processed"`
	Missing          map[string][]time.Time `json:"missing"` // field -> dates
	Anomalies        []string               `json:"anomalies"`
	Score            float64                `json:"score"` // [0,1]
	Verdict          Verdict                `json:"verdict"`
}

// MissingCells returns the total number of missing cells across fields.
func (r *QualityReport) MissingCells() int {
	n := 0
	for _, dates := range r.Missing {
		n += len(dates)
	}
	return n
}

package quality

import (
	"fmt"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/pkg/logger"
)

// Config holds evaluation thresholds. Everything is explicit so a deployment
// can tune what counts as implausible without touching code.
type Config struct {
	// FailThreshold is the score below which a stage fails.
	FailThreshold float64

	// LineMax is the maximum plausible daily ridership per line. Values
	// above it are flagged, not rejected.
	LineMax map[contracts.LineID]float64

	// RainMin and RainMax bound plausible daily rainfall in millimetres.
	RainMin float64
	RainMax float64

	// WeekendAllowed lists the day types a Saturday or Sunday may carry.
	// Kept configurable: a weekend that is also an official holiday is an
	// open question in the source behavior (see DESIGN.md).
	WeekendAllowed []contracts.DayType
}

// DefaultConfig returns thresholds tuned for the Bangkok network.
func DefaultConfig() Config {
	return Config{
		FailThreshold: 0.8,
		LineMax: map[contracts.LineID]float64{
			contracts.LineARL:       150_000,
			contracts.LineBTS:       2_000_000,
			contracts.LineMRTBlue:   800_000,
			contracts.LineMRTPurple: 150_000,
			contracts.LineMRTPink:   150_000,
			contracts.LineSRTRed:    100_000,
			contracts.LineMRTYellow: 150_000,
		},
		RainMin:        0,
		RainMax:        200,
		WeekendAllowed: []contracts.DayType{contracts.DayTypeNormal, contracts.DayTypeFestival},
	}
}

// Evaluator computes per-stage quality reports over a trailing window. It
// never mutates the store; anomaly detection is advisory, not a filter.
type Evaluator struct {
	cfg    Config
	logger *logger.Logger
}

// New creates an Evaluator.
func New(cfg Config, log *logger.Logger) *Evaluator {
	return &Evaluator{cfg: cfg, logger: log.WithField("module", "quality")}
}

// Evaluate scores one domain over the window [from, to]. rows are the
// persisted rows inside that window; dates with no row at all count as
// missing for every tracked field.
func (e *Evaluator) Evaluate(stage contracts.Stage, rows []*contracts.FeatureRow, from, to time.Time) *contracts.QualityReport {
	report := &contracts.QualityReport{
		Stage:            stage,
		RecordsProcessed: len(rows),
		Missing:          make(map[string][]time.Time),
	}

	byDate := make(map[time.Time]*contracts.FeatureRow, len(rows))
	for _, row := range rows {
		byDate[contracts.Date(row.Date)] = row
	}

	from, to = contracts.Date(from), contracts.Date(to)
	windowDays := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		windowDays++
		row := byDate[d]

		switch stage {
		case contracts.StageTransit:
			e.checkTransit(report, d, row)
		case contracts.StageRain:
			e.checkRain(report, d, row)
		case contracts.StageDayType:
			e.checkDayType(report, d, row)
		}
	}

	expected := windowDays * e.fieldsFor(stage)
	missing := report.MissingCells()
	report.Score = clamp(float64(expected-missing) / float64(expected))
	report.Verdict = e.verdict(report)

	e.logger.WithFields(map[string]interface{}{
		"stage":     stage.String(),
		"window":    windowDays,
		"expected":  expected,
		"missing":   missing,
		"anomalies": len(report.Anomalies),
		"score":     report.Score,
		"verdict":   report.Verdict.String(),
	}).Info("Stage quality evaluated")

	return report
}

// fieldsFor returns how many cells one date contributes for a domain.
func (e *Evaluator) fieldsFor(stage contracts.Stage) int {
	if stage == contracts.StageTransit {
		return len(contracts.Lines())
	}
	return 1
}

// checkTransit flags NULL-equivalent and exactly-zero line values as missing
// (a transit line realistically never carries zero riders) and implausible
// counts as anomalies.
func (e *Evaluator) checkTransit(report *contracts.QualityReport, date time.Time, row *contracts.FeatureRow) {
	for _, line := range contracts.Lines() {
		if row == nil {
			report.Missing[string(line)] = append(report.Missing[string(line)], date)
			continue
		}

		v := row.Lines[line]
		if v == 0 {
			report.Missing[string(line)] = append(report.Missing[string(line)], date)
			continue
		}
		if v < 0 {
			report.Anomalies = append(report.Anomalies,
				fmt.Sprintf("%s: negative ridership %.0f on %s", line, v, fmtDate(date)))
			continue
		}
		if max, ok := e.cfg.LineMax[line]; ok && v > max {
			report.Anomalies = append(report.Anomalies,
				fmt.Sprintf("%s: ridership %.0f above plausible max %.0f on %s", line, v, max, fmtDate(date)))
		}
	}
}

// checkRain flags an unset rain_average as missing and out-of-range values
// as anomalies. Negative rainfall is flagged, never rejected.
func (e *Evaluator) checkRain(report *contracts.QualityReport, date time.Time, row *contracts.FeatureRow) {
	if row == nil || row.RainAverage == nil {
		report.Missing["rain_average"] = append(report.Missing["rain_average"], date)
		return
	}

	v := *row.RainAverage
	if v < 0 {
		report.Anomalies = append(report.Anomalies,
			fmt.Sprintf("rain_average: negative %.1f mm on %s", v, fmtDate(date)))
		return
	}
	if v < e.cfg.RainMin || v > e.cfg.RainMax {
		report.Anomalies = append(report.Anomalies,
			fmt.Sprintf("rain_average: %.1f mm outside plausible range [%.0f, %.0f] on %s",
				v, e.cfg.RainMin, e.cfg.RainMax, fmtDate(date)))
	}
}

// checkDayType flags the day_type placeholder as missing and validates the
// weekend consistency rule: Saturday and Sunday rows must carry a day type
// from the allowed set. Violations are classification errors that force at
// least a Warning through the anomaly list.
func (e *Evaluator) checkDayType(report *contracts.QualityReport, date time.Time, row *contracts.FeatureRow) {
	if row == nil || row.DayType == contracts.DayTypeUnclassified {
		report.Missing["day_type"] = append(report.Missing["day_type"], date)
		return
	}

	if !row.DayType.Valid() {
		report.Anomalies = append(report.Anomalies,
			fmt.Sprintf("day_type: invalid value %d on %s", row.DayType, fmtDate(date)))
		return
	}

	if contracts.IsWeekend(date) && !e.weekendAllowed(row.DayType) {
		report.Anomalies = append(report.Anomalies,
			fmt.Sprintf("day_type: classification error, weekend %s labeled %s", fmtDate(date), row.DayType))
	}
}

func (e *Evaluator) weekendAllowed(d contracts.DayType) bool {
	for _, allowed := range e.cfg.WeekendAllowed {
		if d == allowed {
			return true
		}
	}
	return false
}

// verdict applies the branch rule: Fail below the score threshold, Warning
// when anything is missing or anomalous, Pass otherwise.
func (e *Evaluator) verdict(report *contracts.QualityReport) contracts.Verdict {
	if report.Score < e.cfg.FailThreshold {
		return contracts.VerdictFail
	}
	if len(report.Anomalies) > 0 || report.MissingCells() > 0 {
		return contracts.VerdictWarning
	}
	return contracts.VerdictPass
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}

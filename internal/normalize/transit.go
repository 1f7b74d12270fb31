package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/pkg/logger"
)

// TransitObservation is one raw row from the ridership API: a free-text
// vehicle/line label and a daily passenger count, as published. Never
// persisted in this form.
type TransitObservation struct {
	DateText  string
	Label     string
	ValueText string
}

// LineGroup maps a canonical line to the label substrings that identify it.
// The upstream data spells line names inconsistently (several Thai variants
// per line), so reconciliation is an explicit ordered table rather than
// string matching scattered through the code. Group order is the priority
// order when a label matches more than one group.
type LineGroup struct {
	Canonical contracts.LineID
	Keywords  []string
}

// DefaultLineGroups returns the label variants observed in the MOT feed.
func DefaultLineGroups() []LineGroup {
	return []LineGroup{
		{contracts.LineARL, []string{"arl", "ARL", "สุวรรณภูมิ"}},
		{contracts.LineBTS, []string{"bts", "BTS", "ลูกฟูก"}},
		{contracts.LineMRTBlue, []string{"น้ำเงิน", "นำเงิน", "น้าเงิน", "สีน้ำเงิน"}},
		{contracts.LineMRTPurple, []string{"ม่วง", "มวง", "สีม่วง"}},
		{contracts.LineMRTPink, []string{"ชมพู", "ชมพูู", "ชมพุ", "สีชมพู"}},
		{contracts.LineSRTRed, []string{"แดง", "สีแดง", "ชานเมือง"}},
		{contracts.LineMRTYellow, []string{"เหลือง", "เหลืง", "สีเหลือง"}},
	}
}

// TransitResult is the outcome of normalizing one transit batch.
type TransitResult struct {
	Fragments []contracts.FeatureFragment

	// Dropped counts records discarded for a missing or unparseable date.
	Dropped int

	// Unmatched counts records whose label fits no keyword group.
	Unmatched int

	// Ambiguous counts labels that matched more than one group and were
	// resolved by group priority order.
	Ambiguous int
}

// TransitNormalizer pivots raw per-observation ridership records into one
// feature fragment per date with one value per canonical line.
type TransitNormalizer struct {
	groups []LineGroup
	logger *logger.Logger
}

// NewTransitNormalizer creates a normalizer with the given reconciliation
// table.
func NewTransitNormalizer(groups []LineGroup, log *logger.Logger) *TransitNormalizer {
	return &TransitNormalizer{groups: groups, logger: log.WithField("module", "normalize")}
}

// Normalize converts raw observations into per-date fragments. Individual
// malformed records are dropped and counted, never fatal. A non-empty input
// that yields nothing usable returns contracts.ErrNoData; an empty input is
// an empty-but-valid result.
func (n *TransitNormalizer) Normalize(obs []TransitObservation) (*TransitResult, error) {
	result := &TransitResult{}
	byDate := make(map[time.Time]map[contracts.LineID]float64)

	for _, o := range obs {
		date, ok := ParseDate(o.DateText)
		if !ok {
			result.Dropped++
			continue
		}

		line, matched := n.resolveLine(o.Label, result)
		if !matched {
			continue
		}

		// Unparseable counts coerce to zero rather than dropping the
		// observation; the quality stage treats zeros as suspicious.
		value := parseCount(o.ValueText)

		if byDate[date] == nil {
			byDate[date] = newLineValues()
		}
		// Differently-spelled labels for the same line sum into the
		// canonical column.
		byDate[date][line] += value
	}

	for date, lines := range byDate {
		result.Fragments = append(result.Fragments, contracts.FeatureFragment{
			Date:  date,
			Lines: lines,
		})
	}
	sort.Slice(result.Fragments, func(i, j int) bool {
		return result.Fragments[i].Date.Before(result.Fragments[j].Date)
	})

	if len(obs) > 0 && len(result.Fragments) == 0 {
		return result, contracts.ErrNoData
	}
	return result, nil
}

// resolveLine matches a raw label against the keyword groups. First matching
// group wins; additional matches are logged as ambiguities.
func (n *TransitNormalizer) resolveLine(label string, result *TransitResult) (contracts.LineID, bool) {
	var (
		resolved contracts.LineID
		matches  int
	)

	for _, group := range n.groups {
		for _, keyword := range group.Keywords {
			if strings.Contains(label, keyword) {
				if matches == 0 {
					resolved = group.Canonical
				}
				matches++
				break
			}
		}
	}

	switch {
	case matches == 0:
		result.Unmatched++
		return "", false
	case matches > 1:
		result.Ambiguous++
		n.logger.WithFields(map[string]interface{}{
			"label":    label,
			"resolved": string(resolved),
			"matches":  matches,
		}).Warn("Ambiguous line label, resolved by group priority")
	}
	return resolved, true
}

// newLineValues returns a complete line map with every value at zero.
func newLineValues() map[contracts.LineID]float64 {
	lines := make(map[contracts.LineID]float64, len(contracts.Lines()))
	for _, line := range contracts.Lines() {
		lines[line] = 0
	}
	return lines
}

// parseCount coerces a raw passenger count, treating unparseable values as 0.
func parseCount(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	v, err := parseFloat(s)
	if err != nil {
		return 0
	}
	return v
}

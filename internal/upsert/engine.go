package upsert

import (
	"context"
	"errors"
	"fmt"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/pkg/logger"
)

// Mode selects the guard predicate applied before a fragment overwrites an
// existing row.
type Mode int

const (
	// Unconditional overwrites every field the fragment carries.
	Unconditional Mode = iota

	// WherePlaceholder only fills fields still at their placeholder:
	// day_type is overwritten only while unclassified and rain_average only
	// while unset. Line values are always written. Rain and day-type stages
	// run in this mode so a later re-run never clobbers settled values.
	WherePlaceholder
)

// Applied reports what one batch did to the store.
type Applied struct {
	Inserted int
	Updated  int
	Skipped  int // rows whose guard predicate rejected every carried field
}

// Touched is the number of rows the batch actually changed or created.
func (a Applied) Touched() int {
	return a.Inserted + a.Updated
}

// Engine merges feature fragments into the persisted store. It is the only
// component that mutates feature rows. Applying the same batch twice yields
// the same state as applying it once.
type Engine struct {
	store  contracts.FeatureStore
	logger *logger.Logger
}

// New creates an upsert engine over the given store.
func New(store contracts.FeatureStore, log *logger.Logger) *Engine {
	return &Engine{store: store, logger: log.WithField("module", "upsert")}
}

// Apply merges a batch keyed by date. Missing rows are inserted with every
// unspecified field at its default; existing rows keep every field the
// fragment does not carry. A store write failure is surfaced immediately and
// never retried here.
func (e *Engine) Apply(ctx context.Context, fragments []contracts.FeatureFragment, mode Mode) (Applied, error) {
	var applied Applied

	for _, frag := range fragments {
		existing, err := e.store.Get(ctx, frag.Date)
		switch {
		case errors.Is(err, contracts.ErrRowNotFound):
			row := contracts.NewFeatureRow(frag.Date)
			merge(row, frag, Unconditional)
			if err := e.store.Put(ctx, row); err != nil {
				return applied, fmt.Errorf("insert row %s: %w", frag.Date.Format("2006-01-02"), err)
			}
			applied.Inserted++

		case err != nil:
			return applied, fmt.Errorf("read row %s: %w", frag.Date.Format("2006-01-02"), err)

		default:
			if !merge(existing, frag, mode) {
				applied.Skipped++
				continue
			}
			if err := e.store.Put(ctx, existing); err != nil {
				return applied, fmt.Errorf("update row %s: %w", frag.Date.Format("2006-01-02"), err)
			}
			applied.Updated++
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"batch":    len(fragments),
		"inserted": applied.Inserted,
		"updated":  applied.Updated,
		"skipped":  applied.Skipped,
	}).Debug("Batch applied")

	return applied, nil
}

// merge writes the fragment's fields into row and reports whether any guard
// predicate passed. Rows that pass a guard count as touched even when the
// merged value happens to equal the stored one.
func merge(row *contracts.FeatureRow, frag contracts.FeatureFragment, mode Mode) bool {
	touched := false

	if frag.Lines != nil {
		for line, v := range frag.Lines {
			row.Lines[line] = v
		}
		touched = true
	}

	if frag.RainSet {
		if mode == Unconditional || row.RainAverage == nil {
			rain := frag.RainAverage
			row.RainAverage = &rain
			touched = true
		}
	}

	if frag.DayType != nil {
		if mode == Unconditional || row.DayType == contracts.DayTypeUnclassified {
			row.DayType = *frag.DayType
			touched = true
		}
	}

	return touched
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warit/ridership/backend/internal/contracts"
)

// Memory is a map-backed contracts.FeatureStore for tests and dry runs.
type Memory struct {
	mu   sync.RWMutex
	rows map[time.Time]*contracts.FeatureRow
}

// NewMemory creates an empty in-memory feature store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[time.Time]*contracts.FeatureRow)}
}

// Get returns the row for date.
func (s *Memory) Get(_ context.Context, date time.Time) (*contracts.FeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[contracts.Date(date)]
	if !ok {
		return nil, contracts.ErrRowNotFound
	}
	return row.Clone(), nil
}

// Put inserts or fully replaces the row for row.Date.
func (s *Memory) Put(_ context.Context, row *contracts.FeatureRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := row.Clone()
	clone.Date = contracts.Date(clone.Date)
	s.rows[clone.Date] = clone
	return nil
}

// ReadAll returns every row ordered by date ascending.
func (s *Memory) ReadAll(_ context.Context) ([]*contracts.FeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*contracts.FeatureRow, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ReadRange returns rows within [from, to] ordered by date ascending.
func (s *Memory) ReadRange(_ context.Context, from, to time.Time) ([]*contracts.FeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to = contracts.Date(from), contracts.Date(to)
	out := make([]*contracts.FeatureRow, 0)
	for date, row := range s.rows {
		if !date.Before(from) && !date.After(to) {
			out = append(out, row.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// MaxDate returns the latest date present, or ErrEmptyStore.
func (s *Memory) MaxDate(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.rows) == 0 {
		return time.Time{}, contracts.ErrEmptyStore
	}

	var max time.Time
	for date := range s.rows {
		if date.After(max) {
			max = date
		}
	}
	return max, nil
}

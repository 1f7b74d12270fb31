package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warit/ridership/backend/internal/contracts"
)

// Postgres implements contracts.FeatureStore on the features table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new Postgres-backed feature store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const featureColumns = `feature_date, day_type, dow, rain_average,
	arl, bts, mrt_blue, mrt_purple, mrt_pink, srt_red, mrt_yellow`

func scanRow(scan func(dest ...any) error) (*contracts.FeatureRow, error) {
	row := contracts.NewFeatureRow(time.Time{})
	var (
		arl, bts, blue, purple, pink, red, yellow float64
		dayType                                   int16
	)

	err := scan(
		&row.Date, &dayType, &row.DayOfWeek, &row.RainAverage,
		&arl, &bts, &blue, &purple, &pink, &red, &yellow,
	)
	if err != nil {
		return nil, err
	}

	row.Date = contracts.Date(row.Date)
	row.DayType = contracts.DayType(dayType)
	row.Lines[contracts.LineARL] = arl
	row.Lines[contracts.LineBTS] = bts
	row.Lines[contracts.LineMRTBlue] = blue
	row.Lines[contracts.LineMRTPurple] = purple
	row.Lines[contracts.LineMRTPink] = pink
	row.Lines[contracts.LineSRTRed] = red
	row.Lines[contracts.LineMRTYellow] = yellow
	return row, nil
}

// Get returns the row for date.
func (s *Postgres) Get(ctx context.Context, date time.Time) (*contracts.FeatureRow, error) {
	query := `SELECT ` + featureColumns + ` FROM features WHERE feature_date = $1`

	row, err := scanRow(s.pool.QueryRow(ctx, query, contracts.Date(date)).Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrRowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query feature row: %w", err)
	}
	return row, nil
}

// Put inserts or fully replaces the row for row.Date. The date key makes the
// write idempotent: re-applying the same row is a no-op state-wise.
func (s *Postgres) Put(ctx context.Context, row *contracts.FeatureRow) error {
	query := `
		INSERT INTO features (` + featureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (feature_date) DO UPDATE SET
			day_type = EXCLUDED.day_type,
			dow = EXCLUDED.dow,
			rain_average = EXCLUDED.rain_average,
			arl = EXCLUDED.arl,
			bts = EXCLUDED.bts,
			mrt_blue = EXCLUDED.mrt_blue,
			mrt_purple = EXCLUDED.mrt_purple,
			mrt_pink = EXCLUDED.mrt_pink,
			srt_red = EXCLUDED.srt_red,
			mrt_yellow = EXCLUDED.mrt_yellow
	`

	_, err := s.pool.Exec(ctx, query,
		contracts.Date(row.Date), int16(row.DayType), row.DayOfWeek, row.RainAverage,
		row.Lines[contracts.LineARL],
		row.Lines[contracts.LineBTS],
		row.Lines[contracts.LineMRTBlue],
		row.Lines[contracts.LineMRTPurple],
		row.Lines[contracts.LineMRTPink],
		row.Lines[contracts.LineSRTRed],
		row.Lines[contracts.LineMRTYellow],
	)
	if err != nil {
		return fmt.Errorf("upsert feature row: %w", err)
	}
	return nil
}

// ReadAll returns every row ordered by date ascending.
func (s *Postgres) ReadAll(ctx context.Context) ([]*contracts.FeatureRow, error) {
	query := `SELECT ` + featureColumns + ` FROM features ORDER BY feature_date ASC`
	return s.readRows(ctx, query)
}

// ReadRange returns rows within [from, to] ordered by date ascending.
func (s *Postgres) ReadRange(ctx context.Context, from, to time.Time) ([]*contracts.FeatureRow, error) {
	query := `SELECT ` + featureColumns + ` FROM features
		WHERE feature_date BETWEEN $1 AND $2 ORDER BY feature_date ASC`
	return s.readRows(ctx, query, contracts.Date(from), contracts.Date(to))
}

func (s *Postgres) readRows(ctx context.Context, query string, args ...any) ([]*contracts.FeatureRow, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feature rows: %w", err)
	}
	defer rows.Close()

	var out []*contracts.FeatureRow
	for rows.Next() {
		row, err := scanRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MaxDate returns the latest date present, or ErrEmptyStore.
func (s *Postgres) MaxDate(ctx context.Context) (time.Time, error) {
	var max *time.Time
	err := s.pool.QueryRow(ctx, `SELECT MAX(feature_date) FROM features`).Scan(&max)
	if err != nil {
		return time.Time{}, fmt.Errorf("query max feature date: %w", err)
	}
	if max == nil {
		return time.Time{}, contracts.ErrEmptyStore
	}
	return contracts.Date(*max), nil
}

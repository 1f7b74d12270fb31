package database

import (
	"context"
	"fmt"
)

// featuresDDL creates the per-day features table. One row per calendar date,
// keyed by feature_date. Line columns default to 0, rain_average stays NULL
// until the rain stage fills it and day_type stays -1 until classification.
const featuresDDL = `
CREATE TABLE IF NOT EXISTS features (
	feature_date DATE PRIMARY KEY,
	day_type SMALLINT NOT NULL DEFAULT -1,
	dow SMALLINT NOT NULL,
	rain_average FLOAT,
	arl FLOAT NOT NULL DEFAULT 0,
	bts FLOAT NOT NULL DEFAULT 0,
	mrt_blue FLOAT NOT NULL DEFAULT 0,
	mrt_purple FLOAT NOT NULL DEFAULT 0,
	mrt_pink FLOAT NOT NULL DEFAULT 0,
	srt_red FLOAT NOT NULL DEFAULT 0,
	mrt_yellow FLOAT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_features_date ON features(feature_date);
`

// Migrate creates the schema objects the service needs.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, featuresDDL); err != nil {
		return fmt.Errorf("create features table: %w", err)
	}
	return nil
}

package commands

import (
	"fmt"
	"time"

	"github.com/warit/ridership/backend/internal/collector"
	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/external/meteo"
	"github.com/warit/ridership/backend/internal/external/mot"
	"github.com/warit/ridership/backend/internal/external/myhora"
	"github.com/warit/ridership/backend/internal/normalize"
	"github.com/warit/ridership/backend/internal/pipeline"
	"github.com/warit/ridership/backend/internal/quality"
	"github.com/warit/ridership/backend/internal/store"
	"github.com/warit/ridership/backend/internal/upsert"
	"github.com/warit/ridership/backend/pkg/config"
	"github.com/warit/ridership/backend/pkg/database"
	"github.com/warit/ridership/backend/pkg/httputil"
	"github.com/warit/ridership/backend/pkg/logger"
)

// runtime bundles the wired components a command needs.
type runtime struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	store contracts.FeatureStore
}

// newRuntime loads config and connects to PostgreSQL.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &runtime{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: store.NewPostgres(db.Pool),
	}, nil
}

// runnerOptions adjust how buildRunner wires the pipeline. Zero values mean
// "use the config / the real clock / the persistent store".
type runnerOptions struct {
	store         contracts.FeatureStore
	backfillStart time.Time
	until         time.Time
}

// buildRunner wires the three collector stages and the quality-gated runner.
func (r *runtime) buildRunner(opts runnerOptions) *pipeline.Runner {
	featureStore := opts.store
	if featureStore == nil {
		featureStore = r.store
	}
	backfillStart := opts.backfillStart
	if backfillStart.IsZero() {
		backfillStart = r.cfg.Pipeline.BackfillStart
	}

	engine := upsert.New(featureStore, r.log)
	httpClient := httputil.New(r.log).WithRateLimit(r.cfg.Pipeline.RequestsPerSecond)

	transit := collector.NewTransitStage(
		mot.NewClient(r.cfg.MOT, httpClient, r.log),
		normalize.NewTransitNormalizer(normalize.DefaultLineGroups(), r.log),
		engine,
		featureStore,
		backfillStart,
		r.log,
	)
	if !opts.until.IsZero() {
		until := opts.until
		transit.WithNow(func() time.Time { return until })
	}

	rain := collector.NewRainStage(
		meteo.NewClient(r.cfg.Meteo, httpClient, r.log),
		meteo.DefaultLocations(),
		engine,
		featureStore,
		r.cfg.Pipeline.RainWorkers,
		r.log,
	)
	dayType := collector.NewDayTypeStage(
		myhora.NewClient(r.cfg.MyHora, httpClient, r.log),
		engine,
		featureStore,
		r.log,
	)

	qualityCfg := quality.DefaultConfig()
	qualityCfg.FailThreshold = r.cfg.Pipeline.FailThreshold

	return pipeline.NewRunner(
		[]pipeline.StageRunner{transit, rain, dayType},
		featureStore,
		quality.New(qualityCfg, r.log),
		r.cfg.Pipeline.QualityWindowDays,
		r.log,
	)
}

// close releases runtime resources.
func (r *runtime) close() {
	r.db.Close()
}

package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wonny/stox/backend/internal/brain"
	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/profile"
	"github.com/wonny/stox/backend/internal/s0_data"
	"github.com/wonny/stox/backend/internal/s0_data/collector"
	"github.com/wonny/stox/backend/internal/s3_dataset"
	"github.com/wonny/stox/backend/pkg/config"
	"github.com/wonny/stox/backend/pkg/database"
	"github.com/wonny/stox/backend/pkg/logger"
	"github.com/wonny/stox/backend/pkg/metrics"
	"github.com/wonny/stox/backend/pkg/redis"
)

const memoSize = 256

// app holds the wired components shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	recorder *metrics.Recorder

	profile     *profile.Profile
	profileYAML []byte
	indices     map[string]contracts.Symbol

	source contracts.SeriesSource // memo → cache → metrics → throttle → store
	memo   *s0_data.MemoSource
	lister contracts.TickerLister
	writer collector.BarWriter // nil for the mock source

	aggregator   *s3_dataset.Aggregator
	store        *brain.Store
	orchestrator *brain.Orchestrator

	closers []func()
}

// store is the raw bar backend picked by DATA_SOURCE
type store interface {
	contracts.SeriesSource
	contracts.TickerLister
}

// newApp loads config and profile and wires the source chain and pipeline
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataSource != "" {
		cfg.DataSource = dataSource
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	a := &app{cfg: cfg, log: logger.New(cfg), recorder: metrics.New()}

	// 3. Load profile
	if err := a.loadProfile(); err != nil {
		return nil, err
	}

	// 4. Raw store
	base, err := a.openStore(ctx, cfg.DataSource)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.lister = base

	// 5. Source chain
	var src contracts.SeriesSource = s0_data.NewThrottledSource(base, cfg.FetchRatePerSec)
	src = s0_data.NewMeteredSource(src, cfg.DataSource, a.recorder)

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, series cache disabled")
	} else {
		a.closers = append(a.closers, func() { _ = rc.Close() })
		if rc.Enabled() {
			src = s0_data.NewCachedSource(src, redis.NewCache(rc, "stox"), cfg.SeriesCacheTTL, a.log)
		}
	}

	a.memo, err = s0_data.NewMemoSource(src, memoSize)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.source = a.memo

	// 6. Pipeline
	builder := s3_dataset.NewTickerBuilder(a.source, a.log)
	resolver := s0_data.NewStaticIndexResolver(a.indices)
	a.aggregator = s3_dataset.NewAggregator(builder, a.source, resolver, cfg.Workers, a.log, a.recorder)
	a.store = brain.NewStore(brain.DefaultHistory)
	a.orchestrator = brain.NewOrchestrator(a.aggregator, a.lister, a.store, a.log)

	a.log.WithFields(map[string]interface{}{
		"source":  cfg.DataSource,
		"profile": a.profile.Meta.ProfileID,
		"workers": cfg.Workers,
	}).Debug("Application wired")

	return a, nil
}

func (a *app) loadProfile() error {
	path := profilePath
	if path == "" {
		path = a.cfg.ProfilePath
	}

	if path == "" {
		a.profile = profile.Default()
	} else {
		p, data, err := profile.Load(path)
		if err != nil {
			return fmt.Errorf("load profile %s: %w", path, err)
		}
		a.profile, a.profileYAML = p, data
	}

	for _, w := range profile.Warn(a.profile) {
		a.log.WithField("code", w.Code).Warn(w.Message)
	}
	a.indices = a.profile.IndexTable(s0_data.DefaultIndices)
	return nil
}

func (a *app) openStore(ctx context.Context, kind string) (store, error) {
	switch kind {
	case config.SourcePostgres:
		db, err := database.New(ctx, a.cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		repo := s0_data.NewPriceRepository(db.Pool)
		a.writer = repo
		return repo, nil

	case config.SourceSQLite:
		db, err := database.OpenSQLite(a.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, func() { closeSQL(db) })
		repo := s0_data.NewSQLiteRepository(db)
		a.writer = repo
		return repo, nil

	case config.SourceMock:
		return s0_data.NewMockSource(mockLength, mockSeed), nil

	default:
		return nil, fmt.Errorf("unknown data source %q", kind)
	}
}

// Close releases connections in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func closeSQL(db *sql.DB) {
	_ = db.Close()
}

var (
	mockLength = s0_data.DefaultMockLength
	mockSeed   uint64
)

func init() {
	rootCmd.PersistentFlags().IntVar(&mockLength, "mock-length", s0_data.DefaultMockLength, "bars per mock series")
	rootCmd.PersistentFlags().Uint64Var(&mockSeed, "mock-seed", 1, "seed of the hard mock series")
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-study/internal/api"
	"github.com/phrazzld/scry-study/internal/catalog"
	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/platform/clock"
	"github.com/phrazzld/scry-study/internal/scheduler"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/phrazzld/scry-study/internal/service/study"
)

// application holds the wired dependencies shared by the subcommands.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	stores     *stores
	catalog    *catalog.Cache
	study      study.Service
	jwt        auth.JWTService
	reconciler *scheduler.Reconciler
}

// newApplication opens the configured database and builds the service graph
// on top of it. Callers must call cleanup when done.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, clk clock.Clock) (*application, error) {
	if clk == nil {
		clk = clock.Real{}
	}

	st, err := openStores(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	srsService, err := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MaxNewPerDay:        cfg.Scheduler.MaxNewPerDay,
		RelearningDelay:     cfg.Scheduler.RelearningDelay,
		MinimumInterval:     cfg.Scheduler.MinimumInterval,
		MinDifficulty:       cfg.Scheduler.DifficultyMin,
		MaxDifficulty:       cfg.Scheduler.DifficultyMax,
		BaselineDifficulty:  cfg.Scheduler.BaselineDifficulty,
		DesiredRetention:    cfg.Scheduler.DesiredRetention,
		MaximumIntervalDays: cfg.Scheduler.MaximumIntervalDays,
	}))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("invalid scheduling parameters: %w", err)
	}

	jwtService, err := newJWTService(cfg.Auth)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	cachedCatalog := catalog.NewCache(st.catalog, cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewReviewLogHandler(st.reviews, logger), events.TypeReviewRecorded)

	studyService := study.NewStudyService(
		st.records,
		cachedCatalog,
		st.reviews,
		srsService,
		emitter,
		clk,
		study.Config{
			ConflictRetries: cfg.Scheduler.ConflictRetries,
			DefaultLocation: cfg.Scheduler.Location(),
		},
		logger,
	)

	reconciler := scheduler.NewReconciler(st.records, clk, scheduler.Config{
		Interval:  cfg.Scheduler.ReconcileInterval,
		BatchSize: cfg.Scheduler.ReconcileBatchSize,
	}, logger)

	return &application{
		config:     cfg,
		logger:     logger,
		stores:     st,
		catalog:    cachedCatalog,
		study:      studyService,
		jwt:        jwtService,
		reconciler: reconciler,
	}, nil
}

func newJWTService(cfg config.AuthConfig) (auth.JWTService, error) {
	svc, err := auth.NewJWTService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	return svc, nil
}

// router builds the HTTP handler for the API.
func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterDeps{
		StudyService: app.study,
		JWTService:   app.jwt,
		Logger:       app.logger,
	})
}

// cleanup releases the database handle.
func (app *application) cleanup() {
	app.logger.Info("closing database connection")
	if err := app.stores.Close(); err != nil {
		app.logger.Error("error closing database connection", slog.String("error", err.Error()))
	}
}

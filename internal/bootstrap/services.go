package bootstrap

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/api"
	"github.com/huzhengnan/website-monitor-sub000/internal/config"
	"github.com/huzhengnan/website-monitor-sub000/internal/googlesync"
	"github.com/huzhengnan/website-monitor-sub000/internal/metadata"
	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
	"github.com/huzhengnan/website-monitor-sub000/internal/service"
	"github.com/huzhengnan/website-monitor-sub000/internal/telemetry"
)

// Components are the wired services shared by the server and the admin CLI.
type Components struct {
	Store    *repository.Store
	Metrics  *telemetry.Metrics
	Syncer   *googlesync.Syncer
	Services api.Services
}

// SetupComponents builds the store, services and Google syncer on db.
// redisClient may be nil.
func SetupComponents(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, log infralogger.Logger) *Components {
	store := repository.NewStore(db, log)
	metrics := telemetry.New()
	publisher := SetupEventPublisher(redisClient, log)

	syncer := googlesync.NewSyncer(store, googlesync.NewGoogleFactory(cfg.Sync.RequestTimeout), publisher, metrics, log,
		googlesync.Options{
			Days:              cfg.Sync.Days,
			RequestsPerSecond: cfg.Sync.RequestsPerSecond,
			Burst:             cfg.Sync.Burst,
		})

	extractor := metadata.NewExtractor(metadata.Config{
		Timeout:   cfg.Metadata.Timeout,
		UserAgent: cfg.Metadata.UserAgent,
	}, log)

	backlinks := service.NewBacklinkService(store, extractor, publisher, metrics, log, nil)

	return &Components{
		Store:   store,
		Metrics: metrics,
		Syncer:  syncer,
		Services: api.Services{
			Sites:       service.NewSiteService(store, publisher, log),
			Metrics:     service.NewMetricsService(store, scoring.NewScorer(cfg.Scoring), log, nil),
			Evaluations: service.NewEvaluationService(store, publisher, log, nil),
			Backlinks:   backlinks,
			Submissions: service.NewSubmissionService(store, backlinks, log, nil),
			Connectors:  service.NewConnectorService(store, syncer, log),
			Recomputer:  service.NewRecomputer(store, cfg.Recompute.BatchSize, publisher, metrics, log),
			Exporter:    service.NewExporter(store),
		},
	}
}

// Package api exposes the site, backlink, submission, evaluation and
// connector services over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	infragin "github.com/huzhengnan/website-monitor-sub000/infrastructure/gin"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/config"
	"github.com/huzhengnan/website-monitor-sub000/internal/service"
	"github.com/huzhengnan/website-monitor-sub000/internal/telemetry"
)

const (
	serviceName        = "siteboard"
	healthCheckTimeout = 2 * time.Second
)

// Services are the handlers' dependencies.
type Services struct {
	Sites       *service.SiteService
	Metrics     *service.MetricsService
	Evaluations *service.EvaluationService
	Backlinks   *service.BacklinkService
	Submissions *service.SubmissionService
	Connectors  *service.ConnectorService
	Recomputer  *service.Recomputer
	Exporter    *service.Exporter
}

// HealthChecks are optional pings reported by /health.
type HealthChecks struct {
	Database func(ctx context.Context) error
	Redis    func(ctx context.Context) error
}

// Router holds the API dependencies
type Router struct {
	svc       Services
	cfg       *config.Config
	telemetry *telemetry.Metrics
	logger    infralogger.Logger
	errs      errorResponder
}

// NewRouter creates a new API router
func NewRouter(svc Services, cfg *config.Config, metrics *telemetry.Metrics, log infralogger.Logger) *Router {
	return &Router{
		svc:       svc,
		cfg:       cfg,
		telemetry: metrics,
		logger:    log,
		errs:      errorResponder{logger: log, debug: cfg.Debug},
	}
}

// NewServer creates the HTTP server with health, metrics and API routes.
func (r *Router) NewServer(version string, checks HealthChecks) *infragin.Server {
	builder := infragin.NewServerBuilder(serviceName, r.cfg.Server.Port).
		WithLogger(r.logger).
		WithDebug(r.cfg.Debug).
		WithVersion(version).
		WithHost(r.cfg.Server.Host).
		WithTimeouts(r.cfg.Server.ReadTimeout, r.cfg.Server.WriteTimeout, r.cfg.Server.IdleTimeout).
		WithShutdownTimeout(r.cfg.Server.ShutdownTimeout).
		WithCORSOrigins(r.cfg.Server.CORSOrigins).
		WithMiddleware(r.telemetry.GinMiddleware()).
		WithMetricsHandler(r.telemetry.Handler()).
		WithRoutes(r.RegisterRoutes)

	if checks.Database != nil {
		builder = builder.WithDatabaseHealthCheck(withTimeout(checks.Database))
	}
	if checks.Redis != nil {
		builder = builder.WithRedisHealthCheck(withTimeout(checks.Redis))
	}
	return builder.Build()
}

func withTimeout(ping func(ctx context.Context) error) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
		defer cancel()
		return ping(ctx)
	}
}

// RegisterRoutes mounts the /api/v1 routes on router.
func (r *Router) RegisterRoutes(router *gin.Engine) {
	v1 := infragin.ProtectedGroup(router, "/api/v1", r.cfg.Auth.JWTSecret)

	sites := v1.Group("/sites")
	sites.GET("", r.listSites)
	sites.POST("", r.createSite)
	sites.GET("/export", r.exportSites)
	sites.GET("/metrics", r.batchMetrics)
	sites.GET("/:id", r.getSite)
	sites.PUT("/:id", r.updateSite)
	sites.DELETE("/:id", r.deleteSite)
	sites.GET("/:id/metrics", r.siteMetrics)
	sites.GET("/:id/evaluations", r.listEvaluations)
	sites.POST("/:id/evaluations", r.createEvaluation)
	sites.GET("/:id/evaluations/trend", r.evaluationTrend)
	sites.POST("/:id/traffic", r.upsertTraffic)
	sites.POST("/:id/search-console", r.upsertSearchConsole)

	backlinkSites := v1.Group("/backlink-sites")
	backlinkSites.GET("", r.listBacklinkSites)
	backlinkSites.POST("", r.createBacklinkSite)
	backlinkSites.POST("/semrush-import", r.importSemrush)
	backlinkSites.POST("/gsc-import", r.importGSC)
	backlinkSites.POST("/import", r.importExcel)
	backlinkSites.GET("/export.xlsx", r.exportExcel)
	backlinkSites.POST("/dedupe", r.dedupeBacklinkSites)
	backlinkSites.POST("/recompute-importance", r.startRecompute)
	backlinkSites.GET("/recompute-importance/:jobId", r.getRecompute)
	backlinkSites.GET("/:id", r.getBacklinkSite)
	backlinkSites.PUT("/:id", r.updateBacklinkSite)
	backlinkSites.DELETE("/:id", r.deleteBacklinkSite)
	backlinkSites.POST("/:id/metadata", r.fetchMetadata)

	submissions := v1.Group("/submissions")
	submissions.GET("", r.listSubmissions)
	submissions.POST("", r.createSubmission)
	submissions.POST("/paste-import", r.pasteImport)
	submissions.PUT("/:id", r.updateSubmission)
	submissions.DELETE("/:id", r.deleteSubmission)

	v1.GET("/backlinks/export", r.exportBacklinks)
	v1.DELETE("/evaluations/:id", r.deleteEvaluation)
	v1.GET("/leaderboard", r.leaderboard)

	connectors := v1.Group("/connectors")
	connectors.GET("", r.listConnectors)
	connectors.POST("", r.createConnector)
	connectors.GET("/:id", r.getConnector)
	connectors.PUT("/:id", r.updateConnector)
	connectors.DELETE("/:id", r.deleteConnector)
	connectors.POST("/:id/sync", r.syncConnector)
}

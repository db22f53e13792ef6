package googlesync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	infraevents "github.com/huzhengnan/website-monitor-sub000/infrastructure/events"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/aggregate"
	"github.com/huzhengnan/website-monitor-sub000/internal/events"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
	"github.com/huzhengnan/website-monitor-sub000/internal/telemetry"
)

const (
	defaultDays              = 7
	defaultRequestsPerSecond = 2
	defaultBurst             = 1
)

// Result describes one finished connector sync.
type Result struct {
	ConnectorID uuid.UUID            `json:"connectorId"`
	SiteID      uuid.UUID            `json:"siteId"`
	Type        models.ConnectorType `json:"type"`
	Window      aggregate.Window     `json:"dateRange"`
	Rows        int                  `json:"rows"`
}

// Summary describes a sync run over every syncable connector.
type Summary struct {
	Connectors int `json:"connectors"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Rows       int `json:"rows"`
}

// Options tune a Syncer. Zero values use defaults.
type Options struct {
	Days              int
	RequestsPerSecond float64
	Burst             int
	Now               func() time.Time
}

// Syncer copies daily metrics from Google into traffic_data and
// search_console_data. API calls share one rate limiter and are not
// retried; a failed connector is marked error and left for the next run.
type Syncer struct {
	store     *repository.Store
	factory   ClientFactory
	limiter   *rate.Limiter
	publisher *events.Publisher
	metrics   *telemetry.Metrics
	logger    infralogger.Logger
	days      int
	now       func() time.Time
}

// NewSyncer creates a Syncer. publisher and metrics may be nil.
func NewSyncer(
	store *repository.Store,
	factory ClientFactory,
	publisher *events.Publisher,
	metrics *telemetry.Metrics,
	log infralogger.Logger,
	opts Options,
) *Syncer {
	if opts.Days < 1 {
		opts.Days = defaultDays
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}
	if opts.Burst < 1 {
		opts.Burst = defaultBurst
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Syncer{
		store:     store,
		factory:   factory,
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
		days:      opts.Days,
		now:       opts.Now,
	}
}

// SyncAll syncs every connector of a live site that is not inactive. One
// connector failing does not stop the others.
func (s *Syncer) SyncAll(ctx context.Context) (Summary, error) {
	connectors, err := s.store.Connectors.ListSyncable(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Connectors: len(connectors)}
	for i := range connectors {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		result, syncErr := s.sync(ctx, &connectors[i])
		if syncErr != nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		summary.Rows += result.Rows
	}

	s.logger.Info("Connector sync run finished",
		infralogger.Int("connectors", summary.Connectors),
		infralogger.Int("succeeded", summary.Succeeded),
		infralogger.Int("failed", summary.Failed),
		infralogger.Int("rows", summary.Rows),
	)
	return summary, nil
}

// SyncConnector syncs one connector now.
func (s *Syncer) SyncConnector(ctx context.Context, id uuid.UUID) (*Result, error) {
	conn, err := s.store.Connectors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn.Status == models.ConnectorInactive {
		return nil, models.NewValidationError("status", "connector is inactive")
	}
	return s.sync(ctx, conn)
}

func (s *Syncer) sync(ctx context.Context, conn *models.Connector) (*Result, error) {
	start := s.now()
	window, err := aggregate.DateRange(s.days, start)
	if err != nil {
		return nil, err
	}

	rows, syncErr := s.fetchAndStore(ctx, conn, window)
	duration := time.Since(start)

	if recordErr := s.store.Connectors.RecordSync(ctx, conn.ID, s.now(), syncErr); recordErr != nil {
		s.logger.Error("Failed to record connector sync",
			infralogger.ConnectorID(conn.ID.String()),
			infralogger.Error(recordErr),
		)
	}
	s.metrics.RecordSync(string(conn.Type), rows, duration, syncErr)

	payload := infraevents.SyncPayload{
		SiteID:    conn.SiteID.String(),
		Type:      string(conn.Type),
		StartDate: window.Start.String(),
		EndDate:   window.End.String(),
		Rows:      rows,
	}
	if syncErr != nil {
		payload.Error = syncErr.Error()
		s.logger.Warn("Connector sync failed",
			infralogger.ConnectorID(conn.ID.String()),
			infralogger.SiteID(conn.SiteID.String()),
			infralogger.String("type", string(conn.Type)),
			infralogger.Error(syncErr),
		)
		s.publisher.PublishAsync(infraevents.ConnectorSyncFailed, conn.ID.String(), payload)
		return nil, syncErr
	}

	s.logger.Info("Connector synced",
		infralogger.ConnectorID(conn.ID.String()),
		infralogger.SiteID(conn.SiteID.String()),
		infralogger.String("type", string(conn.Type)),
		infralogger.Int("rows", rows),
		infralogger.Duration("duration", duration),
	)
	s.publisher.PublishAsync(infraevents.ConnectorSyncDone, conn.ID.String(), payload)

	return &Result{
		ConnectorID: conn.ID,
		SiteID:      conn.SiteID,
		Type:        conn.Type,
		Window:      window,
		Rows:        rows,
	}, nil
}

func (s *Syncer) fetchAndStore(ctx context.Context, conn *models.Connector, w aggregate.Window) (int, error) {
	var cfg models.ConnectorConfig
	if len(conn.Config) > 0 {
		if err := json.Unmarshal(conn.Config, &cfg); err != nil {
			return 0, fmt.Errorf("decode connector config: %w", err)
		}
	}
	if !conn.HasCredentials() {
		return 0, fmt.Errorf("connector %s has no credentials", conn.ID)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	switch conn.Type {
	case models.ConnectorGoogleAnalytics:
		return s.syncTraffic(ctx, conn, cfg, w)
	case models.ConnectorSearchConsole:
		return s.syncSearch(ctx, conn, cfg, w)
	default:
		return 0, fmt.Errorf("unsupported connector type %q", conn.Type)
	}
}

func (s *Syncer) syncTraffic(ctx context.Context, conn *models.Connector, cfg models.ConnectorConfig, w aggregate.Window) (int, error) {
	client, err := s.factory.Analytics(ctx, conn.Credentials)
	if err != nil {
		return 0, err
	}
	rows, err := client.FetchTraffic(ctx, cfg.PropertyID, w)
	if err != nil {
		return 0, err
	}

	for i := range rows {
		rows[i].SiteID = conn.SiteID
		if _, err = s.store.Traffic.Upsert(ctx, &rows[i]); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}

func (s *Syncer) syncSearch(ctx context.Context, conn *models.Connector, cfg models.ConnectorConfig, w aggregate.Window) (int, error) {
	client, err := s.factory.SearchConsole(ctx, conn.Credentials)
	if err != nil {
		return 0, err
	}
	rows, err := client.FetchSearch(ctx, cfg.SiteURL, w)
	if err != nil {
		return 0, err
	}

	for i := range rows {
		rows[i].SiteID = conn.SiteID
		if _, err = s.store.SearchConsole.Upsert(ctx, &rows[i]); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}

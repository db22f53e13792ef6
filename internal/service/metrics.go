package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/aggregate"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
)

// BatchQuery selects the sites of a batch metrics request: either SiteIDs
// or a page of all sites.
type BatchQuery struct {
	Window    aggregate.Window
	SiteIDs   []uuid.UUID
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// BatchResult is the response of GET /sites/metrics.
type BatchResult struct {
	DateRange aggregate.Window                  `json:"dateRange"`
	Metrics   map[string]*aggregate.SiteMetrics `json:"metrics"`
	Order     []uuid.UUID                       `json:"order,omitempty"`
	Total     int                               `json:"total"`
	Page      int                               `json:"page,omitempty"`
	PageSize  int                               `json:"pageSize,omitempty"`
}

// SiteDetail is the response of GET /sites/:id/metrics.
type SiteDetail struct {
	DateRange   aggregate.Window       `json:"dateRange"`
	Site        *models.Site           `json:"site"`
	Metrics     *aggregate.SiteMetrics `json:"metrics"`
	DailyData   []aggregate.DailyPoint `json:"dailyData"`
	Reasons     []string               `json:"reasons"`
	Suggestions []string               `json:"suggestions"`
}

// MetricsService aggregates stored daily rows into per-site metrics.
type MetricsService struct {
	store  *repository.Store
	scorer *scoring.Scorer
	logger infralogger.Logger
	now    Clock
}

// NewMetricsService creates a MetricsService. A nil now uses time.Now.
func NewMetricsService(store *repository.Store, scorer *scoring.Scorer, log infralogger.Logger, now Clock) *MetricsService {
	if now == nil {
		now = time.Now
	}
	return &MetricsService{store: store, scorer: scorer, logger: log, now: now}
}

// Window resolves days or explicit start/end dates into a reporting window.
// Explicit dates win when both are given.
func (s *MetricsService) Window(days int, startDate, endDate string) (aggregate.Window, error) {
	if startDate != "" || endDate != "" {
		if startDate == "" || endDate == "" {
			return aggregate.Window{}, models.NewValidationError("startDate", "startDate and endDate must be given together")
		}
		return aggregate.ParseDateRange(startDate, endDate)
	}
	return aggregate.DateRange(days, s.now())
}

// Batch aggregates metrics for a list of sites or a page of all sites.
// Sorting by a metric key orders the whole site set before paging.
func (s *MetricsService) Batch(ctx context.Context, q BatchQuery) (*BatchResult, error) {
	if q.SortBy != "" && !aggregate.ValidSortKey(q.SortBy) {
		return nil, models.NewValidationError("sortBy", "unknown sort key %q", q.SortBy)
	}
	if q.SortOrder != "" && q.SortOrder != aggregate.SortAsc && q.SortOrder != aggregate.SortDesc {
		return nil, models.NewValidationError("sortOrder", "must be asc or desc")
	}

	sites, total, err := s.selectSites(ctx, q)
	if err != nil {
		return nil, err
	}

	metrics, err := s.collect(ctx, sites, q.Window)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		DateRange: q.Window,
		Metrics:   make(map[string]*aggregate.SiteMetrics, len(metrics)),
		Total:     total,
	}

	if q.SortBy != "" {
		order, sortErr := aggregate.SortSiteIDs(metrics, q.SortBy, q.SortOrder)
		if sortErr != nil {
			return nil, sortErr
		}
		if len(q.SiteIDs) == 0 {
			order = pageOf(order, q.Page, q.PageSize)
			metrics = subset(metrics, order)
		}
		result.Order = order
	}
	if len(q.SiteIDs) == 0 {
		result.Page = q.Page
		result.PageSize = q.PageSize
	}

	for id, m := range metrics {
		result.Metrics[id.String()] = m
	}
	return result, nil
}

// selectSites returns the sites to aggregate and the size of the full
// selection.
func (s *MetricsService) selectSites(ctx context.Context, q BatchQuery) ([]models.Site, int, error) {
	if len(q.SiteIDs) > 0 {
		sites, err := s.store.Sites.ListByIDs(ctx, q.SiteIDs)
		if err != nil {
			return nil, 0, err
		}
		return sites, len(sites), nil
	}

	if q.Page < 1 || q.PageSize < 1 {
		return nil, 0, models.NewValidationError("", "either siteIds or page and pageSize are required")
	}

	filter := models.SiteFilter{SortBy: "name", SortOrder: "asc"}
	if q.SortBy == "" {
		filter.Limit = q.PageSize
		filter.Offset = (q.Page - 1) * q.PageSize
	}
	return s.store.Sites.List(ctx, filter)
}

// siteRows are the raw reads behind a set of SiteMetrics.
type siteRows struct {
	traffic   []models.TrafficData
	gsc       []models.SearchConsoleData
	backlinks map[uuid.UUID]int
	latest    map[uuid.UUID]models.SiteEvaluation
}

// load runs the traffic, Search Console, backlink and evaluation reads
// concurrently.
func (s *MetricsService) load(ctx context.Context, ids []uuid.UUID, w aggregate.Window) (*siteRows, error) {
	rows := &siteRows{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows.traffic, err = s.store.Traffic.ListBySites(gctx, ids, w.Start.Time, w.End.Time)
		return err
	})
	g.Go(func() error {
		var err error
		rows.gsc, err = s.store.SearchConsole.ListBySites(gctx, ids, w.Start.Time, w.End.Time)
		return err
	})
	g.Go(func() error {
		var err error
		rows.backlinks, err = s.store.Submissions.CountBySites(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		rows.latest, err = s.store.Evaluations.LatestBySites(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load site metrics: %w", err)
	}
	return rows, nil
}

// collect loads and joins metrics per site.
func (s *MetricsService) collect(ctx context.Context, sites []models.Site, w aggregate.Window) (map[uuid.UUID]*aggregate.SiteMetrics, error) {
	if len(sites) == 0 {
		return map[uuid.UUID]*aggregate.SiteMetrics{}, nil
	}

	ids := make([]uuid.UUID, len(sites))
	for i := range sites {
		ids[i] = sites[i].ID
	}

	rows, err := s.load(ctx, ids, w)
	if err != nil {
		return nil, err
	}
	return s.join(sites, rows), nil
}

func (s *MetricsService) join(sites []models.Site, rows *siteRows) map[uuid.UUID]*aggregate.SiteMetrics {
	trafficBySite := make(map[uuid.UUID][]models.TrafficData, len(sites))
	for i := range rows.traffic {
		id := rows.traffic[i].SiteID
		trafficBySite[id] = append(trafficBySite[id], rows.traffic[i])
	}
	gscBySite := make(map[uuid.UUID][]models.SearchConsoleData, len(sites))
	for i := range rows.gsc {
		id := rows.gsc[i].SiteID
		gscBySite[id] = append(gscBySite[id], rows.gsc[i])
	}

	out := make(map[uuid.UUID]*aggregate.SiteMetrics, len(sites))
	for i := range sites {
		site := &sites[i]
		m := &aggregate.SiteMetrics{
			SiteID:         site.ID,
			Name:           site.Name,
			Domain:         site.Domain,
			Traffic:        aggregate.SummarizeTraffic(trafficBySite[site.ID]),
			GSC:            aggregate.SummarizeGSC(gscBySite[site.ID]),
			BacklinksCount: rows.backlinks[site.ID],
		}
		var stored *models.Evaluation
		if e, ok := rows.latest[site.ID]; ok {
			stored = &e.Evaluation
		}
		m.Evaluation = s.evaluate(m, stored)
		out[site.ID] = m
	}
	return out
}

// evaluate returns the stored evaluation when there is one, otherwise
// scores computed from m. Computed scores are never persisted here.
func (s *MetricsService) evaluate(m *aggregate.SiteMetrics, stored *models.Evaluation) *aggregate.Evaluation {
	if stored != nil {
		date := stored.Date
		return &aggregate.Evaluation{
			Scores: scoring.FromEvaluation(stored),
			Source: aggregate.SourceStored,
			Date:   &date,
		}
	}
	in := aggregate.ScoringInputs(m.Traffic, m.GSC, m.BacklinksCount)
	return &aggregate.Evaluation{
		Scores: s.scorer.Evaluate(in),
		Source: aggregate.SourceAuto,
	}
}

// Site returns one live site's metrics with daily rows and explanations.
func (s *MetricsService) Site(ctx context.Context, id uuid.UUID, w aggregate.Window) (*SiteDetail, error) {
	site, err := s.store.Sites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.load(ctx, []uuid.UUID{id}, w)
	if err != nil {
		return nil, err
	}
	if err = s.store.Traffic.LoadBreakdowns(ctx, rows.traffic); err != nil {
		return nil, err
	}
	m := s.join([]models.Site{*site}, rows)[id]

	in := aggregate.ScoringInputs(m.Traffic, m.GSC, m.BacklinksCount)
	reasons, suggestions := scoring.Explain(in, m.Evaluation.Scores)
	if m.Evaluation.Source == aggregate.SourceAuto {
		m.Evaluation.Reasons = reasons
		m.Evaluation.Suggestions = suggestions
	}

	return &SiteDetail{
		DateRange:   w,
		Site:        site,
		Metrics:     m,
		DailyData:   aggregate.MergeDaily(rows.traffic, rows.gsc),
		Reasons:     reasons,
		Suggestions: suggestions,
	}, nil
}

// pageOf returns the 1-based page of ids.
func pageOf(ids []uuid.UUID, page, pageSize int) []uuid.UUID {
	start := (page - 1) * pageSize
	if start >= len(ids) {
		return []uuid.UUID{}
	}
	end := start + pageSize
	if end > len(ids) {
		end = len(ids)
	}
	return ids[start:end]
}

func subset(metrics map[uuid.UUID]*aggregate.SiteMetrics, ids []uuid.UUID) map[uuid.UUID]*aggregate.SiteMetrics {
	out := make(map[uuid.UUID]*aggregate.SiteMetrics, len(ids))
	for _, id := range ids {
		out[id] = metrics[id]
	}
	return out
}

package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	infraevents "github.com/huzhengnan/website-monitor-sub000/infrastructure/events"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/events"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
	"github.com/huzhengnan/website-monitor-sub000/internal/urlnorm"
)

// SiteService manages sites and their manually entered daily metrics.
type SiteService struct {
	store     *repository.Store
	publisher *events.Publisher
	logger    infralogger.Logger
}

// NewSiteService creates a SiteService. publisher may be nil.
func NewSiteService(store *repository.Store, publisher *events.Publisher, log infralogger.Logger) *SiteService {
	return &SiteService{store: store, publisher: publisher, logger: log}
}

func (s *SiteService) Create(ctx context.Context, req *models.SiteCreateRequest) (*models.Site, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	site, err := s.store.Sites.Create(ctx, &models.Site{
		Name:       req.Name,
		Domain:     urlnorm.ExtractDomain(req.Domain),
		Status:     req.Status,
		CategoryID: req.CategoryID,
		Platform:   req.Platform,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Site created",
		infralogger.SiteID(site.ID.String()),
		infralogger.String("domain", site.Domain),
	)
	s.publisher.PublishAsync(infraevents.SiteCreated, site.ID.String(), nil)
	return site, nil
}

func (s *SiteService) Get(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	return s.store.Sites.GetByID(ctx, id)
}

func (s *SiteService) List(ctx context.Context, filter models.SiteFilter) ([]models.Site, int, error) {
	return s.store.Sites.List(ctx, filter)
}

// Update applies the fields present in req.
func (s *SiteService) Update(ctx context.Context, id uuid.UUID, req *models.SiteUpdateRequest) (*models.Site, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Domain != nil {
		updates["domain"] = urlnorm.ExtractDomain(*req.Domain)
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.CategoryID != nil {
		updates["category_id"] = optionalString(*req.CategoryID)
	}
	if req.Platform != nil {
		updates["platform"] = optionalString(*req.Platform)
	}

	site, err := s.store.Sites.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishAsync(infraevents.SiteUpdated, id.String(), nil)
	return site, nil
}

// Delete soft-deletes a site. Its rows stay but it disappears from every
// read, the leaderboard included.
func (s *SiteService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Sites.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Site deleted", infralogger.SiteID(id.String()))
	s.publisher.PublishAsync(infraevents.SiteDeleted, id.String(), nil)
	return nil
}

// UpsertTraffic writes one day of traffic for a live site.
func (s *SiteService) UpsertTraffic(ctx context.Context, siteID uuid.UUID, req *models.TrafficUpsertRequest) (*models.TrafficData, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.Sites.GetByID(ctx, siteID); err != nil {
		return nil, err
	}

	return s.store.Traffic.Upsert(ctx, &models.TrafficData{
		SiteID:                 siteID,
		Date:                   req.Date.Time,
		PV:                     req.PV,
		UV:                     req.UV,
		Sessions:               req.Sessions,
		ActiveUsers:            req.ActiveUsers,
		NewUsers:               req.NewUsers,
		Events:                 req.Events,
		BounceRate:             req.BounceRate,
		AverageSessionDuration: req.AverageSessionDuration,
		ConversionRate:         req.ConversionRate,
		EngagementRate:         req.EngagementRate,
		EngagedSessions:        req.EngagedSessions,
	})
}

// UpsertSearchConsole writes one day of Search Console data for a live site.
func (s *SiteService) UpsertSearchConsole(ctx context.Context, siteID uuid.UUID, req *models.SearchConsoleUpsertRequest) (*models.SearchConsoleData, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.Sites.GetByID(ctx, siteID); err != nil {
		return nil, err
	}

	return s.store.SearchConsole.Upsert(ctx, &models.SearchConsoleData{
		SiteID:           siteID,
		Date:             req.Date.Time,
		TotalClicks:      req.TotalClicks,
		TotalImpressions: req.TotalImpressions,
		AvgCTR:           req.AvgCTR,
		AvgPosition:      req.AvgPosition,
	})
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	infraevents "github.com/huzhengnan/website-monitor-sub000/infrastructure/events"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/events"
	"github.com/huzhengnan/website-monitor-sub000/internal/leaderboard"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
)

// EvaluationService records evaluation history and ranks sites by it.
type EvaluationService struct {
	store     *repository.Store
	publisher *events.Publisher
	logger    infralogger.Logger
	now       Clock
}

// NewEvaluationService creates an EvaluationService. A nil now uses time.Now.
func NewEvaluationService(store *repository.Store, publisher *events.Publisher, log infralogger.Logger, now Clock) *EvaluationService {
	if now == nil {
		now = time.Now
	}
	return &EvaluationService{store: store, publisher: publisher, logger: log, now: now}
}

// List returns a live site's evaluations, newest first.
func (s *EvaluationService) List(ctx context.Context, siteID uuid.UUID) ([]models.Evaluation, error) {
	if _, err := s.store.Sites.GetByID(ctx, siteID); err != nil {
		return nil, err
	}
	return s.store.Evaluations.ListBySite(ctx, siteID)
}

// Create stores an evaluation. The date defaults to today and the overall
// score to the rounded mean of the five dimensions.
func (s *EvaluationService) Create(ctx context.Context, siteID uuid.UUID, req *models.EvaluationCreateRequest) (*models.Evaluation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.Sites.GetByID(ctx, siteID); err != nil {
		return nil, err
	}

	date := models.NewDate(s.now())
	if req.Date != nil {
		date = *req.Date
	}

	overall := scoring.Composite(req.MarketScore, req.QualityScore, req.SEOScore, req.TrafficScore, req.RevenueScore)
	if req.OverallScore != nil {
		overall = *req.OverallScore
	}

	var weights types.JSONText
	if len(req.Weights) > 0 {
		raw, err := json.Marshal(req.Weights)
		if err != nil {
			return nil, fmt.Errorf("marshal weights: %w", err)
		}
		weights = raw
	}

	evaluation, err := s.store.Evaluations.Create(ctx, &models.Evaluation{
		SiteID:       siteID,
		Date:         date.Time,
		MarketScore:  req.MarketScore,
		QualityScore: req.QualityScore,
		SEOScore:     req.SEOScore,
		TrafficScore: req.TrafficScore,
		RevenueScore: req.RevenueScore,
		OverallScore: overall,
		Weights:      weights,
		Reasons:      nonBlank(req.Reasons),
		Suggestions:  nonBlank(req.Suggestions),
		Evaluator:    trimmed(req.Evaluator),
		Notes:        trimmed(req.Notes),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Evaluation recorded",
		infralogger.SiteID(siteID.String()),
		infralogger.Int("overall_score", evaluation.OverallScore),
	)
	s.publisher.PublishAsync(infraevents.EvaluationRecorded, siteID.String(), nil)
	return evaluation, nil
}

func (s *EvaluationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Evaluations.Delete(ctx, id)
}

// Trend compares a site's latest evaluation with its history.
func (s *EvaluationService) Trend(ctx context.Context, siteID uuid.UUID) (scoring.Trend, error) {
	history, err := s.List(ctx, siteID)
	if err != nil {
		return scoring.Trend{}, err
	}
	return scoring.ComputeTrend(history), nil
}

// Leaderboard ranks live sites by the latest evaluation on dimension.
func (s *EvaluationService) Leaderboard(ctx context.Context, dimension string, page, pageSize int) (leaderboard.Result, error) {
	latest, err := s.store.Evaluations.LatestAll(ctx)
	if err != nil {
		return leaderboard.Result{}, err
	}
	return leaderboard.Rank(latest, dimension, page, pageSize)
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return optionalString(*s)
}

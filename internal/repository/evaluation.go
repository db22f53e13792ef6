package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const evaluationColumns = `id, site_id, date, market_score, quality_score, seo_score, traffic_score,
	revenue_score, overall_score, weights, reasons, suggestions, evaluator, notes, created_at`

// latestEvaluationQuery picks one evaluation per live site: greatest date,
// then latest created_at.
const latestEvaluationQuery = `
	SELECT DISTINCT ON (e.site_id)
		e.id, e.site_id, e.date, e.market_score, e.quality_score, e.seo_score, e.traffic_score,
		e.revenue_score, e.overall_score, e.weights, e.reasons, e.suggestions, e.evaluator, e.notes,
		e.created_at, s.name AS site_name, s.domain AS site_domain
	FROM evaluations e
	JOIN sites s ON s.id = e.site_id AND s.deleted_at IS NULL`

const latestEvaluationOrder = ` ORDER BY e.site_id, e.date DESC, e.created_at DESC`

// EvaluationRepository stores evaluation history.
type EvaluationRepository struct {
	q Querier
}

func (r *EvaluationRepository) Create(ctx context.Context, e *models.Evaluation) (*models.Evaluation, error) {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()

	query := `
		INSERT INTO evaluations (id, site_id, date, market_score, quality_score, seo_score, traffic_score,
			revenue_score, overall_score, weights, reasons, suggestions, evaluator, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + evaluationColumns

	created := &models.Evaluation{}
	err := r.q.QueryRowxContext(ctx, query,
		e.ID, e.SiteID, e.Date, e.MarketScore, e.QualityScore, e.SEOScore, e.TrafficScore,
		e.RevenueScore, e.OverallScore, nullJSON(e.Weights), e.Reasons, e.Suggestions, e.Evaluator, e.Notes,
		e.CreatedAt,
	).StructScan(created)
	if err != nil {
		return nil, wrap(err, "insert evaluation", models.ErrAlreadyExists)
	}
	return created, nil
}

// ListBySite returns a site's evaluations, newest first.
func (r *EvaluationRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]models.Evaluation, error) {
	evals := []models.Evaluation{}
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE site_id = $1 ORDER BY date DESC, created_at DESC`
	if err := r.q.SelectContext(ctx, &evals, query, siteID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return evals, nil
}

// LatestBySites returns the latest evaluation of each given site that has
// one.
func (r *EvaluationRepository) LatestBySites(ctx context.Context, siteIDs []uuid.UUID) (map[uuid.UUID]models.SiteEvaluation, error) {
	out := make(map[uuid.UUID]models.SiteEvaluation, len(siteIDs))
	if len(siteIDs) == 0 {
		return out, nil
	}

	var rows []models.SiteEvaluation
	query := latestEvaluationQuery + ` WHERE e.site_id = ANY($1)` + latestEvaluationOrder
	if err := r.q.SelectContext(ctx, &rows, query, uuidArray(siteIDs)); err != nil {
		return nil, fmt.Errorf("list latest evaluations: %w", err)
	}
	for _, row := range rows {
		out[row.SiteID] = row
	}
	return out, nil
}

// LatestAll returns the latest evaluation of every live site.
func (r *EvaluationRepository) LatestAll(ctx context.Context) ([]models.SiteEvaluation, error) {
	rows := []models.SiteEvaluation{}
	if err := r.q.SelectContext(ctx, &rows, latestEvaluationQuery+latestEvaluationOrder); err != nil {
		return nil, fmt.Errorf("list latest evaluations: %w", err)
	}
	return rows, nil
}

func (r *EvaluationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM evaluations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete evaluation: %w", err)
	}
	return expectAffected(result, "delete evaluation")
}

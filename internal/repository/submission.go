package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const submissionColumns = `id, site_id, backlink_site_id, status, submit_date, indexed_date, notes, cost,
	created_at, updated_at`

const submissionViewQuery = `
	SELECT bs.id, bs.site_id, bs.backlink_site_id, bs.status, bs.submit_date, bs.indexed_date,
		bs.notes, bs.cost, bs.created_at, bs.updated_at,
		s.name AS site_name, s.domain AS site_domain,
		b.url AS backlink_url, b.domain AS backlink_domain, b.importance_score
	FROM backlink_submissions bs
	JOIN sites s ON s.id = bs.site_id AND s.deleted_at IS NULL
	JOIN backlink_sites b ON b.id = bs.backlink_site_id`

// SubmissionRepository stores backlink submissions.
type SubmissionRepository struct {
	q Querier
}

// Create inserts s. A second submission for the same site and backlink site
// yields ErrDuplicateSubmission; a missing parent yields ErrNotFound.
func (r *SubmissionRepository) Create(ctx context.Context, s *models.BacklinkSubmission) (*models.BacklinkSubmission, error) {
	now := time.Now()
	s.ID = uuid.New()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `
		INSERT INTO backlink_submissions (id, site_id, backlink_site_id, status, submit_date, indexed_date,
			notes, cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + submissionColumns

	created := &models.BacklinkSubmission{}
	err := r.q.QueryRowxContext(ctx, query,
		s.ID, s.SiteID, s.BacklinkSiteID, s.Status, s.SubmitDate, s.IndexedDate, s.Notes, s.Cost,
		s.CreatedAt, s.UpdatedAt,
	).StructScan(created)
	if err != nil {
		return nil, wrap(err, "insert submission", models.ErrDuplicateSubmission)
	}
	return created, nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacklinkSubmission, error) {
	s := &models.BacklinkSubmission{}
	query := `SELECT ` + submissionColumns + ` FROM backlink_submissions WHERE id = $1`
	if err := r.q.GetContext(ctx, s, query, id); err != nil {
		return nil, wrap(err, "get submission", models.ErrDuplicateSubmission)
	}
	return s, nil
}

// List returns submissions joined with their sites, newest first.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionView, error) {
	c := &clauses{}
	if filter.SiteID != nil {
		c.add("bs.site_id = $%d", *filter.SiteID)
	}
	if filter.BacklinkSiteID != nil {
		c.add("bs.backlink_site_id = $%d", *filter.BacklinkSiteID)
	}
	if filter.Status != "" {
		c.add("bs.status = $%d", filter.Status)
	}

	query := submissionViewQuery + c.where() + ` ORDER BY bs.created_at DESC, bs.id`
	query += c.page(filter.Limit, filter.Offset)

	views := []models.SubmissionView{}
	if err := r.q.SelectContext(ctx, &views, query, c.args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return views, nil
}

func (r *SubmissionRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.BacklinkSubmission, error) {
	query, args, err := buildUpdateQuery("backlink_submissions", id, updates, submissionColumns, "")
	if err != nil {
		return nil, err
	}

	s := &models.BacklinkSubmission{}
	if scanErr := r.q.QueryRowxContext(ctx, query, args...).StructScan(s); scanErr != nil {
		return nil, wrap(scanErr, "update submission", models.ErrDuplicateSubmission)
	}
	return s, nil
}

func (r *SubmissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM backlink_submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return expectAffected(result, "delete submission")
}

// Statuses returns the submission statuses of one backlink site.
func (r *SubmissionRepository) Statuses(ctx context.Context, backlinkSiteID uuid.UUID) ([]models.SubmissionStatus, error) {
	statuses := []models.SubmissionStatus{}
	query := `SELECT status FROM backlink_submissions WHERE backlink_site_id = $1`
	if err := r.q.SelectContext(ctx, &statuses, query, backlinkSiteID); err != nil {
		return nil, fmt.Errorf("list submission statuses: %w", err)
	}
	return statuses, nil
}

type statusRow struct {
	BacklinkSiteID uuid.UUID               `db:"backlink_site_id"`
	Status         models.SubmissionStatus `db:"status"`
}

// StatusesFor returns submission statuses grouped by backlink site.
func (r *SubmissionRepository) StatusesFor(ctx context.Context, backlinkSiteIDs []uuid.UUID) (map[uuid.UUID][]models.SubmissionStatus, error) {
	out := make(map[uuid.UUID][]models.SubmissionStatus, len(backlinkSiteIDs))
	if len(backlinkSiteIDs) == 0 {
		return out, nil
	}

	var rows []statusRow
	query := `SELECT backlink_site_id, status FROM backlink_submissions WHERE backlink_site_id = ANY($1)`
	if err := r.q.SelectContext(ctx, &rows, query, uuidArray(backlinkSiteIDs)); err != nil {
		return nil, fmt.Errorf("list submission statuses: %w", err)
	}
	for _, row := range rows {
		out[row.BacklinkSiteID] = append(out[row.BacklinkSiteID], row.Status)
	}
	return out, nil
}

type countRow struct {
	SiteID uuid.UUID `db:"site_id"`
	Count  int       `db:"count"`
}

// CountBySites counts live (not failed) backlinks per site.
func (r *SubmissionRepository) CountBySites(ctx context.Context, siteIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(siteIDs))
	if len(siteIDs) == 0 {
		return out, nil
	}

	var rows []countRow
	query := `SELECT site_id, COUNT(*) AS count FROM backlink_submissions
		WHERE site_id = ANY($1) AND status <> 'failed'
		GROUP BY site_id`
	if err := r.q.SelectContext(ctx, &rows, query, uuidArray(siteIDs)); err != nil {
		return nil, fmt.Errorf("count backlinks: %w", err)
	}
	for _, row := range rows {
		out[row.SiteID] = row.Count
	}
	return out, nil
}

// Reassign moves submissions from one backlink site to another, skipping
// sites the target already has a submission for. It returns the number
// moved.
func (r *SubmissionRepository) Reassign(ctx context.Context, from, to uuid.UUID) (int64, error) {
	query := `
		UPDATE backlink_submissions SET backlink_site_id = $2, updated_at = $3
		WHERE backlink_site_id = $1
		  AND site_id NOT IN (SELECT site_id FROM backlink_submissions WHERE backlink_site_id = $2)`
	result, err := r.q.ExecContext(ctx, query, from, to, time.Now())
	if err != nil {
		return 0, fmt.Errorf("reassign submissions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign submissions: rows affected: %w", err)
	}
	return n, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const siteColumns = "id, name, domain, status, category_id, platform, created_at, updated_at, deleted_at"

var siteSortColumns = map[string]string{
	"name":       "name",
	"domain":     "domain",
	"status":     "status",
	"created_at": "created_at",
	"createdAt":  "created_at",
}

// SiteRepository stores managed sites. Soft-deleted rows are invisible to
// every read.
type SiteRepository struct {
	q Querier
}

func (r *SiteRepository) Create(ctx context.Context, site *models.Site) (*models.Site, error) {
	now := time.Now()
	site.ID = uuid.New()
	site.CreatedAt = now
	site.UpdatedAt = now

	query := `
		INSERT INTO sites (id, name, domain, status, category_id, platform, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + siteColumns

	created := &models.Site{}
	err := r.q.QueryRowxContext(ctx, query,
		site.ID, site.Name, site.Domain, site.Status, site.CategoryID, site.Platform, site.CreatedAt, site.UpdatedAt,
	).StructScan(created)
	if err != nil {
		return nil, wrap(err, "insert site", models.ErrAlreadyExists)
	}
	return created, nil
}

func (r *SiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	site := &models.Site{}
	query := `SELECT ` + siteColumns + ` FROM sites WHERE id = $1 AND deleted_at IS NULL`

	if err := r.q.GetContext(ctx, site, query, id); err != nil {
		return nil, wrap(err, "get site", models.ErrAlreadyExists)
	}
	return site, nil
}

// List returns one page of sites and the total matching the filter.
func (r *SiteRepository) List(ctx context.Context, filter models.SiteFilter) ([]models.Site, int, error) {
	c := &clauses{}
	c.addRaw("deleted_at IS NULL")
	if filter.Search != "" {
		c.add("(name ILIKE $%[1]d OR domain ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.Status != "" {
		c.add("status = $%d", filter.Status)
	}

	var total int
	if err := r.q.GetContext(ctx, &total, `SELECT COUNT(*) FROM sites`+c.where(), c.args...); err != nil {
		return nil, 0, fmt.Errorf("count sites: %w", err)
	}

	query := `SELECT ` + siteColumns + ` FROM sites` + c.where() +
		orderBy(filter.SortBy, filter.SortOrder, siteSortColumns, "name")
	query += c.page(filter.Limit, filter.Offset)

	sites := []models.Site{}
	if err := r.q.SelectContext(ctx, &sites, query, c.args...); err != nil {
		return nil, 0, fmt.Errorf("list sites: %w", err)
	}
	return sites, total, nil
}

// ListByIDs returns the live sites among ids, ordered by name.
func (r *SiteRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Site, error) {
	sites := []models.Site{}
	if len(ids) == 0 {
		return sites, nil
	}

	query := `SELECT ` + siteColumns + ` FROM sites
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY name ASC, id ASC`
	if err := r.q.SelectContext(ctx, &sites, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("list sites by id: %w", err)
	}
	return sites, nil
}

// Update applies column updates to a live site.
func (r *SiteRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Site, error) {
	query, args, err := buildUpdateQuery("sites", id, updates, siteColumns, "deleted_at IS NULL")
	if err != nil {
		return nil, err
	}

	site := &models.Site{}
	if scanErr := r.q.QueryRowxContext(ctx, query, args...).StructScan(site); scanErr != nil {
		return nil, wrap(scanErr, "update site", models.ErrAlreadyExists)
	}
	return site, nil
}

// SoftDelete marks a site deleted. Deleting twice reports ErrNotFound.
func (r *SiteRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE sites SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.q.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	return expectAffected(result, "delete site")
}

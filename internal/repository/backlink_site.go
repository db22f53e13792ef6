package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const backlinkSiteColumns = `id, url, domain, dr, note, is_favorite, importance_score, authority_score,
	organic_traffic, organic_keywords, paid_traffic, backlinks, ref_domains, ai_visibility, ai_mentions,
	traffic_change, keywords_change, semrush_data_json, semrush_tags, semrush_last_sync,
	created_at, updated_at`

var backlinkSiteSortColumns = map[string]string{
	"importance_score": "importance_score",
	"importanceScore":  "importance_score",
	"dr":               "dr",
	"domain":           "domain",
	"created_at":       "created_at",
	"createdAt":        "created_at",
	"authority_score":  "authority_score",
	"authorityScore":   "authority_score",
	"organic_traffic":  "organic_traffic",
	"organicTraffic":   "organic_traffic",
}

// BacklinkSiteRepository stores candidate backlink sources.
type BacklinkSiteRepository struct {
	q Querier
}

// Create inserts b. A URL that already exists yields ErrAlreadyExists.
func (r *BacklinkSiteRepository) Create(ctx context.Context, b *models.BacklinkSite) (*models.BacklinkSite, error) {
	now := time.Now()
	b.ID = uuid.New()
	b.CreatedAt = now
	b.UpdatedAt = now

	query := `
		INSERT INTO backlink_sites (id, url, domain, dr, note, is_favorite, importance_score, authority_score,
			organic_traffic, organic_keywords, paid_traffic, backlinks, ref_domains, ai_visibility, ai_mentions,
			traffic_change, keywords_change, semrush_data_json, semrush_tags, semrush_last_sync,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING ` + backlinkSiteColumns

	created := &models.BacklinkSite{}
	err := r.q.QueryRowxContext(ctx, query,
		b.ID, b.URL, b.Domain, b.DR, b.Note, b.IsFavorite, b.ImportanceScore, b.AuthorityScore,
		b.OrganicTraffic, b.OrganicKeywords, b.PaidTraffic, b.Backlinks, b.RefDomains, b.AIVisibility, b.AIMentions,
		b.TrafficChange, b.KeywordsChange, nullJSON(b.SemrushDataJSON), b.SemrushTags, b.SemrushLastSync,
		b.CreatedAt, b.UpdatedAt,
	).StructScan(created)
	if err != nil {
		return nil, wrap(err, "insert backlink site", models.ErrAlreadyExists)
	}
	return created, nil
}

func (r *BacklinkSiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacklinkSite, error) {
	b := &models.BacklinkSite{}
	query := `SELECT ` + backlinkSiteColumns + ` FROM backlink_sites WHERE id = $1`
	if err := r.q.GetContext(ctx, b, query, id); err != nil {
		return nil, wrap(err, "get backlink site", models.ErrAlreadyExists)
	}
	return b, nil
}

func (r *BacklinkSiteRepository) GetByURL(ctx context.Context, url string) (*models.BacklinkSite, error) {
	b := &models.BacklinkSite{}
	query := `SELECT ` + backlinkSiteColumns + ` FROM backlink_sites WHERE url = $1`
	if err := r.q.GetContext(ctx, b, query, url); err != nil {
		return nil, wrap(err, "get backlink site by url", models.ErrAlreadyExists)
	}
	return b, nil
}

// FindByDomain returns every row for domain, oldest first.
func (r *BacklinkSiteRepository) FindByDomain(ctx context.Context, domain string) ([]models.BacklinkSite, error) {
	sites := []models.BacklinkSite{}
	query := `SELECT ` + backlinkSiteColumns + ` FROM backlink_sites WHERE domain = $1 ORDER BY created_at, id`
	if err := r.q.SelectContext(ctx, &sites, query, domain); err != nil {
		return nil, fmt.Errorf("find backlink sites by domain: %w", err)
	}
	return sites, nil
}

// List returns one page of backlink sites and the total matching the filter.
func (r *BacklinkSiteRepository) List(ctx context.Context, filter models.BacklinkSiteFilter) ([]models.BacklinkSite, int, error) {
	c := &clauses{}
	if filter.Search != "" {
		c.add("(url ILIKE $%[1]d OR domain ILIKE $%[1]d OR note ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.FavoriteOnly {
		c.addRaw("is_favorite = TRUE")
	}

	var total int
	if err := r.q.GetContext(ctx, &total, `SELECT COUNT(*) FROM backlink_sites`+c.where(), c.args...); err != nil {
		return nil, 0, fmt.Errorf("count backlink sites: %w", err)
	}

	sortOrder := filter.SortOrder
	if filter.SortBy == "" && sortOrder == "" {
		sortOrder = "desc"
	}
	query := `SELECT ` + backlinkSiteColumns + ` FROM backlink_sites` + c.where() +
		orderBy(filter.SortBy, sortOrder, backlinkSiteSortColumns, "importance_score")
	query += c.page(filter.Limit, filter.Offset)

	sites := []models.BacklinkSite{}
	if err := r.q.SelectContext(ctx, &sites, query, c.args...); err != nil {
		return nil, 0, fmt.Errorf("list backlink sites: %w", err)
	}
	return sites, total, nil
}

// ListAfter returns up to limit rows with id greater than after, in id
// order. A nil after starts from the beginning.
func (r *BacklinkSiteRepository) ListAfter(ctx context.Context, after *uuid.UUID, limit int) ([]models.BacklinkSite, error) {
	sites := []models.BacklinkSite{}
	c := &clauses{}
	if after != nil {
		c.add("id > $%d", *after)
	}
	query := `SELECT ` + backlinkSiteColumns + ` FROM backlink_sites` + c.where() + ` ORDER BY id`
	query += c.page(limit, 0)

	if err := r.q.SelectContext(ctx, &sites, query, c.args...); err != nil {
		return nil, fmt.Errorf("list backlink sites after cursor: %w", err)
	}
	return sites, nil
}

func (r *BacklinkSiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.GetContext(ctx, &n, `SELECT COUNT(*) FROM backlink_sites`); err != nil {
		return 0, fmt.Errorf("count backlink sites: %w", err)
	}
	return n, nil
}

// DuplicateDomains lists domains held by more than one row.
func (r *BacklinkSiteRepository) DuplicateDomains(ctx context.Context) ([]string, error) {
	domains := []string{}
	query := `SELECT domain FROM backlink_sites GROUP BY domain HAVING COUNT(*) > 1 ORDER BY domain`
	if err := r.q.SelectContext(ctx, &domains, query); err != nil {
		return nil, fmt.Errorf("find duplicate domains: %w", err)
	}
	return domains, nil
}

func (r *BacklinkSiteRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.BacklinkSite, error) {
	query, args, err := buildUpdateQuery("backlink_sites", id, updates, backlinkSiteColumns, "")
	if err != nil {
		return nil, err
	}

	b := &models.BacklinkSite{}
	if scanErr := r.q.QueryRowxContext(ctx, query, args...).StructScan(b); scanErr != nil {
		return nil, wrap(scanErr, "update backlink site", models.ErrAlreadyExists)
	}
	return b, nil
}

// SetImportance stores a recomputed importance score.
func (r *BacklinkSiteRepository) SetImportance(ctx context.Context, id uuid.UUID, score int) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE backlink_sites SET importance_score = $1, updated_at = $2 WHERE id = $3`,
		score, time.Now(), id)
	if err != nil {
		return fmt.Errorf("set importance score: %w", err)
	}
	return expectAffected(result, "set importance score")
}

// Delete removes a backlink site; its submissions go with it.
func (r *BacklinkSiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM backlink_sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete backlink site: %w", err)
	}
	return expectAffected(result, "delete backlink site")
}

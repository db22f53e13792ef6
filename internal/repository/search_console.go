package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const searchConsoleColumns = `id, site_id, date, total_clicks, total_impressions, avg_ctr, avg_position,
	top_queries, top_pages, top_devices, created_at, updated_at`

// SearchConsoleRepository stores daily Search Console rows.
type SearchConsoleRepository struct {
	q Querier
}

// Upsert writes the row for (site, date). Top-N lists are kept when the new
// row carries none.
func (r *SearchConsoleRepository) Upsert(ctx context.Context, d *models.SearchConsoleData) (*models.SearchConsoleData, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	query := `
		INSERT INTO search_console_data (id, site_id, date, total_clicks, total_impressions, avg_ctr, avg_position,
			top_queries, top_pages, top_devices, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (site_id, date) DO UPDATE SET
			total_clicks = EXCLUDED.total_clicks,
			total_impressions = EXCLUDED.total_impressions,
			avg_ctr = EXCLUDED.avg_ctr,
			avg_position = EXCLUDED.avg_position,
			top_queries = COALESCE(EXCLUDED.top_queries, search_console_data.top_queries),
			top_pages = COALESCE(EXCLUDED.top_pages, search_console_data.top_pages),
			top_devices = COALESCE(EXCLUDED.top_devices, search_console_data.top_devices),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + searchConsoleColumns

	saved := &models.SearchConsoleData{}
	err := r.q.QueryRowxContext(ctx, query,
		d.ID, d.SiteID, d.Date, d.TotalClicks, d.TotalImpressions, d.AvgCTR, d.AvgPosition,
		nullJSON(d.TopQueries), nullJSON(d.TopPages), nullJSON(d.TopDevices), time.Now(),
	).StructScan(saved)
	if err != nil {
		return nil, wrap(err, "upsert search console data", models.ErrAlreadyExists)
	}
	return saved, nil
}

// ListBySites returns rows for the sites between start and end inclusive,
// ordered by site then date.
func (r *SearchConsoleRepository) ListBySites(ctx context.Context, siteIDs []uuid.UUID, start, end time.Time) ([]models.SearchConsoleData, error) {
	rows := []models.SearchConsoleData{}
	if len(siteIDs) == 0 {
		return rows, nil
	}

	query := `SELECT ` + searchConsoleColumns + ` FROM search_console_data
		WHERE site_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY site_id, date`
	if err := r.q.SelectContext(ctx, &rows, query, uuidArray(siteIDs), start, end); err != nil {
		return nil, fmt.Errorf("list search console data: %w", err)
	}
	return rows, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const trafficColumns = `id, site_id, date, pv, uv, sessions, active_users, new_users, events,
	bounce_rate, average_session_duration, conversion_rate, engagement_rate, engaged_sessions,
	metrics_data, created_at, updated_at`

// TrafficRepository stores daily GA4 rows and their breakdowns.
type TrafficRepository struct {
	q Querier
}

// Upsert writes the row for (site, date), replacing any earlier values. When
// the row carries breakdowns they replace the stored ones; run inside a
// transaction to keep row and breakdowns consistent.
func (r *TrafficRepository) Upsert(ctx context.Context, t *models.TrafficData) (*models.TrafficData, error) {
	now := time.Now()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	query := `
		INSERT INTO traffic_data (id, site_id, date, pv, uv, sessions, active_users, new_users, events,
			bounce_rate, average_session_duration, conversion_rate, engagement_rate, engaged_sessions,
			metrics_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
		ON CONFLICT (site_id, date) DO UPDATE SET
			pv = EXCLUDED.pv,
			uv = EXCLUDED.uv,
			sessions = EXCLUDED.sessions,
			active_users = EXCLUDED.active_users,
			new_users = EXCLUDED.new_users,
			events = EXCLUDED.events,
			bounce_rate = EXCLUDED.bounce_rate,
			average_session_duration = EXCLUDED.average_session_duration,
			conversion_rate = EXCLUDED.conversion_rate,
			engagement_rate = EXCLUDED.engagement_rate,
			engaged_sessions = EXCLUDED.engaged_sessions,
			metrics_data = COALESCE(EXCLUDED.metrics_data, traffic_data.metrics_data),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + trafficColumns

	saved := &models.TrafficData{}
	err := r.q.QueryRowxContext(ctx, query,
		t.ID, t.SiteID, t.Date, t.PV, t.UV, t.Sessions, t.ActiveUsers, t.NewUsers, t.Events,
		t.BounceRate, t.AverageSessionDuration, t.ConversionRate, t.EngagementRate, t.EngagedSessions,
		nullJSON(t.MetricsData), now,
	).StructScan(saved)
	if err != nil {
		return nil, wrap(err, "upsert traffic data", models.ErrAlreadyExists)
	}

	if err := r.replaceBreakdowns(ctx, saved.ID, t); err != nil {
		return nil, err
	}
	saved.Sources, saved.Devices, saved.Pages = t.Sources, t.Devices, t.Pages
	return saved, nil
}

func (r *TrafficRepository) replaceBreakdowns(ctx context.Context, id uuid.UUID, t *models.TrafficData) error {
	if t.Sources != nil {
		if _, err := r.q.ExecContext(ctx, `DELETE FROM traffic_sources WHERE traffic_data_id = $1`, id); err != nil {
			return fmt.Errorf("clear traffic sources: %w", err)
		}
		for _, s := range t.Sources {
			if _, err := r.q.ExecContext(ctx,
				`INSERT INTO traffic_sources (traffic_data_id, source, sessions, users) VALUES ($1, $2, $3, $4)`,
				id, s.Source, s.Sessions, s.Users,
			); err != nil {
				return fmt.Errorf("insert traffic source: %w", err)
			}
		}
	}
	if t.Devices != nil {
		if _, err := r.q.ExecContext(ctx, `DELETE FROM traffic_devices WHERE traffic_data_id = $1`, id); err != nil {
			return fmt.Errorf("clear traffic devices: %w", err)
		}
		for _, d := range t.Devices {
			if _, err := r.q.ExecContext(ctx,
				`INSERT INTO traffic_devices (traffic_data_id, device, sessions, users) VALUES ($1, $2, $3, $4)`,
				id, d.Device, d.Sessions, d.Users,
			); err != nil {
				return fmt.Errorf("insert traffic device: %w", err)
			}
		}
	}
	if t.Pages != nil {
		if _, err := r.q.ExecContext(ctx, `DELETE FROM traffic_pages WHERE traffic_data_id = $1`, id); err != nil {
			return fmt.Errorf("clear traffic pages: %w", err)
		}
		for _, p := range t.Pages {
			if _, err := r.q.ExecContext(ctx,
				`INSERT INTO traffic_pages (traffic_data_id, page_path, pageviews, users) VALUES ($1, $2, $3, $4)`,
				id, p.PagePath, p.Pageviews, p.Users,
			); err != nil {
				return fmt.Errorf("insert traffic page: %w", err)
			}
		}
	}
	return nil
}

// ListBySites returns rows for the sites between start and end inclusive,
// ordered by site then date.
func (r *TrafficRepository) ListBySites(ctx context.Context, siteIDs []uuid.UUID, start, end time.Time) ([]models.TrafficData, error) {
	rows := []models.TrafficData{}
	if len(siteIDs) == 0 {
		return rows, nil
	}

	query := `SELECT ` + trafficColumns + ` FROM traffic_data
		WHERE site_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY site_id, date`
	if err := r.q.SelectContext(ctx, &rows, query, uuidArray(siteIDs), start, end); err != nil {
		return nil, fmt.Errorf("list traffic data: %w", err)
	}
	return rows, nil
}

// LoadBreakdowns fills Sources, Devices and Pages of rows in place.
func (r *TrafficRepository) LoadBreakdowns(ctx context.Context, rows []models.TrafficData) error {
	if len(rows) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]*models.TrafficData, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		index[rows[i].ID] = &rows[i]
		ids = append(ids, rows[i].ID)
	}
	arg := uuidArray(ids)

	var sources []models.TrafficSource
	if err := r.q.SelectContext(ctx, &sources,
		`SELECT traffic_data_id, source, sessions, users FROM traffic_sources
		WHERE traffic_data_id = ANY($1) ORDER BY sessions DESC`, arg); err != nil {
		return fmt.Errorf("list traffic sources: %w", err)
	}
	for _, s := range sources {
		if row, ok := index[s.TrafficDataID]; ok {
			row.Sources = append(row.Sources, s)
		}
	}

	var devices []models.TrafficDevice
	if err := r.q.SelectContext(ctx, &devices,
		`SELECT traffic_data_id, device, sessions, users FROM traffic_devices
		WHERE traffic_data_id = ANY($1) ORDER BY sessions DESC`, arg); err != nil {
		return fmt.Errorf("list traffic devices: %w", err)
	}
	for _, d := range devices {
		if row, ok := index[d.TrafficDataID]; ok {
			row.Devices = append(row.Devices, d)
		}
	}

	var pages []models.TrafficPage
	if err := r.q.SelectContext(ctx, &pages,
		`SELECT traffic_data_id, page_path, pageviews, users FROM traffic_pages
		WHERE traffic_data_id = ANY($1) ORDER BY pageviews DESC`, arg); err != nil {
		return fmt.Errorf("list traffic pages: %w", err)
	}
	for _, p := range pages {
		if row, ok := index[p.TrafficDataID]; ok {
			row.Pages = append(row.Pages, p)
		}
	}
	return nil
}

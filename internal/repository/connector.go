package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const connectorColumns = `id, site_id, type, credentials, config, status, last_sync_at, last_error,
	created_at, updated_at`

// ConnectorRepository stores data source connectors.
type ConnectorRepository struct {
	q Querier
}

// Create inserts c. A second connector of the same type for a site yields
// ErrDuplicateConnector.
func (r *ConnectorRepository) Create(ctx context.Context, c *models.Connector) (*models.Connector, error) {
	now := time.Now()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = models.ConnectorActive
	}

	query := `
		INSERT INTO connectors (id, site_id, type, credentials, config, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + connectorColumns

	created := &models.Connector{}
	err := r.q.QueryRowxContext(ctx, query,
		c.ID, c.SiteID, c.Type, c.Credentials, nullJSON(c.Config), c.Status, c.CreatedAt, c.UpdatedAt,
	).StructScan(created)
	if err != nil {
		return nil, wrap(err, "insert connector", models.ErrDuplicateConnector)
	}
	return created, nil
}

func (r *ConnectorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Connector, error) {
	c := &models.Connector{}
	query := `SELECT ` + connectorColumns + ` FROM connectors WHERE id = $1`
	if err := r.q.GetContext(ctx, c, query, id); err != nil {
		return nil, wrap(err, "get connector", models.ErrDuplicateConnector)
	}
	return c, nil
}

// List returns connectors, optionally only those of one site.
func (r *ConnectorRepository) List(ctx context.Context, siteID *uuid.UUID) ([]models.Connector, error) {
	c := &clauses{}
	if siteID != nil {
		c.add("site_id = $%d", *siteID)
	}

	connectors := []models.Connector{}
	query := `SELECT ` + connectorColumns + ` FROM connectors` + c.where() + ` ORDER BY created_at, id`
	if err := r.q.SelectContext(ctx, &connectors, query, c.args...); err != nil {
		return nil, fmt.Errorf("list connectors: %w", err)
	}
	return connectors, nil
}

// ListSyncable returns connectors that are not inactive and belong to live
// sites.
func (r *ConnectorRepository) ListSyncable(ctx context.Context) ([]models.Connector, error) {
	connectors := []models.Connector{}
	query := `SELECT c.id, c.site_id, c.type, c.credentials, c.config, c.status, c.last_sync_at, c.last_error,
			c.created_at, c.updated_at
		FROM connectors c
		JOIN sites s ON s.id = c.site_id AND s.deleted_at IS NULL
		WHERE c.status <> 'inactive'
		ORDER BY c.created_at, c.id`
	if err := r.q.SelectContext(ctx, &connectors, query); err != nil {
		return nil, fmt.Errorf("list syncable connectors: %w", err)
	}
	return connectors, nil
}

func (r *ConnectorRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Connector, error) {
	query, args, err := buildUpdateQuery("connectors", id, updates, connectorColumns, "")
	if err != nil {
		return nil, err
	}

	c := &models.Connector{}
	if scanErr := r.q.QueryRowxContext(ctx, query, args...).StructScan(c); scanErr != nil {
		return nil, wrap(scanErr, "update connector", models.ErrDuplicateConnector)
	}
	return c, nil
}

// RecordSync stores the outcome of a sync run. A nil syncErr marks the
// connector active and stamps last_sync_at.
func (r *ConnectorRepository) RecordSync(ctx context.Context, id uuid.UUID, at time.Time, syncErr error) error {
	var (
		query string
		args  []any
	)
	if syncErr == nil {
		query = `UPDATE connectors SET status = $1, last_sync_at = $2, last_error = NULL, updated_at = $2 WHERE id = $3`
		args = []any{models.ConnectorActive, at, id}
	} else {
		query = `UPDATE connectors SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4`
		args = []any{models.ConnectorError, syncErr.Error(), at, id}
	}

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record connector sync: %w", err)
	}
	return expectAffected(result, "record connector sync")
}

func (r *ConnectorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM connectors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete connector: %w", err)
	}
	return expectAffected(result, "delete connector")
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/googlesync"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
)

// ConnectorSyncer pulls one connector's data now.
type ConnectorSyncer interface {
	SyncConnector(ctx context.Context, id uuid.UUID) (*googlesync.Result, error)
}

// ConnectorService manages data source connectors.
type ConnectorService struct {
	store  *repository.Store
	syncer ConnectorSyncer
	logger infralogger.Logger
}

// NewConnectorService creates a ConnectorService. A nil syncer disables
// on-demand sync.
func NewConnectorService(store *repository.Store, syncer ConnectorSyncer, log infralogger.Logger) *ConnectorService {
	return &ConnectorService{store: store, syncer: syncer, logger: log}
}

// Create stores a connector. Each site has at most one connector per type.
func (s *ConnectorService) Create(ctx context.Context, req *models.ConnectorCreateRequest) (*models.Connector, error) {
	siteID, err := req.Validate()
	if err != nil {
		return nil, err
	}
	config, err := json.Marshal(req.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal connector config: %w", err)
	}

	var created *models.Connector
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Sites.GetByID(ctx, siteID); err != nil {
			return err
		}
		existing, err := tx.Connectors.List(ctx, &siteID)
		if err != nil {
			return err
		}
		for i := range existing {
			if existing[i].Type == req.Type {
				return models.ErrDuplicateConnector
			}
		}

		created, err = tx.Connectors.Create(ctx, &models.Connector{
			SiteID:      siteID,
			Type:        req.Type,
			Credentials: types.JSONText(req.Credentials),
			Config:      types.JSONText(config),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Connector created",
		infralogger.ConnectorID(created.ID.String()),
		infralogger.SiteID(siteID.String()),
		infralogger.String("type", string(created.Type)),
	)
	return created, nil
}

func (s *ConnectorService) Get(ctx context.Context, id uuid.UUID) (*models.Connector, error) {
	return s.store.Connectors.GetByID(ctx, id)
}

func (s *ConnectorService) List(ctx context.Context, siteID *uuid.UUID) ([]models.Connector, error) {
	return s.store.Connectors.List(ctx, siteID)
}

// Update replaces credentials, config or status. Setting the status back to
// active clears a recorded sync error.
func (s *ConnectorService) Update(ctx context.Context, id uuid.UUID, req *models.ConnectorUpdateRequest) (*models.Connector, error) {
	existing, err := s.store.Connectors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = req.Validate(existing.Type); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if len(req.Credentials) > 0 {
		updates["credentials"] = types.JSONText(req.Credentials)
	}
	if req.Config != nil {
		config, marshalErr := json.Marshal(req.Config)
		if marshalErr != nil {
			return nil, fmt.Errorf("marshal connector config: %w", marshalErr)
		}
		updates["config"] = types.JSONText(config)
	}
	if req.Status != nil {
		updates["status"] = *req.Status
		if *req.Status == models.ConnectorActive {
			updates["last_error"] = nil
		}
	}
	return s.store.Connectors.Update(ctx, id, updates)
}

func (s *ConnectorService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Connectors.Delete(ctx, id)
}

// Sync runs the connector's sync immediately.
func (s *ConnectorService) Sync(ctx context.Context, id uuid.UUID) (*googlesync.Result, error) {
	if s.syncer == nil {
		return nil, errors.New("connector sync is disabled")
	}
	return s.syncer.SyncConnector(ctx, id)
}

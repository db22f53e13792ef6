package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// ConnectorType names an external data source.
type ConnectorType string

const (
	ConnectorGoogleAnalytics ConnectorType = "GoogleAnalytics"
	ConnectorSearchConsole   ConnectorType = "SearchConsole"
)

// Valid reports whether t is a supported connector type.
func (t ConnectorType) Valid() bool {
	return t == ConnectorGoogleAnalytics || t == ConnectorSearchConsole
}

// ConnectorStatus is the health of a connector.
type ConnectorStatus string

const (
	ConnectorActive   ConnectorStatus = "active"
	ConnectorError    ConnectorStatus = "error"
	ConnectorInactive ConnectorStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s ConnectorStatus) Valid() bool {
	return s == ConnectorActive || s == ConnectorError || s == ConnectorInactive
}

// Connector is a credential and config bundle for pulling one site's data
// from one external source. Credentials never leave the service.
type Connector struct {
	ID          uuid.UUID       `db:"id"           json:"id"`
	SiteID      uuid.UUID       `db:"site_id"      json:"siteId"`
	Type        ConnectorType   `db:"type"         json:"type"`
	Credentials types.JSONText  `db:"credentials"  json:"-"`
	Config      types.JSONText  `db:"config"       json:"config,omitempty"`
	Status      ConnectorStatus `db:"status"       json:"status"`
	LastSyncAt  *time.Time      `db:"last_sync_at" json:"lastSyncAt,omitempty"`
	LastError   *string         `db:"last_error"   json:"lastError,omitempty"`
	CreatedAt   time.Time       `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at"   json:"updatedAt"`
}

// HasCredentials reports whether credentials are stored, without exposing them.
func (c *Connector) HasCredentials() bool {
	return len(c.Credentials) > 0 && string(c.Credentials) != "{}" && string(c.Credentials) != "null"
}

// ConnectorConfig is the decoded Config of a connector.
type ConnectorConfig struct {
	PropertyID string `json:"propertyId,omitempty"` // GA4 property, digits only
	SiteURL    string `json:"siteUrl,omitempty"`    // GSC property, e.g. sc-domain:example.com
}

// ConnectorResponse is the API view of a connector.
type ConnectorResponse struct {
	*Connector
	HasCredentials bool `json:"hasCredentials"`
}

// NewConnectorResponse wraps c for output.
func NewConnectorResponse(c *Connector) ConnectorResponse {
	return ConnectorResponse{Connector: c, HasCredentials: c.HasCredentials()}
}

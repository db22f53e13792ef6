// Package events defines the siteboard domain events written to Redis Streams.
package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream siteboard publishes to.
const StreamName = "siteboard-events"

// EventType represents the type of a domain event.
type EventType string

const (
	SiteCreated          EventType = "SITE_CREATED"
	SiteUpdated          EventType = "SITE_UPDATED"
	SiteDeleted          EventType = "SITE_DELETED"
	BacklinkSiteCreated  EventType = "BACKLINK_SITE_CREATED"
	BacklinkSiteMerged   EventType = "BACKLINK_SITE_MERGED"
	BacklinkImportDone   EventType = "BACKLINK_IMPORT_COMPLETED"
	EvaluationRecorded   EventType = "EVALUATION_RECORDED"
	ConnectorSyncDone    EventType = "CONNECTOR_SYNC_COMPLETED"
	ConnectorSyncFailed  EventType = "CONNECTOR_SYNC_FAILED"
	ImportanceRecomputed EventType = "IMPORTANCE_RECOMPUTED"
)

// Event is the envelope for every event on the stream. EntityID is the id of
// the site, backlink site, connector or job the event is about.
type Event struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// ImportPayload summarises a batch import.
type ImportPayload struct {
	Source  string `json:"source"`
	Total   int    `json:"total"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Failed  int    `json:"failed"`
}

// SyncPayload summarises one connector sync.
type SyncPayload struct {
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Rows      int    `json:"rows"`
	Error     string `json:"error,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// SiteStatus is the operational state of a managed site.
type SiteStatus string

const (
	SiteStatusOnline      SiteStatus = "online"
	SiteStatusMaintenance SiteStatus = "maintenance"
	SiteStatusOffline     SiteStatus = "offline"
)

// Valid reports whether s is a known status.
func (s SiteStatus) Valid() bool {
	switch s {
	case SiteStatusOnline, SiteStatusMaintenance, SiteStatusOffline:
		return true
	}
	return false
}

// Site is a managed website.
type Site struct {
	ID         uuid.UUID  `db:"id"          json:"id"`
	Name       string     `db:"name"        json:"name"`
	Domain     string     `db:"domain"      json:"domain"`
	Status     SiteStatus `db:"status"      json:"status"`
	CategoryID *string    `db:"category_id" json:"categoryId,omitempty"`
	Platform   *string    `db:"platform"    json:"platform,omitempty"`
	CreatedAt  time.Time  `db:"created_at"  json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at"  json:"updatedAt"`
	DeletedAt  *time.Time `db:"deleted_at"  json:"deletedAt,omitempty"`
}

// SiteFilter selects sites for listing.
type SiteFilter struct {
	Limit     int
	Offset    int
	Search    string
	Status    SiteStatus
	SortBy    string // name, domain, status, created_at
	SortOrder string // asc, desc
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// TrafficData is one day of GA4 metrics for a site. At most one row exists
// per (site, date).
type TrafficData struct {
	ID                     uuid.UUID      `db:"id"                       json:"id"`
	SiteID                 uuid.UUID      `db:"site_id"                  json:"siteId"`
	Date                   time.Time      `db:"date"                     json:"date"`
	PV                     int64          `db:"pv"                       json:"pv"`
	UV                     int64          `db:"uv"                       json:"uv"`
	Sessions               int64          `db:"sessions"                 json:"sessions"`
	ActiveUsers            int64          `db:"active_users"             json:"activeUsers"`
	NewUsers               int64          `db:"new_users"                json:"newUsers"`
	Events                 int64          `db:"events"                   json:"events"`
	BounceRate             float64        `db:"bounce_rate"              json:"bounceRate"`
	AverageSessionDuration float64        `db:"average_session_duration" json:"averageSessionDuration"`
	ConversionRate         float64        `db:"conversion_rate"          json:"conversionRate"`
	EngagementRate         float64        `db:"engagement_rate"          json:"engagementRate"`
	EngagedSessions        int64          `db:"engaged_sessions"         json:"engagedSessions"`
	MetricsData            types.JSONText `db:"metrics_data"             json:"metricsData,omitempty"`
	CreatedAt              time.Time      `db:"created_at"               json:"createdAt"`
	UpdatedAt              time.Time      `db:"updated_at"               json:"updatedAt"`

	Sources []TrafficSource `db:"-" json:"sources,omitempty"`
	Devices []TrafficDevice `db:"-" json:"devices,omitempty"`
	Pages   []TrafficPage   `db:"-" json:"pages,omitempty"`
}

// TrafficSource is a per-channel breakdown of a TrafficData row.
type TrafficSource struct {
	TrafficDataID uuid.UUID `db:"traffic_data_id" json:"-"`
	Source        string    `db:"source"          json:"source"`
	Sessions      int64     `db:"sessions"        json:"sessions"`
	Users         int64     `db:"users"           json:"users"`
}

// TrafficDevice is a per-device breakdown of a TrafficData row.
type TrafficDevice struct {
	TrafficDataID uuid.UUID `db:"traffic_data_id" json:"-"`
	Device        string    `db:"device"          json:"device"`
	Sessions      int64     `db:"sessions"        json:"sessions"`
	Users         int64     `db:"users"           json:"users"`
}

// TrafficPage is a per-page breakdown of a TrafficData row.
type TrafficPage struct {
	TrafficDataID uuid.UUID `db:"traffic_data_id" json:"-"`
	PagePath      string    `db:"page_path"       json:"pagePath"`
	Pageviews     int64     `db:"pageviews"       json:"pageviews"`
	Users         int64     `db:"users"           json:"users"`
}

// SearchConsoleData is one day of GSC metrics for a site. AvgCTR is a
// percentage in [0,100].
type SearchConsoleData struct {
	ID               uuid.UUID      `db:"id"                json:"id"`
	SiteID           uuid.UUID      `db:"site_id"           json:"siteId"`
	Date             time.Time      `db:"date"              json:"date"`
	TotalClicks      int64          `db:"total_clicks"      json:"totalClicks"`
	TotalImpressions int64          `db:"total_impressions" json:"totalImpressions"`
	AvgCTR           float64        `db:"avg_ctr"           json:"avgCtr"`
	AvgPosition      float64        `db:"avg_position"      json:"avgPosition"`
	TopQueries       types.JSONText `db:"top_queries"       json:"topQueries,omitempty"`
	TopPages         types.JSONText `db:"top_pages"         json:"topPages,omitempty"`
	TopDevices       types.JSONText `db:"top_devices"       json:"topDevices,omitempty"`
	CreatedAt        time.Time      `db:"created_at"        json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at"        json:"updatedAt"`
}

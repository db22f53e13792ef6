package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Evaluation is a scored snapshot of a site. Several per site are kept as
// history; the latest is the one with the greatest date.
type Evaluation struct {
	ID           uuid.UUID      `db:"id"            json:"id"`
	SiteID       uuid.UUID      `db:"site_id"       json:"siteId"`
	Date         time.Time      `db:"date"          json:"date"`
	MarketScore  int            `db:"market_score"  json:"marketScore"`
	QualityScore int            `db:"quality_score" json:"qualityScore"`
	SEOScore     int            `db:"seo_score"     json:"seoScore"`
	TrafficScore int            `db:"traffic_score" json:"trafficScore"`
	RevenueScore int            `db:"revenue_score" json:"revenueScore"`
	OverallScore int            `db:"overall_score" json:"overallScore"`
	Weights      types.JSONText `db:"weights"       json:"weights,omitempty"`
	Reasons      pq.StringArray `db:"reasons"       json:"reasons,omitempty"`
	Suggestions  pq.StringArray `db:"suggestions"   json:"suggestions,omitempty"`
	Evaluator    *string        `db:"evaluator"     json:"evaluator,omitempty"`
	Notes        *string        `db:"notes"         json:"notes,omitempty"`
	CreatedAt    time.Time      `db:"created_at"    json:"createdAt"`
}

// SiteEvaluation is the latest evaluation of a site joined with the site.
type SiteEvaluation struct {
	Evaluation
	SiteName   string `db:"site_name"   json:"siteName"`
	SiteDomain string `db:"site_domain" json:"siteDomain"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// BacklinkSite is an external site that can carry links to managed sites.
// URL is unique; Domain is kept unique by merge logic only.
type BacklinkSite struct {
	ID              uuid.UUID      `db:"id"                json:"id"`
	URL             string         `db:"url"               json:"url"`
	Domain          string         `db:"domain"            json:"domain"`
	DR              *float64       `db:"dr"                json:"dr,omitempty"`
	Note            *string        `db:"note"              json:"note,omitempty"`
	IsFavorite      bool           `db:"is_favorite"       json:"isFavorite"`
	ImportanceScore int            `db:"importance_score"  json:"importanceScore"`
	AuthorityScore  *int           `db:"authority_score"   json:"authorityScore,omitempty"`
	OrganicTraffic  *int64         `db:"organic_traffic"   json:"organicTraffic,omitempty"`
	OrganicKeywords *int64         `db:"organic_keywords"  json:"organicKeywords,omitempty"`
	PaidTraffic     *int64         `db:"paid_traffic"      json:"paidTraffic,omitempty"`
	Backlinks       *int64         `db:"backlinks"         json:"backlinks,omitempty"`
	RefDomains      *int64         `db:"ref_domains"       json:"refDomains,omitempty"`
	AIVisibility    *float64       `db:"ai_visibility"     json:"aiVisibility,omitempty"`
	AIMentions      *int64         `db:"ai_mentions"       json:"aiMentions,omitempty"`
	TrafficChange   *float64       `db:"traffic_change"    json:"trafficChange,omitempty"`
	KeywordsChange  *float64       `db:"keywords_change"   json:"keywordsChange,omitempty"`
	SemrushDataJSON types.JSONText `db:"semrush_data_json" json:"semrushDataJson,omitempty"`
	SemrushTags     pq.StringArray `db:"semrush_tags"      json:"semrushTags,omitempty"`
	SemrushLastSync *time.Time     `db:"semrush_last_sync" json:"semrushLastSync,omitempty"`
	CreatedAt       time.Time      `db:"created_at"        json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at"        json:"updatedAt"`
}

// BacklinkSiteFilter selects backlink sites for listing.
type BacklinkSiteFilter struct {
	Limit        int
	Offset       int
	Search       string
	FavoriteOnly bool
	SortBy       string // importance_score, dr, domain, created_at, authority_score
	SortOrder    string
}

// SubmissionStatus is the state of a backlink submission.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionIndexed   SubmissionStatus = "indexed"
	SubmissionContacted SubmissionStatus = "contacted"
	SubmissionFailed    SubmissionStatus = "failed"
)

// Valid reports whether s is a known status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionSubmitted, SubmissionIndexed, SubmissionContacted, SubmissionFailed:
		return true
	}
	return false
}

// BacklinkSubmission tracks one attempt to get a link from a backlink site
// to a managed site. Unique per (SiteID, BacklinkSiteID).
type BacklinkSubmission struct {
	ID             uuid.UUID        `db:"id"               json:"id"`
	SiteID         uuid.UUID        `db:"site_id"          json:"siteId"`
	BacklinkSiteID uuid.UUID        `db:"backlink_site_id" json:"backlinkSiteId"`
	Status         SubmissionStatus `db:"status"           json:"status"`
	SubmitDate     *time.Time       `db:"submit_date"      json:"submitDate,omitempty"`
	IndexedDate    *time.Time       `db:"indexed_date"     json:"indexedDate,omitempty"`
	Notes          *string          `db:"notes"            json:"notes,omitempty"`
	Cost           *float64         `db:"cost"             json:"cost,omitempty"`
	CreatedAt      time.Time        `db:"created_at"       json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at"       json:"updatedAt"`
}

// SubmissionView is a submission joined with its site and backlink site, as
// listed and exported.
type SubmissionView struct {
	BacklinkSubmission
	SiteName        string `db:"site_name"        json:"siteName"`
	SiteDomain      string `db:"site_domain"      json:"siteDomain"`
	BacklinkURL     string `db:"backlink_url"     json:"backlinkUrl"`
	BacklinkDomain  string `db:"backlink_domain"  json:"backlinkDomain"`
	ImportanceScore int    `db:"importance_score" json:"importanceScore"`
}

// SubmissionFilter selects submissions for listing.
type SubmissionFilter struct {
	SiteID         *uuid.UUID
	BacklinkSiteID *uuid.UUID
	Status         SubmissionStatus
	Limit          int
	Offset         int
}

package models

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const (
	maxNameLength = 255
	maxScore      = 100
)

// SiteCreateRequest is the body of POST /sites.
type SiteCreateRequest struct {
	Name       string     `json:"name"`
	Domain     string     `json:"domain"`
	Status     SiteStatus `json:"status"`
	CategoryID *string    `json:"categoryId"`
	Platform   *string    `json:"platform"`
}

// Validate checks required fields and defaults Status to online.
func (r *SiteCreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Domain = strings.TrimSpace(r.Domain)
	if r.Name == "" {
		return NewValidationError("name", "is required")
	}
	if len(r.Name) > maxNameLength {
		return NewValidationError("name", "must be at most %d characters", maxNameLength)
	}
	if r.Domain == "" {
		return NewValidationError("domain", "is required")
	}
	if r.Status == "" {
		r.Status = SiteStatusOnline
	}
	if !r.Status.Valid() {
		return NewValidationError("status", "must be one of online, maintenance, offline")
	}
	return nil
}

// SiteUpdateRequest is the body of PUT /sites/:id.
type SiteUpdateRequest struct {
	Name       *string     `json:"name"`
	Domain     *string     `json:"domain"`
	Status     *SiteStatus `json:"status"`
	CategoryID *string     `json:"categoryId"`
	Platform   *string     `json:"platform"`
}

// Validate checks the provided fields.
func (r *SiteUpdateRequest) Validate() error {
	if r.Name == nil && r.Domain == nil && r.Status == nil && r.CategoryID == nil && r.Platform == nil {
		return ErrNoFieldsToUpdate
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return NewValidationError("name", "must not be empty")
	}
	if r.Domain != nil && strings.TrimSpace(*r.Domain) == "" {
		return NewValidationError("domain", "must not be empty")
	}
	if r.Status != nil && !r.Status.Valid() {
		return NewValidationError("status", "must be one of online, maintenance, offline")
	}
	return nil
}

// BacklinkSiteCreateRequest is the body of POST /backlink-sites.
type BacklinkSiteCreateRequest struct {
	URL           string   `json:"url"`
	DR            *float64 `json:"dr"`
	Note          *string  `json:"note"`
	IsFavorite    bool     `json:"isFavorite"`
	FetchMetadata bool     `json:"fetchMetadata"`
}

// Validate checks required fields.
func (r *BacklinkSiteCreateRequest) Validate() error {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" {
		return NewValidationError("url", "is required")
	}
	return validateDR(r.DR)
}

// BacklinkSiteUpdateRequest is the body of PUT /backlink-sites/:id.
type BacklinkSiteUpdateRequest struct {
	URL        *string  `json:"url"`
	DR         *float64 `json:"dr"`
	Note       *string  `json:"note"`
	IsFavorite *bool    `json:"isFavorite"`
}

// Validate checks the provided fields.
func (r *BacklinkSiteUpdateRequest) Validate() error {
	if r.URL == nil && r.DR == nil && r.Note == nil && r.IsFavorite == nil {
		return ErrNoFieldsToUpdate
	}
	if r.URL != nil && strings.TrimSpace(*r.URL) == "" {
		return NewValidationError("url", "must not be empty")
	}
	return validateDR(r.DR)
}

func validateDR(dr *float64) error {
	if dr != nil && (*dr < 0 || *dr > maxScore) {
		return NewValidationError("dr", "must be between 0 and 100")
	}
	return nil
}

// SemrushImportRequest is the body of POST /backlink-sites/semrush-import.
type SemrushImportRequest struct {
	PastedText string `json:"pastedText"`
}

// Validate checks that text was supplied.
func (r *SemrushImportRequest) Validate() error {
	if strings.TrimSpace(r.PastedText) == "" {
		return NewValidationError("pastedText", "is required")
	}
	return nil
}

// GSCBacklinkDomain is one linking domain reported by Search Console.
type GSCBacklinkDomain struct {
	Domain      string  `json:"domain"`
	URL         *string `json:"url"`
	IndexedDate *Date   `json:"indexedDate"`
}

// GSCImportRequest is the body of POST /backlink-sites/gsc-import.
type GSCImportRequest struct {
	SiteID          string              `json:"siteId"`
	BacklinkDomains []GSCBacklinkDomain `json:"backlinkDomains"`
}

// Validate checks the site id and that at least one domain is present.
func (r *GSCImportRequest) Validate() (uuid.UUID, error) {
	id, err := uuid.Parse(r.SiteID)
	if err != nil {
		return uuid.Nil, NewValidationError("siteId", "must be a valid UUID")
	}
	if len(r.BacklinkDomains) == 0 {
		return uuid.Nil, NewValidationError("backlinkDomains", "must not be empty")
	}
	return id, nil
}

// SubmissionCreateRequest is the body of POST /submissions.
type SubmissionCreateRequest struct {
	SiteID         string           `json:"siteId"`
	BacklinkSiteID string           `json:"backlinkSiteId"`
	Status         SubmissionStatus `json:"status"`
	SubmitDate     *Date            `json:"submitDate"`
	IndexedDate    *Date            `json:"indexedDate"`
	Notes          *string          `json:"notes"`
	Cost           *float64         `json:"cost"`
}

// Validate parses ids and defaults Status to pending.
func (r *SubmissionCreateRequest) Validate() (siteID, backlinkSiteID uuid.UUID, err error) {
	if siteID, err = uuid.Parse(r.SiteID); err != nil {
		return uuid.Nil, uuid.Nil, NewValidationError("siteId", "must be a valid UUID")
	}
	if backlinkSiteID, err = uuid.Parse(r.BacklinkSiteID); err != nil {
		return uuid.Nil, uuid.Nil, NewValidationError("backlinkSiteId", "must be a valid UUID")
	}
	if r.Status == "" {
		r.Status = SubmissionPending
	}
	if !r.Status.Valid() {
		return uuid.Nil, uuid.Nil, NewValidationError("status", "must be one of pending, submitted, indexed, contacted, failed")
	}
	if r.Cost != nil && *r.Cost < 0 {
		return uuid.Nil, uuid.Nil, NewValidationError("cost", "must not be negative")
	}
	return siteID, backlinkSiteID, nil
}

// SubmissionUpdateRequest is the body of PUT /submissions/:id.
type SubmissionUpdateRequest struct {
	Status      *SubmissionStatus `json:"status"`
	SubmitDate  *Date             `json:"submitDate"`
	IndexedDate *Date             `json:"indexedDate"`
	Notes       *string           `json:"notes"`
	Cost        *float64          `json:"cost"`
}

// Validate checks the provided fields.
func (r *SubmissionUpdateRequest) Validate() error {
	if r.Status == nil && r.SubmitDate == nil && r.IndexedDate == nil && r.Notes == nil && r.Cost == nil {
		return ErrNoFieldsToUpdate
	}
	if r.Status != nil && !r.Status.Valid() {
		return NewValidationError("status", "must be one of pending, submitted, indexed, contacted, failed")
	}
	if r.Cost != nil && *r.Cost < 0 {
		return NewValidationError("cost", "must not be negative")
	}
	return nil
}

// PasteImportRequest is the body of POST /submissions/paste-import: one
// backlink URL per line, all tracked against SiteID.
type PasteImportRequest struct {
	SiteID string           `json:"siteId"`
	Text   string           `json:"text"`
	Status SubmissionStatus `json:"status"`
}

// Validate parses the site id and defaults Status to submitted.
func (r *PasteImportRequest) Validate() (uuid.UUID, error) {
	id, err := uuid.Parse(r.SiteID)
	if err != nil {
		return uuid.Nil, NewValidationError("siteId", "must be a valid UUID")
	}
	if strings.TrimSpace(r.Text) == "" {
		return uuid.Nil, NewValidationError("text", "is required")
	}
	if r.Status == "" {
		r.Status = SubmissionSubmitted
	}
	if !r.Status.Valid() {
		return uuid.Nil, NewValidationError("status", "must be one of pending, submitted, indexed, contacted, failed")
	}
	return id, nil
}

// EvaluationCreateRequest is the body of POST /sites/:id/evaluations.
// OverallScore defaults to the rounded mean of the five dimensions.
type EvaluationCreateRequest struct {
	Date         *Date              `json:"date"`
	MarketScore  int                `json:"marketScore"`
	QualityScore int                `json:"qualityScore"`
	SEOScore     int                `json:"seoScore"`
	TrafficScore int                `json:"trafficScore"`
	RevenueScore int                `json:"revenueScore"`
	OverallScore *int               `json:"overallScore"`
	Weights      map[string]float64 `json:"weights"`
	Reasons      []string           `json:"reasons"`
	Suggestions  []string           `json:"suggestions"`
	Evaluator    *string            `json:"evaluator"`
	Notes        *string            `json:"notes"`
}

// Validate checks every score is within [0,100].
func (r *EvaluationCreateRequest) Validate() error {
	scores := []struct {
		field string
		value int
	}{
		{"marketScore", r.MarketScore},
		{"qualityScore", r.QualityScore},
		{"seoScore", r.SEOScore},
		{"trafficScore", r.TrafficScore},
		{"revenueScore", r.RevenueScore},
	}
	for _, s := range scores {
		if s.value < 0 || s.value > maxScore {
			return NewValidationError(s.field, "must be between 0 and 100")
		}
	}
	if r.OverallScore != nil && (*r.OverallScore < 0 || *r.OverallScore > maxScore) {
		return NewValidationError("overallScore", "must be between 0 and 100")
	}
	return nil
}

// TrafficUpsertRequest is the body of POST /sites/:id/traffic.
type TrafficUpsertRequest struct {
	Date                   Date    `json:"date"`
	PV                     int64   `json:"pv"`
	UV                     int64   `json:"uv"`
	Sessions               int64   `json:"sessions"`
	ActiveUsers            int64   `json:"activeUsers"`
	NewUsers               int64   `json:"newUsers"`
	Events                 int64   `json:"events"`
	BounceRate             float64 `json:"bounceRate"`
	AverageSessionDuration float64 `json:"averageSessionDuration"`
	ConversionRate         float64 `json:"conversionRate"`
	EngagementRate         float64 `json:"engagementRate"`
	EngagedSessions        int64   `json:"engagedSessions"`
}

// Validate checks the date is present and counters are non-negative.
func (r *TrafficUpsertRequest) Validate() error {
	if r.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if r.PV < 0 || r.UV < 0 || r.Sessions < 0 || r.ActiveUsers < 0 || r.NewUsers < 0 || r.Events < 0 {
		return NewValidationError("", "counters must not be negative")
	}
	return nil
}

// SearchConsoleUpsertRequest is the body of POST /sites/:id/search-console.
type SearchConsoleUpsertRequest struct {
	Date             Date    `json:"date"`
	TotalClicks      int64   `json:"totalClicks"`
	TotalImpressions int64   `json:"totalImpressions"`
	AvgCTR           float64 `json:"avgCtr"`
	AvgPosition      float64 `json:"avgPosition"`
}

// Validate checks the date is present and values are in range.
func (r *SearchConsoleUpsertRequest) Validate() error {
	if r.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if r.TotalClicks < 0 || r.TotalImpressions < 0 {
		return NewValidationError("", "counters must not be negative")
	}
	if r.AvgCTR < 0 || r.AvgCTR > maxScore {
		return NewValidationError("avgCtr", "must be a percentage between 0 and 100")
	}
	return nil
}

// ConnectorCreateRequest is the body of POST /connectors.
type ConnectorCreateRequest struct {
	SiteID      string          `json:"siteId"`
	Type        ConnectorType   `json:"type"`
	Credentials json.RawMessage `json:"credentials"`
	Config      ConnectorConfig `json:"config"`
}

// Validate parses the site id and checks type-specific config.
func (r *ConnectorCreateRequest) Validate() (uuid.UUID, error) {
	id, err := uuid.Parse(r.SiteID)
	if err != nil {
		return uuid.Nil, NewValidationError("siteId", "must be a valid UUID")
	}
	if !r.Type.Valid() {
		return uuid.Nil, NewValidationError("type", "must be GoogleAnalytics or SearchConsole")
	}
	if len(r.Credentials) == 0 || !json.Valid(r.Credentials) {
		return uuid.Nil, NewValidationError("credentials", "must be a JSON service account key")
	}
	if err := r.Config.validateFor(r.Type); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ConnectorUpdateRequest is the body of PUT /connectors/:id.
type ConnectorUpdateRequest struct {
	Credentials json.RawMessage  `json:"credentials"`
	Config      *ConnectorConfig `json:"config"`
	Status      *ConnectorStatus `json:"status"`
}

// Validate checks the provided fields against the connector's type.
func (r *ConnectorUpdateRequest) Validate(t ConnectorType) error {
	if len(r.Credentials) == 0 && r.Config == nil && r.Status == nil {
		return ErrNoFieldsToUpdate
	}
	if len(r.Credentials) > 0 && !json.Valid(r.Credentials) {
		return NewValidationError("credentials", "must be valid JSON")
	}
	if r.Status != nil && !r.Status.Valid() {
		return NewValidationError("status", "must be one of active, error, inactive")
	}
	if r.Config != nil {
		return r.Config.validateFor(t)
	}
	return nil
}

func (c ConnectorConfig) validateFor(t ConnectorType) error {
	switch t {
	case ConnectorGoogleAnalytics:
		if strings.TrimSpace(c.PropertyID) == "" {
			return NewValidationError("config.propertyId", "is required for GoogleAnalytics")
		}
	case ConnectorSearchConsole:
		if strings.TrimSpace(c.SiteURL) == "" {
			return NewValidationError("config.siteUrl", "is required for SearchConsole")
		}
	}
	return nil
}

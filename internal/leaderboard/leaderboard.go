// Package leaderboard ranks sites by their latest evaluation.
package leaderboard

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
)

// Paging limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Scores uses dimension names as keys.
type Scores struct {
	Composite int `json:"composite"`
	Market    int `json:"market"`
	Quality   int `json:"quality"`
	SEO       int `json:"seo"`
	Traffic   int `json:"traffic"`
	Revenue   int `json:"revenue"`
}

// Entry is one ranked site.
type Entry struct {
	Rank     int         `json:"rank"`
	SiteID   uuid.UUID   `json:"siteId"`
	SiteName string      `json:"siteName"`
	Domain   string      `json:"domain"`
	Scores   Scores      `json:"scores"`
	Date     models.Date `json:"date"`
}

// Result is one page of the leaderboard.
type Result struct {
	Dimension string  `json:"dimension"`
	Total     int     `json:"total"`
	Page      int     `json:"page"`
	PageSize  int     `json:"pageSize"`
	Entries   []Entry `json:"entries"`
}

// ValidDimension reports whether dimension can be ranked on.
func ValidDimension(dimension string) bool {
	_, ok := scoring.Scores{}.Get(dimension)
	return ok
}

// Rank sorts the latest evaluations by dimension, highest first, assigns
// dense ranks starting at 1 and returns the requested page. Equal scores
// share a rank and are listed by site name, then site ID.
func Rank(latest []models.SiteEvaluation, dimension string, page, pageSize int) (Result, error) {
	if !ValidDimension(dimension) {
		return Result{}, models.NewValidationError("dimension", "dimension must be one of %s", strings.Join(scoring.Dimensions, ", "))
	}
	if page < 1 {
		return Result{}, models.NewValidationError("page", "page must be at least 1")
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return Result{}, models.NewValidationError("pageSize", "pageSize must be between 1 and %d", MaxPageSize)
	}

	ranked := make([]Entry, 0, len(latest))
	values := make([]int, 0, len(latest))
	for i := range latest {
		e := &latest[i]
		s := scoring.FromEvaluation(&e.Evaluation)
		v, _ := s.Get(dimension)
		ranked = append(ranked, Entry{
			SiteID:   e.SiteID,
			SiteName: e.SiteName,
			Domain:   e.SiteDomain,
			Scores: Scores{
				Composite: s.OverallScore,
				Market:    s.MarketScore,
				Quality:   s.QualityScore,
				SEO:       s.SEOScore,
				Traffic:   s.TrafficScore,
				Revenue:   s.RevenueScore,
			},
			Date: models.NewDate(e.Date),
		})
		values = append(values, v)
	}

	order := make([]int, len(ranked))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if values[a] != values[b] {
			return values[a] > values[b]
		}
		if ranked[a].SiteName != ranked[b].SiteName {
			return ranked[a].SiteName < ranked[b].SiteName
		}
		return ranked[a].SiteID.String() < ranked[b].SiteID.String()
	})

	sorted := make([]Entry, len(order))
	rank := 0
	for pos, idx := range order {
		if pos == 0 || values[idx] != values[order[pos-1]] {
			rank++
		}
		sorted[pos] = ranked[idx]
		sorted[pos].Rank = rank
	}

	result := Result{
		Dimension: dimension,
		Total:     len(sorted),
		Page:      page,
		PageSize:  pageSize,
		Entries:   []Entry{},
	}
	start := (page - 1) * pageSize
	if start < len(sorted) {
		end := min(start+pageSize, len(sorted))
		result.Entries = sorted[start:end]
	}
	return result, nil
}

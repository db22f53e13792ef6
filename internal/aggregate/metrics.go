package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
)

// Evaluation source values.
const (
	SourceStored = "stored"
	SourceAuto   = "auto"
)

// Evaluation is the score block shown with site metrics: a stored
// evaluation when one exists, otherwise scores computed on the fly.
type Evaluation struct {
	scoring.Scores
	Source      string     `json:"source"`
	Date        *time.Time `json:"date,omitempty"`
	Reasons     []string   `json:"reasons,omitempty"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

// SiteMetrics is the aggregated view of one site over a window.
type SiteMetrics struct {
	SiteID         uuid.UUID      `json:"siteId"`
	Name           string         `json:"name"`
	Domain         string         `json:"domain"`
	Traffic        TrafficSummary `json:"traffic"`
	GSC            GSCSummary     `json:"gsc"`
	BacklinksCount int            `json:"backlinksCount"`
	Evaluation     *Evaluation    `json:"evaluation,omitempty"`
}

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

type numericKey func(m *SiteMetrics) (float64, bool)

// numericKeys maps the sortable metric keys to their values. The second
// result is false when the site has no data for the key.
var numericKeys = map[string]numericKey{
	"pv":       func(m *SiteMetrics) (float64, bool) { return float64(m.Traffic.TotalPV), m.Traffic.RecordCount > 0 },
	"uv":       func(m *SiteMetrics) (float64, bool) { return float64(m.Traffic.TotalUV), m.Traffic.RecordCount > 0 },
	"au":       func(m *SiteMetrics) (float64, bool) { return float64(m.Traffic.TotalActiveUsers), m.Traffic.RecordCount > 0 },
	"sessions": func(m *SiteMetrics) (float64, bool) { return float64(m.Traffic.TotalSessions), m.Traffic.RecordCount > 0 },
	"clicks":   func(m *SiteMetrics) (float64, bool) { return float64(m.GSC.TotalClicks), m.GSC.RecordCount > 0 },
	"impr":     func(m *SiteMetrics) (float64, bool) { return float64(m.GSC.TotalImpressions), m.GSC.RecordCount > 0 },
	"ctr":      func(m *SiteMetrics) (float64, bool) { return m.GSC.AvgCTR, m.GSC.RecordCount > 0 },
	"avgpos":   func(m *SiteMetrics) (float64, bool) { return m.GSC.AvgPosition, m.GSC.RecordCount > 0 && m.GSC.AvgPosition > 0 },
	"backlinks": func(m *SiteMetrics) (float64, bool) {
		return float64(m.BacklinksCount), true
	},
	"score": func(m *SiteMetrics) (float64, bool) {
		if m.Evaluation == nil {
			return 0, false
		}
		return float64(m.Evaluation.OverallScore), true
	},
}

var stringKeys = map[string]func(m *SiteMetrics) string{
	"name":   func(m *SiteMetrics) string { return strings.ToLower(m.Name) },
	"domain": func(m *SiteMetrics) string { return strings.ToLower(m.Domain) },
}

// ValidSortKey reports whether key can be passed to SortSiteIDs.
func ValidSortKey(key string) bool {
	_, numeric := numericKeys[key]
	_, text := stringKeys[key]
	return numeric || text
}

// SortSiteIDs orders the sites in metrics by key. Sites without a value for
// the key come last in either direction; ties fall back to site ID. An empty
// direction means descending.
func SortSiteIDs(metrics map[uuid.UUID]*SiteMetrics, key, dir string) ([]uuid.UUID, error) {
	if !ValidSortKey(key) {
		return nil, models.NewValidationError("sortBy", "unsupported sort key %q", key)
	}
	dir = strings.ToLower(dir)
	switch dir {
	case "":
		dir = SortDesc
	case SortAsc, SortDesc:
	default:
		return nil, models.NewValidationError("sortOrder", "sortOrder must be asc or desc")
	}

	ids := make([]uuid.UUID, 0, len(metrics))
	for id := range metrics {
		ids = append(ids, id)
	}

	less := compareFor(key, dir == SortDesc)
	sort.Slice(ids, func(i, j int) bool {
		a, b := metrics[ids[i]], metrics[ids[j]]
		if c := less(a, b); c != 0 {
			return c < 0
		}
		return ids[i].String() < ids[j].String()
	})
	return ids, nil
}

// compareFor returns a three-way comparison placing missing values last.
func compareFor(key string, desc bool) func(a, b *SiteMetrics) int {
	if value, ok := stringKeys[key]; ok {
		return func(a, b *SiteMetrics) int {
			va, vb := value(a), value(b)
			switch {
			case va == "" && vb == "":
				return 0
			case va == "":
				return 1
			case vb == "":
				return -1
			}
			c := strings.Compare(va, vb)
			if desc {
				return -c
			}
			return c
		}
	}

	value := numericKeys[key]
	return func(a, b *SiteMetrics) int {
		va, okA := value(a)
		vb, okB := value(b)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		case va == vb:
			return 0
		}
		c := -1
		if va > vb {
			c = 1
		}
		if desc {
			return -c
		}
		return c
	}
}

package googlesync

import (
	"context"
	"fmt"
	"math"
	"time"

	searchconsole "google.golang.org/api/searchconsole/v1"

	"github.com/huzhengnan/website-monitor-sub000/internal/aggregate"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const gscRowLimit = 25000

type searchClient struct {
	svc *searchconsole.Service
}

func (c *searchClient) FetchSearch(ctx context.Context, siteURL string, w aggregate.Window) ([]models.SearchConsoleData, error) {
	req := &searchconsole.SearchAnalyticsQueryRequest{
		StartDate:  w.Start.String(),
		EndDate:    w.End.String(),
		Dimensions: []string{"date"},
		RowLimit:   gscRowLimit,
	}
	resp, err := c.svc.Searchanalytics.Query(siteURL, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("query search analytics for %s: %w", siteURL, err)
	}
	return searchRows(resp.Rows)
}

// searchRows maps query rows onto SearchConsoleData. CTR arrives as a
// fraction and is stored as a percentage.
func searchRows(rows []*searchconsole.ApiDataRow) ([]models.SearchConsoleData, error) {
	out := make([]models.SearchConsoleData, 0, len(rows))
	for _, row := range rows {
		if len(row.Keys) == 0 {
			return nil, fmt.Errorf("search analytics row has no date key")
		}
		date, err := time.Parse(time.DateOnly, row.Keys[0])
		if err != nil {
			return nil, fmt.Errorf("parse search analytics date %q: %w", row.Keys[0], err)
		}
		out = append(out, models.SearchConsoleData{
			Date:             date,
			TotalClicks:      int64(row.Clicks),
			TotalImpressions: int64(row.Impressions),
			AvgCTR:           percent(row.Ctr),
			AvgPosition:      round2(row.Position),
		})
	}
	return out, nil
}

func percent(fraction float64) float64 {
	return round2(fraction * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

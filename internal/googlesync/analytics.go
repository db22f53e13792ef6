package googlesync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"

	"github.com/huzhengnan/website-monitor-sub000/internal/aggregate"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const gaDateLayout = "20060102"

// GA4 metrics requested per day, in report column order.
var gaMetrics = []string{
	"screenPageViews",
	"totalUsers",
	"sessions",
	"activeUsers",
	"newUsers",
	"eventCount",
	"bounceRate",
	"averageSessionDuration",
	"engagementRate",
	"engagedSessions",
	"sessionConversionRate",
}

type analyticsClient struct {
	svc *analyticsdata.Service
}

func (c *analyticsClient) FetchTraffic(ctx context.Context, propertyID string, w aggregate.Window) ([]models.TrafficData, error) {
	metrics := make([]*analyticsdata.Metric, len(gaMetrics))
	for i, name := range gaMetrics {
		metrics[i] = &analyticsdata.Metric{Name: name}
	}

	req := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{{StartDate: w.Start.String(), EndDate: w.End.String()}},
		Dimensions: []*analyticsdata.Dimension{{Name: "date"}},
		Metrics:    metrics,
	}
	resp, err := c.svc.Properties.RunReport("properties/"+propertyID, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("run GA4 report for property %s: %w", propertyID, err)
	}
	return trafficRows(resp.Rows)
}

// trafficRows maps report rows onto TrafficData. GA4 reports rates as
// fractions; they are stored as percentages.
func trafficRows(rows []*analyticsdata.Row) ([]models.TrafficData, error) {
	out := make([]models.TrafficData, 0, len(rows))
	for _, row := range rows {
		if len(row.DimensionValues) == 0 || len(row.MetricValues) < len(gaMetrics) {
			return nil, fmt.Errorf("GA4 row has %d dimensions and %d metrics", len(row.DimensionValues), len(row.MetricValues))
		}
		date, err := time.Parse(gaDateLayout, row.DimensionValues[0].Value)
		if err != nil {
			return nil, fmt.Errorf("parse GA4 date %q: %w", row.DimensionValues[0].Value, err)
		}

		v := func(i int) float64 {
			f, _ := strconv.ParseFloat(row.MetricValues[i].Value, 64)
			return f
		}
		out = append(out, models.TrafficData{
			Date:                   date,
			PV:                     int64(v(0)),
			UV:                     int64(v(1)),
			Sessions:               int64(v(2)),
			ActiveUsers:            int64(v(3)),
			NewUsers:               int64(v(4)),
			Events:                 int64(v(5)),
			BounceRate:             percent(v(6)),
			AverageSessionDuration: round2(v(7)),
			EngagementRate:         percent(v(8)),
			EngagedSessions:        int64(v(9)),
			ConversionRate:         percent(v(10)),
		})
	}
	return out, nil
}

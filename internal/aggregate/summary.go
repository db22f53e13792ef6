package aggregate

import (
	"math"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
)

// TrafficSummary reduces TrafficData rows. Rates are unweighted daily means.
type TrafficSummary struct {
	TotalPV            int64   `json:"totalPv"`
	TotalUV            int64   `json:"totalUv"`
	TotalSessions      int64   `json:"totalSessions"`
	TotalActiveUsers   int64   `json:"totalActiveUsers"`
	TotalNewUsers      int64   `json:"totalNewUsers"`
	TotalEvents        int64   `json:"totalEvents"`
	AvgBounceRate      float64 `json:"avgBounceRate"`
	AvgSessionDuration float64 `json:"avgSessionDuration"`
	AvgConversionRate  float64 `json:"avgConversionRate"`
	RecordCount        int     `json:"recordCount"`
}

// GSCSummary reduces SearchConsoleData rows.
type GSCSummary struct {
	TotalClicks      int64   `json:"totalClicks"`
	TotalImpressions int64   `json:"totalImpressions"`
	AvgCTR           float64 `json:"avgCtr"`
	AvgPosition      float64 `json:"avgPosition"`
	RecordCount      int     `json:"recordCount"`
}

// SummarizeTraffic sums and averages rows. No rows yields all zeros.
func SummarizeTraffic(rows []models.TrafficData) TrafficSummary {
	var (
		s                            TrafficSummary
		bounce, duration, conversion float64
	)
	for i := range rows {
		r := &rows[i]
		s.TotalPV += r.PV
		s.TotalUV += r.UV
		s.TotalSessions += r.Sessions
		s.TotalActiveUsers += r.ActiveUsers
		s.TotalNewUsers += r.NewUsers
		s.TotalEvents += r.Events
		bounce += r.BounceRate
		duration += r.AverageSessionDuration
		conversion += r.ConversionRate
	}
	s.RecordCount = len(rows)
	s.AvgBounceRate = mean(bounce, len(rows))
	s.AvgSessionDuration = mean(duration, len(rows))
	s.AvgConversionRate = mean(conversion, len(rows))
	return s
}

// SummarizeGSC sums and averages rows. No rows yields all zeros.
func SummarizeGSC(rows []models.SearchConsoleData) GSCSummary {
	var (
		s             GSCSummary
		ctr, position float64
	)
	for i := range rows {
		r := &rows[i]
		s.TotalClicks += r.TotalClicks
		s.TotalImpressions += r.TotalImpressions
		ctr += r.AvgCTR
		position += r.AvgPosition
	}
	s.RecordCount = len(rows)
	s.AvgCTR = mean(ctr, len(rows))
	s.AvgPosition = mean(position, len(rows))
	return s
}

// ScoringInputs combines the summaries into evaluation inputs.
func ScoringInputs(t TrafficSummary, g GSCSummary, backlinks int) scoring.Inputs {
	return scoring.Inputs{
		PageViews:          t.TotalPV,
		Sessions:           t.TotalSessions,
		ActiveUsers:        t.TotalActiveUsers,
		NewUsers:           t.TotalNewUsers,
		Events:             t.TotalEvents,
		AvgSessionDuration: t.AvgSessionDuration,
		BounceRate:         t.AvgBounceRate,
		ConversionRate:     t.AvgConversionRate,
		Clicks:             g.TotalClicks,
		Impressions:        g.TotalImpressions,
		CTR:                g.AvgCTR,
		AvgPosition:        g.AvgPosition,
		Backlinks:          backlinks,
	}
}

// mean rounds to two decimals and is 0 for n == 0.
func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*100) / 100
}

package aggregate_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/internal/aggregate"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
)

var today = time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)

func TestDateRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		days       int
		start, end string
	}{
		{1, "2024-06-10", "2024-06-10"},
		{2, "2024-06-09", "2024-06-09"},
		{3, "2024-06-06", "2024-06-08"},
		{7, "2024-06-02", "2024-06-08"},
		{30, "2024-05-10", "2024-06-08"},
	}

	for _, tt := range tests {
		w, err := aggregate.DateRange(tt.days, today)
		require.NoError(t, err)
		assert.Equal(t, tt.start, w.Start.String(), "days=%d", tt.days)
		assert.Equal(t, tt.end, w.End.String(), "days=%d", tt.days)
	}
}

func TestDateRange_Invalid(t *testing.T) {
	t.Parallel()

	for _, days := range []int{0, -1, 367} {
		_, err := aggregate.DateRange(days, today)
		assert.True(t, models.IsValidationError(err), "days=%d", days)
	}
}

func TestParseDateRange(t *testing.T) {
	t.Parallel()

	w, err := aggregate.ParseDateRange("2024-06-01", "2024-06-03")
	require.NoError(t, err)
	assert.Len(t, w.Days(), 3)
	assert.True(t, w.Contains(time.Date(2024, 6, 3, 23, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)))

	_, err = aggregate.ParseDateRange("2024-06-05", "2024-06-01")
	assert.True(t, models.IsValidationError(err))

	_, err = aggregate.ParseDateRange("06/01/2024", "2024-06-01")
	assert.True(t, models.IsValidationError(err))

	_, err = aggregate.ParseDateRange("2022-01-01", "2024-01-01")
	assert.True(t, models.IsValidationError(err))
}

func TestSummarizeTraffic(t *testing.T) {
	t.Parallel()

	got := aggregate.SummarizeTraffic([]models.TrafficData{
		{PV: 10, UV: 5, Sessions: 3, BounceRate: 40, AverageSessionDuration: 100, ConversionRate: 1},
		{PV: 20, UV: 5, Sessions: 3, BounceRate: 50, AverageSessionDuration: 110, ConversionRate: 2},
		{PV: 30, UV: 5, Sessions: 3, BounceRate: 55, AverageSessionDuration: 121, ConversionRate: 2},
	})

	assert.Equal(t, int64(60), got.TotalPV)
	assert.Equal(t, int64(15), got.TotalUV)
	assert.Equal(t, int64(9), got.TotalSessions)
	assert.InDelta(t, 48.33, got.AvgBounceRate, 0.0001)
	assert.InDelta(t, 110.33, got.AvgSessionDuration, 0.0001)
	assert.InDelta(t, 1.67, got.AvgConversionRate, 0.0001)
	assert.Equal(t, 3, got.RecordCount)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, aggregate.TrafficSummary{}, aggregate.SummarizeTraffic(nil))
	assert.Equal(t, aggregate.GSCSummary{}, aggregate.SummarizeGSC(nil))
}

func TestSummarizeGSC(t *testing.T) {
	t.Parallel()

	got := aggregate.SummarizeGSC([]models.SearchConsoleData{
		{TotalClicks: 10, TotalImpressions: 1000, AvgCTR: 1, AvgPosition: 12.5},
		{TotalClicks: 30, TotalImpressions: 1000, AvgCTR: 3, AvgPosition: 8},
	})

	assert.Equal(t, int64(40), got.TotalClicks)
	assert.Equal(t, int64(2000), got.TotalImpressions)
	assert.InDelta(t, 2.0, got.AvgCTR, 0.0001)
	assert.InDelta(t, 10.25, got.AvgPosition, 0.0001)
	assert.Equal(t, 2, got.RecordCount)
}

func TestScoringInputs(t *testing.T) {
	t.Parallel()

	in := aggregate.ScoringInputs(
		aggregate.TrafficSummary{TotalPV: 5, AvgBounceRate: 30},
		aggregate.GSCSummary{TotalClicks: 7, AvgPosition: 3},
		4,
	)
	assert.Equal(t, int64(5), in.PageViews)
	assert.InDelta(t, 30.0, in.BounceRate, 0)
	assert.Equal(t, int64(7), in.Clicks)
	assert.Equal(t, 4, in.Backlinks)
}

func TestSortSiteIDs(t *testing.T) {
	t.Parallel()

	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("00000000-0000-0000-0000-00000000000c")
	d := uuid.MustParse("00000000-0000-0000-0000-00000000000d")

	metrics := map[uuid.UUID]*aggregate.SiteMetrics{
		a: {SiteID: a, Name: "Alpha", Traffic: aggregate.TrafficSummary{TotalPV: 100, RecordCount: 1}},
		b: {SiteID: b, Name: "beta", Traffic: aggregate.TrafficSummary{TotalPV: 300, RecordCount: 1}},
		c: {SiteID: c, Name: "Gamma"},
		d: {SiteID: d, Name: "delta", Traffic: aggregate.TrafficSummary{TotalPV: 100, RecordCount: 2},
			Evaluation: &aggregate.Evaluation{Scores: scoring.Scores{OverallScore: 70}}},
	}

	ids, err := aggregate.SortSiteIDs(metrics, "pv", "desc")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b, a, d, c}, ids)

	ids, err = aggregate.SortSiteIDs(metrics, "pv", "asc")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, d, b, c}, ids, "missing values stay last")

	ids, err = aggregate.SortSiteIDs(metrics, "score", "")
	require.NoError(t, err)
	assert.Equal(t, d, ids[0])

	ids, err = aggregate.SortSiteIDs(metrics, "name", "asc")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b, d, c}, ids)

	_, err = aggregate.SortSiteIDs(metrics, "bogus", "asc")
	assert.True(t, models.IsValidationError(err))

	_, err = aggregate.SortSiteIDs(metrics, "pv", "sideways")
	assert.True(t, models.IsValidationError(err))
}

func TestMergeDaily(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC) }

	points := aggregate.MergeDaily(
		[]models.TrafficData{{Date: day(3), PV: 3}, {Date: day(1), PV: 1}},
		[]models.SearchConsoleData{{Date: day(1), TotalClicks: 9}, {Date: day(2), TotalClicks: 4}},
	)

	require.Len(t, points, 3)
	assert.Equal(t, "2024-06-01", points[0].Date.String())
	assert.Equal(t, int64(1), points[0].Traffic.PV)
	assert.Equal(t, int64(9), points[0].GSC.TotalClicks)
	assert.Nil(t, points[1].Traffic)
	assert.Nil(t, points[2].GSC)
}

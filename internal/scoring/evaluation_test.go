package scoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
)

func TestScorer_Evaluate(t *testing.T) {
	t.Parallel()

	s := scoring.NewScorer(scoring.Calibration{})
	got := s.Evaluate(scoring.Inputs{
		PageViews:          500_000,
		Sessions:           250_000,
		ActiveUsers:        250_000,
		NewUsers:           50_000,
		Events:             500_000,
		AvgSessionDuration: 150,
		BounceRate:         40,
		ConversionRate:     2.4,
		Clicks:             25_000,
		Impressions:        500_000,
		CTR:                5,
		AvgPosition:        26,
		Backlinks:          50,
	})

	// every normalized term sits at 50
	assert.Equal(t, 50, got.TrafficScore)
	assert.Equal(t, 55, got.QualityScore) // 0.5*50 + 0.5*60
	assert.Equal(t, 50, got.SEOScore)
	assert.Equal(t, 50, got.MarketScore)
	assert.Equal(t, 2, got.RevenueScore)
	assert.Equal(t, 41, got.OverallScore) // (50+55+50+50+2)/5 = 41.4
}

func TestScorer_EvaluateEmpty(t *testing.T) {
	t.Parallel()

	got := scoring.NewScorer(scoring.DefaultCalibration()).Evaluate(scoring.Inputs{})
	assert.Equal(t, scoring.Scores{QualityScore: 50, OverallScore: 10}, got)
}

func TestScorer_EvaluateClamps(t *testing.T) {
	t.Parallel()

	got := scoring.NewScorer(scoring.DefaultCalibration()).Evaluate(scoring.Inputs{
		PageViews:          10_000_000,
		Sessions:           10_000_000,
		ActiveUsers:        10_000_000,
		AvgSessionDuration: 10_000,
		BounceRate:         150,
		ConversionRate:     250,
	})
	assert.Equal(t, 100, got.TrafficScore)
	assert.Equal(t, 50, got.QualityScore)
	assert.Equal(t, 100, got.RevenueScore)
}

func TestCustomCalibration(t *testing.T) {
	t.Parallel()

	s := scoring.NewScorer(scoring.Calibration{Clicks: 100})
	assert.Equal(t, 30, s.SEOScore(scoring.Inputs{Clicks: 100}))
}

func TestPositionScore(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 100.0, scoring.PositionScore(1), 0)
	assert.InDelta(t, 50.0, scoring.PositionScore(26), 0)
	assert.InDelta(t, 0.0, scoring.PositionScore(60), 0)
	assert.InDelta(t, 0.0, scoring.PositionScore(0), 0)
}

func TestScores_Get(t *testing.T) {
	t.Parallel()

	s := scoring.Scores{MarketScore: 1, QualityScore: 2, SEOScore: 3, TrafficScore: 4, RevenueScore: 5, OverallScore: 6}
	for dim, want := range map[string]int{"market": 1, "quality": 2, "seo": 3, "traffic": 4, "revenue": 5, "composite": 6} {
		got, ok := s.Get(dim)
		assert.True(t, ok, dim)
		assert.Equal(t, want, got, dim)
	}
	_, ok := s.Get("popularity")
	assert.False(t, ok)
}

func TestExplain(t *testing.T) {
	t.Parallel()

	in := scoring.Inputs{BounceRate: 82, AvgSessionDuration: 30, Impressions: 1000, CTR: 0.5, AvgPosition: 35, Backlinks: 2}
	reasons, suggestions := scoring.Explain(in, scoring.NewScorer(scoring.Calibration{}).Evaluate(in))

	assert.Contains(t, reasons, "High bounce rate (82.0%)")
	assert.Len(t, suggestions, 7)

	in = scoring.Inputs{BounceRate: 30, AvgSessionDuration: 240, AvgPosition: 4, Backlinks: 80, ConversionRate: 5}
	reasons, suggestions = scoring.Explain(in, scoring.Scores{TrafficScore: 80})
	assert.Len(t, reasons, 6)
	assert.Empty(t, suggestions)
}

func TestComputeTrend(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC) }
	eval := func(d, score int) models.Evaluation {
		return models.Evaluation{
			Date:         day(d),
			MarketScore:  score,
			QualityScore: score,
			SEOScore:     score,
			TrafficScore: score,
			RevenueScore: score,
		}
	}

	// latest is 80, history mean is (40+60+80)/3 = 60
	got := scoring.ComputeTrend([]models.Evaluation{eval(3, 80), eval(1, 40), eval(2, 60)})
	assert.Equal(t, 20, got.Trend)
	assert.Equal(t, 3, got.Count)
	assert.InDelta(t, 60.0, got.HistoricalAverage, 0.001)

	got = scoring.ComputeTrend([]models.Evaluation{eval(1, 90), eval(2, 30)})
	assert.Equal(t, -30, got.Trend)

	assert.Equal(t, scoring.Trend{}, scoring.ComputeTrend(nil))
}

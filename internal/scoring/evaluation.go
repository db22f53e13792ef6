package scoring

import (
	"math"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

// Dimension names accepted by Scores.Get and the leaderboard.
const (
	DimensionComposite = "composite"
	DimensionMarket    = "market"
	DimensionQuality   = "quality"
	DimensionSEO       = "seo"
	DimensionTraffic   = "traffic"
	DimensionRevenue   = "revenue"
)

// Dimensions lists every rankable dimension.
var Dimensions = []string{
	DimensionComposite, DimensionMarket, DimensionQuality,
	DimensionSEO, DimensionTraffic, DimensionRevenue,
}

// Inputs are the aggregated metrics a site is scored on.
type Inputs struct {
	PageViews          int64
	Sessions           int64
	ActiveUsers        int64
	NewUsers           int64
	Events             int64
	AvgSessionDuration float64 // seconds
	BounceRate         float64 // percent
	ConversionRate     float64 // percent
	Clicks             int64
	Impressions        int64
	CTR                float64 // percent
	AvgPosition        float64
	Backlinks          int
}

// Scores are the five evaluation dimensions and their composite, each in
// [0,100].
type Scores struct {
	MarketScore  int `json:"marketScore"`
	QualityScore int `json:"qualityScore"`
	SEOScore     int `json:"seoScore"`
	TrafficScore int `json:"trafficScore"`
	RevenueScore int `json:"revenueScore"`
	OverallScore int `json:"overallScore"`
}

// Get returns the score for a dimension name.
func (s Scores) Get(dimension string) (int, bool) {
	switch dimension {
	case DimensionComposite:
		return s.OverallScore, true
	case DimensionMarket:
		return s.MarketScore, true
	case DimensionQuality:
		return s.QualityScore, true
	case DimensionSEO:
		return s.SEOScore, true
	case DimensionTraffic:
		return s.TrafficScore, true
	case DimensionRevenue:
		return s.RevenueScore, true
	}
	return 0, false
}

// DimensionAverage is the plain mean of the five dimensions.
func (s Scores) DimensionAverage() float64 {
	return float64(s.MarketScore+s.QualityScore+s.SEOScore+s.TrafficScore+s.RevenueScore) / 5
}

// Composite returns the rounded mean of the five dimensions.
func Composite(market, quality, seo, traffic, revenue int) int {
	return int(math.Round(float64(market+quality+seo+traffic+revenue) / 5))
}

// FromEvaluation reads the scores of a stored evaluation.
func FromEvaluation(e *models.Evaluation) Scores {
	return Scores{
		MarketScore:  e.MarketScore,
		QualityScore: e.QualityScore,
		SEOScore:     e.SEOScore,
		TrafficScore: e.TrafficScore,
		RevenueScore: e.RevenueScore,
		OverallScore: e.OverallScore,
	}
}

// Scorer computes automatic evaluation scores.
type Scorer struct {
	cal Calibration
}

// NewScorer returns a Scorer; zero ceilings in cal fall back to defaults.
func NewScorer(cal Calibration) *Scorer {
	return &Scorer{cal: cal.WithDefaults()}
}

// Evaluate scores a site from its aggregated metrics.
func (s *Scorer) Evaluate(in Inputs) Scores {
	c := s.cal
	duration := norm(in.AvgSessionDuration, c.SessionDuration)

	traffic := round(0.35*norm(float64(in.PageViews), c.PageViews) +
		0.25*norm(float64(in.Sessions), c.Sessions) +
		0.20*norm(float64(in.ActiveUsers), c.ActiveUsers) +
		0.20*duration)

	quality := round(0.5*duration + 0.5*(100-math.Min(100, math.Max(0, in.BounceRate))))

	seo := s.SEOScore(in)

	market := round(0.6*norm(float64(in.NewUsers), c.NewUsers) + 0.4*norm(float64(in.Events), c.Events))

	revenue := round(clamp(in.ConversionRate, 0, 100))

	return Scores{
		MarketScore:  market,
		QualityScore: quality,
		SEOScore:     seo,
		TrafficScore: traffic,
		RevenueScore: revenue,
		OverallScore: Composite(market, quality, seo, traffic, revenue),
	}
}

// SEOScore is the search dimension alone. Single-site and batch views both
// use this formula.
func (s *Scorer) SEOScore(in Inputs) int {
	c := s.cal
	return round(0.30*norm(float64(in.Clicks), c.Clicks) +
		0.25*norm(float64(in.Impressions), c.Impressions) +
		0.20*norm(in.CTR, c.CTR) +
		0.15*PositionScore(in.AvgPosition) +
		0.10*norm(float64(in.Backlinks), c.Backlinks))
}

// PositionScore turns an average search position into [0,100]: position 1
// scores 100, 51 and beyond score 0. Unknown positions (<= 0) score 0.
func PositionScore(avgPosition float64) float64 {
	if avgPosition <= 0 {
		return 0
	}
	return clamp((51-avgPosition)*2, 0, 100)
}

func norm(v, ceiling float64) float64 {
	if ceiling <= 0 {
		return 0
	}
	return clamp(v/ceiling*100, 0, 100)
}

func round(v float64) int {
	return int(clamp(math.Round(v), 0, 100))
}

package scoring

import (
	"math"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

// Trend compares the latest evaluation with the site's history.
type Trend struct {
	Trend             int     `json:"trend"`
	LatestAverage     float64 `json:"latestAverage"`
	HistoricalAverage float64 `json:"historicalAverage"`
	Count             int     `json:"count"`
}

// ComputeTrend returns round(latest dimension average - mean dimension
// average over all evaluations). The latest evaluation is the one with the
// greatest date, then creation time. No history yields a zero Trend.
func ComputeTrend(history []models.Evaluation) Trend {
	if len(history) == 0 {
		return Trend{}
	}

	latest := 0
	var sum float64
	for i := range history {
		sum += FromEvaluation(&history[i]).DimensionAverage()
		if newer(&history[i], &history[latest]) {
			latest = i
		}
	}

	latestAvg := FromEvaluation(&history[latest]).DimensionAverage()
	historical := sum / float64(len(history))

	return Trend{
		Trend:             int(math.Round(latestAvg - historical)),
		LatestAverage:     round2(latestAvg),
		HistoricalAverage: round2(historical),
		Count:             len(history),
	}
}

func newer(a, b *models.Evaluation) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Package scoring computes backlink importance and site evaluation scores.
// All functions are pure; callers load the inputs and persist the results.
package scoring

import (
	"math"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const (
	importanceDRWeight     = 0.5
	importanceStatusWeight = 0.3
	importanceCountWeight  = 0.2

	// submissionsForFullCount is the submission count that earns the
	// whole count term.
	submissionsForFullCount = 10
)

// StatusScore maps a submission status to its contribution in [0,100].
func StatusScore(s models.SubmissionStatus) float64 {
	switch s {
	case models.SubmissionIndexed:
		return 100
	case models.SubmissionSubmitted:
		return 70
	case models.SubmissionContacted:
		return 50
	case models.SubmissionPending:
		return 30
	default:
		return 0
	}
}

// ImportanceScore rates a backlink site from its domain rating and the
// statuses of its submissions. A missing DR or an empty submission list
// contributes zero; the weights are not renormalized.
func ImportanceScore(dr *float64, statuses []models.SubmissionStatus) int {
	var drTerm, statusTerm, countTerm float64

	if dr != nil {
		drTerm = clamp(*dr*2, 0, 100)
	}
	if n := len(statuses); n > 0 {
		var sum float64
		for _, s := range statuses {
			sum += StatusScore(s)
		}
		statusTerm = sum / float64(n)
		countTerm = math.Min(100, float64(n)/submissionsForFullCount*100)
	}

	score := importanceDRWeight*drTerm + importanceStatusWeight*statusTerm + importanceCountWeight*countTerm
	return int(clamp(math.Round(score), 0, 100))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

package scoring

import "fmt"

// Thresholds that select explanation messages.
const (
	highBounceRate      = 70.0
	lowBounceRate       = 40.0
	shortSessionSeconds = 60.0
	longSessionSeconds  = 180.0
	lowCTR              = 2.0
	farPosition         = 20.0
	firstPagePosition   = 10.0
	fewBacklinks        = 10
	manyBacklinks       = 50
	lowConversion       = 1.0
	goodConversion      = 3.0
	weakScore           = 30
	strongScore         = 70
)

// Explain returns human-readable reasons for the scores and suggestions for
// improving them.
func Explain(in Inputs, s Scores) (reasons, suggestions []string) {
	reasons = []string{}
	suggestions = []string{}

	switch {
	case s.TrafficScore >= strongScore:
		reasons = append(reasons, "Strong traffic volume")
	case s.TrafficScore < weakScore:
		suggestions = append(suggestions, "Grow traffic through new content and promotion")
	}

	switch {
	case in.BounceRate > highBounceRate:
		reasons = append(reasons, fmt.Sprintf("High bounce rate (%.1f%%)", in.BounceRate))
		suggestions = append(suggestions, "Improve landing page relevance and load speed to reduce bounces")
	case in.BounceRate > 0 && in.BounceRate < lowBounceRate:
		reasons = append(reasons, "Low bounce rate shows engaged visitors")
	}

	switch {
	case in.AvgSessionDuration >= longSessionSeconds:
		reasons = append(reasons, "Visitors stay for a long time")
	case in.AvgSessionDuration < shortSessionSeconds:
		suggestions = append(suggestions, "Add internal links and richer content to lengthen sessions")
	}

	if in.Impressions > 0 && in.CTR < lowCTR {
		suggestions = append(suggestions, "Rewrite titles and meta descriptions to raise click-through rate")
	}

	switch {
	case in.AvgPosition > 0 && in.AvgPosition <= firstPagePosition:
		reasons = append(reasons, "Ranks on the first page on average")
	case in.AvgPosition > farPosition:
		suggestions = append(suggestions, "Target long-tail keywords to improve average position")
	}

	switch {
	case in.Backlinks >= manyBacklinks:
		reasons = append(reasons, fmt.Sprintf("Healthy backlink profile (%d links)", in.Backlinks))
	case in.Backlinks < fewBacklinks:
		suggestions = append(suggestions, "Build more backlinks from relevant sites")
	}

	switch {
	case in.ConversionRate >= goodConversion:
		reasons = append(reasons, "Conversion rate is above average")
	case in.ConversionRate < lowConversion:
		suggestions = append(suggestions, "Optimise calls to action and conversion paths")
	}

	return reasons, suggestions
}

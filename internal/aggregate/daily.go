package aggregate

import (
	"sort"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

// DailyPoint pairs the traffic and Search Console rows of one day.
type DailyPoint struct {
	Date    models.Date               `json:"date"`
	Traffic *models.TrafficData       `json:"traffic,omitempty"`
	GSC     *models.SearchConsoleData `json:"gsc,omitempty"`
}

// MergeDaily joins rows by day, oldest first. Days with neither row are
// omitted.
func MergeDaily(traffic []models.TrafficData, gsc []models.SearchConsoleData) []DailyPoint {
	byDay := make(map[string]*DailyPoint, len(traffic))
	point := func(d models.Date) *DailyPoint {
		key := d.String()
		p, ok := byDay[key]
		if !ok {
			p = &DailyPoint{Date: d}
			byDay[key] = p
		}
		return p
	}

	for i := range traffic {
		point(models.NewDate(traffic[i].Date)).Traffic = &traffic[i]
	}
	for i := range gsc {
		point(models.NewDate(gsc[i].Date)).GSC = &gsc[i]
	}

	points := make([]DailyPoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date.Time)
	})
	return points
}

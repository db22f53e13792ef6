// Package aggregate reduces daily traffic and Search Console rows into
// per-site summaries and orders sites by them.
package aggregate

import (
	"time"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

// MaxWindowDays bounds both DateRange and ParseDateRange.
const MaxWindowDays = 366

// settleDays is how far multi-day windows end before today, so that
// upstream analytics have finished processing the last day.
const settleDays = 2

// Window is an inclusive range of UTC calendar days.
type Window struct {
	Start models.Date `json:"startDate"`
	End   models.Date `json:"endDate"`
}

// Days returns every day of the window in order.
func (w Window) Days() []models.Date {
	var days []models.Date
	for d := w.Start.Time; !d.After(w.End.Time); d = d.AddDate(0, 0, 1) {
		days = append(days, models.NewDate(d))
	}
	return days
}

// Contains reports whether t falls on a day inside the window.
func (w Window) Contains(t time.Time) bool {
	d := models.NewDate(t).Time
	return !d.Before(w.Start.Time) && !d.After(w.End.Time)
}

// DateRange returns the reporting window for the last N days relative to
// now: 1 is today, 2 is yesterday, and N > 2 is N days ending two days
// before today.
func DateRange(days int, now time.Time) (Window, error) {
	if days < 1 || days > MaxWindowDays {
		return Window{}, models.NewValidationError("days", "days must be between 1 and %d", MaxWindowDays)
	}

	today := models.NewDate(now)
	switch days {
	case 1:
		return Window{Start: today, End: today}, nil
	case 2:
		yesterday := models.NewDate(today.AddDate(0, 0, -1))
		return Window{Start: yesterday, End: yesterday}, nil
	}

	end := models.NewDate(today.AddDate(0, 0, -settleDays))
	start := models.NewDate(end.AddDate(0, 0, -(days - 1)))
	return Window{Start: start, End: end}, nil
}

// ParseDateRange builds an explicit window from YYYY-MM-DD strings.
func ParseDateRange(start, end string) (Window, error) {
	s, err := models.ParseDate(start)
	if err != nil {
		return Window{}, models.NewValidationError("startDate", "startDate must be YYYY-MM-DD")
	}
	e, err := models.ParseDate(end)
	if err != nil {
		return Window{}, models.NewValidationError("endDate", "endDate must be YYYY-MM-DD")
	}
	if e.Before(s.Time) {
		return Window{}, models.NewValidationError("endDate", "endDate must not be before startDate")
	}
	if span := int(e.Sub(s.Time).Hours()/24) + 1; span > MaxWindowDays {
		return Window{}, models.NewValidationError("endDate", "window may span at most %d days", MaxWindowDays)
	}
	return Window{Start: s, End: e}, nil
}

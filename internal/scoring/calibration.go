package scoring

// Calibration holds the ceilings that raw metrics are normalized against.
// A metric at or above its ceiling scores 100.
type Calibration struct {
	PageViews       float64 `yaml:"page_views"`
	Sessions        float64 `yaml:"sessions"`
	ActiveUsers     float64 `yaml:"active_users"`
	SessionDuration float64 `yaml:"session_duration"`
	NewUsers        float64 `yaml:"new_users"`
	Events          float64 `yaml:"events"`
	Clicks          float64 `yaml:"clicks"`
	Impressions     float64 `yaml:"impressions"`
	CTR             float64 `yaml:"ctr"`
	Backlinks       float64 `yaml:"backlinks"`
}

// DefaultCalibration returns the stock ceilings.
func DefaultCalibration() Calibration {
	return Calibration{
		PageViews:       1_000_000,
		Sessions:        500_000,
		ActiveUsers:     500_000,
		SessionDuration: 300,
		NewUsers:        100_000,
		Events:          1_000_000,
		Clicks:          50_000,
		Impressions:     1_000_000,
		CTR:             10,
		Backlinks:       100,
	}
}

// WithDefaults fills zero ceilings from DefaultCalibration.
func (c Calibration) WithDefaults() Calibration {
	d := DefaultCalibration()
	for _, p := range []struct {
		v   *float64
		def float64
	}{
		{&c.PageViews, d.PageViews},
		{&c.Sessions, d.Sessions},
		{&c.ActiveUsers, d.ActiveUsers},
		{&c.SessionDuration, d.SessionDuration},
		{&c.NewUsers, d.NewUsers},
		{&c.Events, d.Events},
		{&c.Clicks, d.Clicks},
		{&c.Impressions, d.Impressions},
		{&c.CTR, d.CTR},
		{&c.Backlinks, d.Backlinks},
	} {
		if *p.v <= 0 {
			*p.v = p.def
		}
	}
	return c
}

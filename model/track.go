package model

// Track is one of the account's tracks as ranked for the reporting window.
type Track struct {
	URN       string `json:"urn"`
	Title     string `json:"title"`
	Plays     int64  `json:"plays"`
	URL       string `json:"url"`
	Artwork   string `json:"artwork"`
	CreatedAt string `json:"created_at"` // YYYY-MM-DD, empty when the source has no date
}

// TrackGeo is a Track plus the geo breakdown computed for that track alone.
// The sum of Countries[].Plays is not expected to match Plays.
type TrackGeo struct {
	Track
	Countries []CountryStat `json:"countries"`
	Cities    []CityStat    `json:"cities"`
}

// NewTrackGeo never leaves nil slices so the JSON form always carries [].
func NewTrackGeo(t Track, countries []CountryStat, cities []CityStat) TrackGeo {
	if countries == nil {
		countries = []CountryStat{}
	}
	if cities == nil {
		cities = []CityStat{}
	}
	return TrackGeo{Track: t, Countries: countries, Cities: cities}
}

// TopCountry returns the first country of the per-track breakdown.
func (t TrackGeo) TopCountry() (CountryStat, bool) {
	if len(t.Countries) == 0 {
		return CountryStat{}, false
	}
	return t.Countries[0], true
}

// DateOnly truncates an ISO timestamp to its date part.
func DateOnly(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}

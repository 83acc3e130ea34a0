package model

// 以下为 Insights GraphQL 接口返回的原始结构

// InsightsCountry 国家
type InsightsCountry struct {
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

// InsightsCity 城市，附带所属国家
type InsightsCity struct {
	Name    string          `json:"name"`
	Country InsightsCountry `json:"country"`
}

// InsightsTrack 曲目元数据
type InsightsTrack struct {
	URN          string  `json:"urn"`
	Title        string  `json:"title"`
	ArtworkURL   *string `json:"artworkUrl"`
	Permalink    string  `json:"permalink"`
	PermalinkURL string  `json:"permalinkUrl"`
	CreatedAt    *string `json:"createdAt"`
}

// CountryCount topCountriesByWindow 的一项
type CountryCount struct {
	Count   int64           `json:"count"`
	Country InsightsCountry `json:"country"`
}

// CityCount topCitiesByWindow 的一项
type CityCount struct {
	Count int64        `json:"count"`
	City  InsightsCity `json:"city"`
}

// TrackCount topTracksByWindow 的一项
type TrackCount struct {
	Count int64         `json:"count"`
	Track InsightsTrack `json:"track"`
}

// ToTrack converts the wire item into the snapshot's Track.
func (tc TrackCount) ToTrack() Track {
	t := Track{
		URN:   tc.Track.URN,
		Title: tc.Track.Title,
		Plays: tc.Count,
		URL:   tc.Track.PermalinkURL,
	}
	if tc.Track.ArtworkURL != nil {
		t.Artwork = *tc.Track.ArtworkURL
	}
	if tc.Track.CreatedAt != nil {
		t.CreatedAt = DateOnly(*tc.Track.CreatedAt)
	}
	return t
}

// ToCountryStat drops the wire nesting. Rank is left to the assembler.
func (cc CountryCount) ToCountryStat() CountryStat {
	return CountryStat{
		Name:  cc.Country.Name,
		Code:  cc.Country.CountryCode,
		Plays: cc.Count,
	}
}

// ToCityStat drops the wire nesting. Rank is left to the assembler.
func (cc CityCount) ToCityStat() CityStat {
	return CityStat{
		Name:        cc.City.Name,
		Country:     cc.City.Country.Name,
		CountryCode: cc.City.Country.CountryCode,
		Plays:       cc.Count,
	}
}

package pipeline

import "soundmap/model"

// Assemble combines the collected parts into a snapshot. Aggregate lists are
// ranked 1..n in the order given (the source already sorts them by plays).
// Inputs are copied; the snapshot shares no slices with its arguments.
func Assemble(identity *model.User, aggCountries []model.CountryStat, aggCities []model.CityStat, tracks []model.TrackGeo, index model.CountryIndex) *model.Snapshot {
	s := model.EmptySnapshot()

	if identity != nil {
		u := *identity
		s.User = &u
	}

	s.Aggregate.Countries = make([]model.CountryStat, len(aggCountries))
	for i, c := range aggCountries {
		c.Rank = i + 1
		s.Aggregate.Countries[i] = c
	}

	s.Aggregate.Cities = make([]model.CityStat, len(aggCities))
	for i, c := range aggCities {
		c.Rank = i + 1
		s.Aggregate.Cities[i] = c
	}

	s.Tracks = make([]model.TrackGeo, len(tracks))
	for i, t := range tracks {
		countries := append([]model.CountryStat{}, t.Countries...)
		cities := append([]model.CityStat{}, t.Cities...)
		s.Tracks[i] = model.NewTrackGeo(t.Track, countries, cities)
	}

	for code, entry := range index {
		entry.Tracks = append([]model.CountryTrack{}, entry.Tracks...)
		s.CountryTracks[code] = entry
	}
	return s
}

package pipeline

import (
	"sort"

	"soundmap/model"
)

// BuildCountryIndex folds per-track country breakdowns into code -> tracks.
//
// Cumulative totals do not depend on track order. Within a country, tracks are
// sorted by plays descending; equal plays keep insertion order. Breakdowns
// without a valid country code are skipped.
func BuildCountryIndex(tracks []model.TrackGeo) model.CountryIndex {
	idx, _ := buildCountryIndex(tracks)
	return idx
}

// buildCountryIndex also reports how many breakdowns were skipped.
func buildCountryIndex(tracks []model.TrackGeo) (model.CountryIndex, int) {
	idx := make(model.CountryIndex)
	skipped := 0
	for _, t := range tracks {
		for _, c := range t.Countries {
			code, err := model.ParseCountryCode(c.Code)
			if err != nil {
				skipped++
				continue
			}
			entry, ok := idx[code]
			if !ok {
				entry = model.CountryTracks{
					Name:   c.Name,
					Code:   code.String(),
					Tracks: []model.CountryTrack{},
				}
			}
			entry.TotalPlays += c.Plays
			entry.Tracks = append(entry.Tracks, model.CountryTrack{
				Title: t.Title,
				URN:   t.URN,
				Plays: c.Plays,
			})
			idx[code] = entry
		}
	}

	for code, entry := range idx {
		sort.SliceStable(entry.Tracks, func(i, j int) bool {
			return entry.Tracks[i].Plays > entry.Tracks[j].Plays
		})
		idx[code] = entry
	}
	return idx, skipped
}

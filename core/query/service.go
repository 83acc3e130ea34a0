// Package query answers read-only questions about the active snapshot.
//
// Every operation is a pure function of the snapshot and the coordinate
// table. The snapshot is held in an atomic cell so a reload replaces it whole;
// readers never lock and never observe a half-updated snapshot.
package query

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"soundmap/core/geo"
	"soundmap/model"

	"github.com/samber/lo"
)

// ErrNotFound is returned by lookups that have no match.
var ErrNotFound = errors.New("not found")

// Summary 概览数据
type Summary struct {
	TotalPlays     int64      `json:"total_plays"`
	TotalTracks    int        `json:"total_tracks"`
	TotalCountries int        `json:"total_countries"`
	TotalCities    int        `json:"total_cities"`
	TopTrack       string     `json:"top_track"`
	TopTrackPlays  int64      `json:"top_track_plays"`
	Username       string     `json:"username"`
	HasData        bool       `json:"has_data"`
	SnapshotID     string     `json:"snapshot_id,omitempty"`
	GeneratedAt    *time.Time `json:"generated_at,omitempty"`
}

// City is an aggregate city, with coordinates when the table knows it.
type City struct {
	model.CityStat
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

// MapCity is a city placed on the map; it always has coordinates.
type MapCity struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Plays       int64   `json:"plays"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// MapData is the composite payload of the map view.
type MapData struct {
	Cities       []MapCity        `json:"cities"`
	CountryPlays map[string]int64 `json:"country_plays"`
}

// Service serves queries over the current snapshot.
type Service struct {
	snapshot atomic.Pointer[model.Snapshot]
	coords   geo.Table
}

// New builds a service. A nil snapshot means nothing has been collected yet
// and is replaced by the empty snapshot; a nil table disables coordinates.
func New(snapshot *model.Snapshot, coords geo.Table) *Service {
	if coords == nil {
		coords = geo.Table{}
	}
	s := &Service{coords: coords}
	s.Replace(snapshot)
	return s
}

// Replace swaps in a new snapshot. The previous one is never modified.
func (s *Service) Replace(snapshot *model.Snapshot) {
	if snapshot == nil {
		snapshot = model.EmptySnapshot()
	}
	s.snapshot.Store(snapshot.Normalize())
}

// Snapshot returns the snapshot currently served. Callers must not modify it.
func (s *Service) Snapshot() *model.Snapshot {
	return s.snapshot.Load()
}

// SnapshotID 当前快照的 ID，未带 meta 时为空
func (s *Service) SnapshotID() string {
	return s.snapshot.Load().SnapshotID()
}

// Summary totals plays over the collected tracks. The top track is the first
// of the list as stored, not a re-sort.
func (s *Service) Summary() Summary {
	snap := s.snapshot.Load()
	sum := Summary{
		TotalPlays:     lo.SumBy(snap.Tracks, func(t model.TrackGeo) int64 { return t.Plays }),
		TotalTracks:    len(snap.Tracks),
		TotalCountries: len(snap.Aggregate.Countries),
		TotalCities:    len(snap.Aggregate.Cities),
		TopTrack:       "N/A",
		Username:       snap.User.DisplayName(),
		HasData:        !snap.IsEmpty(),
	}
	if len(snap.Tracks) > 0 {
		sum.TopTrack = snap.Tracks[0].Title
		sum.TopTrackPlays = snap.Tracks[0].Plays
	}
	if snap.Meta != nil {
		sum.SnapshotID = snap.Meta.ID
		generated := snap.Meta.GeneratedAt
		sum.GeneratedAt = &generated
	}
	return sum
}

// AllTracks returns the track list verbatim.
func (s *Service) AllTracks() []model.TrackGeo {
	return s.snapshot.Load().Tracks
}

// TrackByURN finds a track by exact URN, then by URN suffix so shortened ids
// like "tracks:123" or "123" work. An encoded colon (%3A) is decoded first.
func (s *Service) TrackByURN(id string) (model.TrackGeo, error) {
	id = strings.ReplaceAll(strings.ReplaceAll(id, "%3A", ":"), "%3a", ":")
	if id == "" {
		return model.TrackGeo{}, fmt.Errorf("track %q: %w", id, ErrNotFound)
	}

	tracks := s.snapshot.Load().Tracks
	if t, ok := lo.Find(tracks, func(t model.TrackGeo) bool { return t.URN == id }); ok {
		return t, nil
	}
	if t, ok := lo.Find(tracks, func(t model.TrackGeo) bool { return strings.HasSuffix(t.URN, id) }); ok {
		return t, nil
	}
	return model.TrackGeo{}, fmt.Errorf("track %q: %w", id, ErrNotFound)
}

// AllCountries returns the aggregate country list verbatim.
func (s *Service) AllCountries() []model.CountryStat {
	return s.snapshot.Load().Aggregate.Countries
}

// CountryDetail returns the country index entry; code is case-insensitive.
func (s *Service) CountryDetail(code string) (model.CountryTracks, error) {
	entry, ok := s.snapshot.Load().CountryTracks.Lookup(code)
	if !ok {
		return model.CountryTracks{}, fmt.Errorf("country %q: %w", code, ErrNotFound)
	}
	return entry, nil
}

// CitiesOfCountry filters the aggregate cities by country code. No match is
// an empty list, not an error.
func (s *Service) CitiesOfCountry(code string) []model.CityStat {
	code = strings.TrimSpace(code)
	return lo.Filter(s.snapshot.Load().Aggregate.Cities, func(c model.CityStat, _ int) bool {
		return strings.EqualFold(c.CountryCode, code)
	})
}

// AllCities returns every aggregate city; known ones carry lat/lng.
func (s *Service) AllCities() []City {
	return lo.Map(s.snapshot.Load().Aggregate.Cities, func(c model.CityStat, _ int) City {
		out := City{CityStat: c}
		if coord, ok := s.coords.Lookup(c.Name); ok {
			lat, lng := coord.Lat, coord.Lng
			out.Lat, out.Lng = &lat, &lng
		}
		return out
	})
}

// MapData drops cities without coordinates and maps country code to plays.
func (s *Service) MapData() MapData {
	snap := s.snapshot.Load()
	cities := lo.FilterMap(snap.Aggregate.Cities, func(c model.CityStat, _ int) (MapCity, bool) {
		coord, ok := s.coords.Lookup(c.Name)
		if !ok {
			return MapCity{}, false
		}
		return MapCity{
			Name:        c.Name,
			Country:     c.Country,
			CountryCode: c.CountryCode,
			Plays:       c.Plays,
			Lat:         coord.Lat,
			Lng:         coord.Lng,
		}, true
	})
	countryPlays := lo.Associate(snap.Aggregate.Countries, func(c model.CountryStat) (string, int64) {
		return c.Code, c.Plays
	})
	return MapData{Cities: cities, CountryPlays: countryPlays}
}

package query

import (
	"errors"
	"sync"
	"testing"
	"time"

	"soundmap/core/geo"
	"soundmap/model"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureSnapshot() *model.Snapshot {
	return &model.Snapshot{
		User: &model.User{Username: "artist", FollowersCount: 12},
		Aggregate: model.Aggregate{
			Countries: []model.CountryStat{
				{Rank: 1, Name: "United States", Code: "US", Plays: 100},
				{Rank: 2, Name: "Canada", Code: "CA", Plays: 50},
			},
			Cities: []model.CityStat{
				{Rank: 1, Name: "Chicago", Country: "United States", CountryCode: "US", Plays: 30},
				{Rank: 2, Name: "Toronto", Country: "Canada", CountryCode: "CA", Plays: 20},
				{Rank: 3, Name: "Springfield", Country: "United States", CountryCode: "US", Plays: 5},
			},
		},
		Tracks: []model.TrackGeo{
			model.NewTrackGeo(model.Track{URN: "soundcloud:tracks:123", Title: "first", Plays: 70},
				[]model.CountryStat{{Name: "United States", Code: "US", Plays: 40}}, nil),
			model.NewTrackGeo(model.Track{URN: "soundcloud:tracks:9123", Title: "second", Plays: 30}, nil, nil),
		},
		CountryTracks: model.CountryIndex{
			"US": {Name: "United States", Code: "US", TotalPlays: 40, Tracks: []model.CountryTrack{
				{Title: "first", URN: "soundcloud:tracks:123", Plays: 40},
			}},
		},
		Meta: &model.SnapshotMeta{ID: "abc", GeneratedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Window: "DAYS_30"},
	}
}

func newService() *Service {
	return New(fixtureSnapshot(), geo.Default())
}

func TestSummary(t *testing.T) {
	sum := newService().Summary()
	assert.Equal(t, int64(100), sum.TotalPlays)
	assert.Equal(t, 2, sum.TotalTracks)
	assert.Equal(t, 2, sum.TotalCountries)
	assert.Equal(t, 3, sum.TotalCities)
	assert.Equal(t, "first", sum.TopTrack)
	assert.Equal(t, int64(70), sum.TopTrackPlays)
	assert.Equal(t, "artist", sum.Username)
	assert.True(t, sum.HasData)
	assert.Equal(t, "abc", sum.SnapshotID)
}

func TestSummaryWithoutSnapshot(t *testing.T) {
	sum := New(nil, geo.Default()).Summary()
	assert.Equal(t, Summary{TopTrack: "N/A", Username: "unknown"}, sum)
	assert.False(t, sum.HasData)
}

func TestSummaryTotalsMatchTracks(t *testing.T) {
	snap := fixtureSnapshot()
	svc := New(snap, nil)
	var plays int64
	for _, tr := range snap.Tracks {
		plays += tr.Plays
	}
	sum := svc.Summary()
	assert.Equal(t, len(snap.Tracks), sum.TotalTracks)
	assert.Equal(t, plays, sum.TotalPlays)
}

func TestTrackByURN(t *testing.T) {
	svc := newService()
	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{name: "exact", id: "soundcloud:tracks:123", want: "first"},
		{name: "encoded colon", id: "soundcloud%3Atracks%3A9123", want: "second"},
		{name: "suffix", id: "9123", want: "second"},
		{name: "suffix with prefix part", id: "tracks:123", want: "first"},
		{name: "missing", id: "777", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.TrackByURN(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Title)
		})
	}
}

func TestTrackByURNExactBeatsSuffix(t *testing.T) {
	snap := model.EmptySnapshot()
	snap.Tracks = []model.TrackGeo{
		model.NewTrackGeo(model.Track{URN: "soundcloud:tracks:55", Title: "suffix"}, nil, nil),
		model.NewTrackGeo(model.Track{URN: "55", Title: "exact"}, nil, nil),
	}
	got, err := New(snap, nil).TrackByURN("55")
	require.NoError(t, err)
	assert.Equal(t, "exact", got.Title)
}

func TestCountryDetailCaseInsensitive(t *testing.T) {
	svc := newService()

	entry, err := svc.CountryDetail("us")
	require.NoError(t, err)
	assert.Equal(t, "US", entry.Code)
	assert.Equal(t, int64(40), entry.TotalPlays)
	require.Len(t, entry.Tracks, 1)

	_, err = svc.CountryDetail("CA")
	assert.ErrorIs(t, err, ErrNotFound, "CA has aggregate plays but no per-track contribution")

	_, err = svc.CountryDetail("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCitiesOfCountry(t *testing.T) {
	svc := newService()

	us := svc.CitiesOfCountry("us")
	require.Len(t, us, 2)
	assert.Equal(t, "Chicago", us[0].Name)
	assert.Equal(t, "Springfield", us[1].Name)

	none := svc.CitiesOfCountry("FR")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAllCitiesAndMapData(t *testing.T) {
	svc := newService()

	all := svc.AllCities()
	require.Len(t, all, 3)
	require.NotNil(t, all[0].Lat)
	assert.Equal(t, 41.8781, *all[0].Lat)
	assert.Nil(t, all[2].Lat, "Springfield is not in the table")
	assert.Nil(t, all[2].Lng)

	raw, err := json.Marshal(all[2])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "lat")
	assert.Contains(t, string(raw), `"country_code":"US"`)

	md := svc.MapData()
	require.Len(t, md.Cities, 2)
	for _, c := range md.Cities {
		_, ok := geo.Default().Lookup(c.Name)
		assert.True(t, ok, c.Name)
	}
	assert.Equal(t, map[string]int64{"US": 100, "CA": 50}, md.CountryPlays)
}

func TestVerbatimLists(t *testing.T) {
	snap := fixtureSnapshot()
	svc := New(snap, nil)
	assert.Equal(t, snap.Tracks, svc.AllTracks())
	assert.Equal(t, snap.Aggregate.Countries, svc.AllCountries())
}

func TestEmptySnapshotQueries(t *testing.T) {
	svc := New(nil, geo.Default())
	assert.Empty(t, svc.AllTracks())
	assert.Empty(t, svc.AllCountries())
	assert.Empty(t, svc.AllCities())

	md := svc.MapData()
	assert.NotNil(t, md.Cities)
	assert.NotNil(t, md.CountryPlays)

	_, err := svc.TrackByURN("1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReplaceIsAtomic(t *testing.T) {
	svc := New(nil, nil)
	next := fixtureSnapshot()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				sum := svc.Summary()
				// either the empty snapshot or the full one, never a mix
				if sum.HasData {
					assert.Equal(t, 2, sum.TotalTracks)
				} else {
					assert.Equal(t, 0, sum.TotalTracks)
				}
			}
		}()
	}
	svc.Replace(next)
	wg.Wait()

	assert.Equal(t, "abc", svc.SnapshotID())
	assert.Same(t, next, svc.Snapshot())
}

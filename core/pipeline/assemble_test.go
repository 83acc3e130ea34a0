package pipeline

import (
	"testing"

	"soundmap/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleRanksAndCopies(t *testing.T) {
	user := &model.User{Username: "artist"}
	countries := []model.CountryStat{cs("United States", "US", 100), cs("Canada", "CA", 50)}
	cities := []model.CityStat{{Name: "Chicago", Country: "United States", CountryCode: "US", Plays: 30}}
	tracks := []model.TrackGeo{geoTrack("urn:1", "one", cs("United States", "US", 40))}
	index := BuildCountryIndex(tracks)

	snap := Assemble(user, countries, cities, tracks, index)

	require.Len(t, snap.Aggregate.Countries, 2)
	assert.Equal(t, 1, snap.Aggregate.Countries[0].Rank)
	assert.Equal(t, "CA", snap.Aggregate.Countries[1].Code)
	assert.Equal(t, 2, snap.Aggregate.Countries[1].Rank)
	assert.Equal(t, 1, snap.Aggregate.Cities[0].Rank)

	// inputs untouched
	assert.Zero(t, countries[0].Rank)
	assert.Zero(t, cities[0].Rank)

	// no shared backing arrays
	tracks[0].Countries[0].Plays = 999
	index["US"].Tracks[0].Plays = 999
	user.Username = "changed"
	assert.Equal(t, int64(40), snap.Tracks[0].Countries[0].Plays)
	assert.Equal(t, int64(40), snap.CountryTracks["US"].Tracks[0].Plays)
	assert.Equal(t, "artist", snap.User.Username)
}

func TestAssembleEmptyInputs(t *testing.T) {
	snap := Assemble(nil, nil, nil, nil, nil)
	assert.Nil(t, snap.User)
	assert.NotNil(t, snap.Aggregate.Countries)
	assert.NotNil(t, snap.Aggregate.Cities)
	assert.NotNil(t, snap.Tracks)
	assert.NotNil(t, snap.CountryTracks)
	assert.True(t, snap.IsEmpty())
}

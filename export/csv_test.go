package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"soundmap/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteAll(dir, Data{
		Countries: []model.CountryStat{{Rank: 7, Name: "Korea, Republic of", Code: "KR", Plays: 12}},
		Cities:    []model.CityStat{{Name: "Seoul", Country: "Korea, Republic of", CountryCode: "KR", Plays: 5}},
		Tracks: []model.Track{
			{Title: `say "hi"`, Plays: 30, URL: "https://soundcloud.com/a/hi", CreatedAt: "2024-03-01T10:00:00Z"},
			{Title: "no date", Plays: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, paths, 3)

	assert.Equal(t, [][]string{
		{"rank", "country", "country_code", "plays"},
		{"1", "Korea, Republic of", "KR", "12"},
	}, readCSV(t, filepath.Join(dir, CountriesFile)), "rank comes from list position")

	assert.Equal(t, [][]string{
		{"rank", "city", "country", "country_code", "plays"},
		{"1", "Seoul", "Korea, Republic of", "KR", "5"},
	}, readCSV(t, filepath.Join(dir, CitiesFile)))

	assert.Equal(t, [][]string{
		{"rank", "title", "plays", "url", "created_at"},
		{"1", `say "hi"`, "30", "https://soundcloud.com/a/hi", "2024-03-01"},
		{"2", "no date", "2", "", ""},
	}, readCSV(t, filepath.Join(dir, TracksFile)))
}

func TestWriteAllEmpty(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteAll(dir, Data{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"rank", "title", "plays", "url", "created_at"}},
		readCSV(t, filepath.Join(dir, TracksFile)))
}

func TestFromSnapshot(t *testing.T) {
	s := model.EmptySnapshot()
	s.Tracks = []model.TrackGeo{model.NewTrackGeo(model.Track{Title: "a", Plays: 1}, nil, nil)}
	s.Aggregate.Countries = []model.CountryStat{{Name: "Japan", Code: "JP", Plays: 1}}

	d := FromSnapshot(s)
	assert.Equal(t, []model.Track{{Title: "a", Plays: 1}}, d.Tracks)
	assert.Len(t, d.Countries, 1)
	assert.Empty(t, d.Cities)
}

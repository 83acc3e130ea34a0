package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"soundmap/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRecordingAggregator(src Source, cooldown time.Duration) (*GeoAggregator, *[]string) {
	g := NewGeoAggregator(src, cooldown, zap.NewNop())
	fs := src.(*fakeSource)
	g.sleep = func(ctx context.Context, d time.Duration) error {
		fs.record("sleep:" + d.String())
		return ctx.Err()
	}
	return g, &fs.calls
}

func TestCollectPerTrackHonorsCapAndCooldown(t *testing.T) {
	src := newFixtureSource()
	g, calls := newRecordingAggregator(src, 300*time.Millisecond)

	tracks := []model.Track{
		{URN: "soundcloud:tracks:1", Title: "one"},
		{URN: "soundcloud:tracks:2", Title: "two"},
		{URN: "soundcloud:tracks:3", Title: "three"},
	}
	out, report, err := g.CollectPerTrack(context.Background(), tracks, "DAYS_30", 50, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 2, report.Processed)

	assert.Equal(t, []string{
		"countries:soundcloud:tracks:1", "sleep:300ms", "cities:soundcloud:tracks:1",
		"sleep:300ms",
		"countries:soundcloud:tracks:2", "sleep:300ms", "cities:soundcloud:tracks:2",
	}, *calls)
}

func TestCollectPerTrackCooldownAppliesAfterFailures(t *testing.T) {
	src := newFixtureSource()
	src.countryErrs["soundcloud:tracks:1"] = errors.New("boom")
	src.cityErrs["soundcloud:tracks:1"] = errors.New("boom")
	g, calls := newRecordingAggregator(src, time.Second)

	tracks := []model.Track{{URN: "soundcloud:tracks:1"}, {URN: "soundcloud:tracks:2"}}
	out, report, err := g.CollectPerTrack(context.Background(), tracks, "DAYS_30", 50, 20)
	require.NoError(t, err)

	assert.Equal(t, 1, report.CountryFailures)
	assert.Equal(t, 1, report.CityFailures)
	assert.Empty(t, out[0].Countries)
	assert.Empty(t, out[0].Cities)
	assert.NotEmpty(t, out[1].Countries)

	sleeps := 0
	for _, c := range *calls {
		if c == "sleep:1s" {
			sleeps++
		}
	}
	assert.Equal(t, 3, sleeps)
}

func TestFetchPerTrackKeepsCountriesWhenCitiesFail(t *testing.T) {
	src := newFixtureSource()
	src.cityErrs["soundcloud:tracks:1"] = errors.New("city backend down")
	g, _ := newRecordingAggregator(src, 0)

	res, err := g.FetchPerTrack(context.Background(), "soundcloud:tracks:1", "DAYS_30", 50)
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.NoError(t, res.CountriesErr)
	assert.ErrorIs(t, res.CitiesErr, ErrTransport)
	assert.Equal(t, []model.CountryStat{{Name: "United States", Code: "US", Plays: 40}}, res.Countries)
	assert.Equal(t, []model.CityStat{}, res.Cities)
}

func TestFetchAggregateToleratesEitherHalf(t *testing.T) {
	src := newFixtureSource()
	src.countryErrs[""] = errors.New("nope")
	g, _ := newRecordingAggregator(src, 0)

	res := g.FetchAggregate(context.Background(), "DAYS_30", 50)
	assert.Error(t, res.CountriesErr)
	assert.Empty(t, res.Countries)
	assert.Len(t, res.Cities, 2)
	assert.Equal(t, "US", res.Cities[0].CountryCode)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "日本", truncate("日本語", 2))
}

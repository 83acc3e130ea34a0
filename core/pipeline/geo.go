package pipeline

import (
	"context"
	"time"

	"soundmap/metrics"
	"soundmap/model"

	"go.uber.org/zap"
)

// GeoResult holds one country/city breakdown pair. A half whose fetch failed
// is an empty list and carries its error.
type GeoResult struct {
	Countries    []model.CountryStat
	Cities       []model.CityStat
	CountriesErr error
	CitiesErr    error
}

// Failed reports whether either half had to be recorded empty.
func (r GeoResult) Failed() bool {
	return r.CountriesErr != nil || r.CitiesErr != nil
}

// PerTrackReport summarizes a CollectPerTrack pass.
type PerTrackReport struct {
	Processed       int
	CountryFailures int
	CityFailures    int
}

// GeoAggregator fetches account-wide and per-track geo breakdowns.
//
// Per-track requests are issued strictly one after another with a fixed
// cooldown between consecutive calls, whether or not the previous call
// succeeded. This is a courtesy to the remote rate limits, not a backoff.
type GeoAggregator struct {
	src      Source
	cooldown time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewGeoAggregator(src Source, cooldown time.Duration, logger *zap.Logger) *GeoAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeoAggregator{
		src:      src,
		cooldown: cooldown,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// SetMetrics 设置失败计数指标
func (g *GeoAggregator) SetMetrics(m *metrics.Metrics) {
	g.metrics = m
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FetchAggregate returns the account-wide breakdowns (no track URN).
func (g *GeoAggregator) FetchAggregate(ctx context.Context, window string, limit int) GeoResult {
	res := g.fetchCountries(ctx, window, limit, "")
	cities, err := g.fetchCities(ctx, window, limit, "")
	res.Cities, res.CitiesErr = cities, err

	if res.CountriesErr != nil {
		g.logger.Warn("[GeoAggregator] aggregate countries unavailable", zap.Error(res.CountriesErr))
	}
	if res.CitiesErr != nil {
		g.logger.Warn("[GeoAggregator] aggregate cities unavailable", zap.Error(res.CitiesErr))
	}
	g.logger.Info("[GeoAggregator] fetched aggregate geo data",
		zap.Int("countries", len(res.Countries)),
		zap.Int("cities", len(res.Cities)))
	return res
}

// FetchPerTrack returns the breakdowns scoped to one track, pausing for the
// cooldown between the country and the city request.
func (g *GeoAggregator) FetchPerTrack(ctx context.Context, trackURN, window string, limit int) (GeoResult, error) {
	res := g.fetchCountries(ctx, window, limit, trackURN)
	if err := g.sleep(ctx, g.cooldown); err != nil {
		return res, err
	}
	cities, err := g.fetchCities(ctx, window, limit, trackURN)
	res.Cities, res.CitiesErr = cities, err
	return res, nil
}

// CollectPerTrack runs FetchPerTrack for the first limitTracks tracks. A failed
// half is recorded as an empty list and the pass continues. Only context
// cancellation stops it early.
func (g *GeoAggregator) CollectPerTrack(ctx context.Context, tracks []model.Track, window string, limit, limitTracks int) ([]model.TrackGeo, PerTrackReport, error) {
	selected := tracks
	if limitTracks >= 0 && len(selected) > limitTracks {
		selected = selected[:limitTracks]
	}

	var report PerTrackReport
	out := make([]model.TrackGeo, 0, len(selected))
	for i, t := range selected {
		if i > 0 {
			if err := g.sleep(ctx, g.cooldown); err != nil {
				return out, report, err
			}
		}

		res, err := g.FetchPerTrack(ctx, t.URN, window, limit)
		if err != nil {
			return out, report, err
		}
		report.Processed++
		if res.CountriesErr != nil {
			report.CountryFailures++
			g.metrics.ObservePerTrackFailure("countries")
			g.logger.Warn("[GeoAggregator] per-track countries recorded empty",
				zap.String("urn", t.URN), zap.Error(res.CountriesErr))
		}
		if res.CitiesErr != nil {
			report.CityFailures++
			g.metrics.ObservePerTrackFailure("cities")
			g.logger.Warn("[GeoAggregator] per-track cities recorded empty",
				zap.String("urn", t.URN), zap.Error(res.CitiesErr))
		}

		g.logger.Info("[GeoAggregator] track geo fetched",
			zap.Int("index", i+1),
			zap.Int("of", len(selected)),
			zap.String("title", truncate(t.Title, 35)),
			zap.Int("countries", len(res.Countries)),
			zap.Int("cities", len(res.Cities)))

		out = append(out, model.NewTrackGeo(t, res.Countries, res.Cities))
	}
	return out, report, nil
}

func (g *GeoAggregator) fetchCountries(ctx context.Context, window string, limit int, trackURN string) GeoResult {
	items, err := g.src.TopCountries(ctx, window, limit, trackURN)
	if err != nil {
		return GeoResult{Countries: []model.CountryStat{}, CountriesErr: transportError("fetch countries", err)}
	}
	countries := make([]model.CountryStat, 0, len(items))
	for _, item := range items {
		countries = append(countries, item.ToCountryStat())
	}
	return GeoResult{Countries: countries}
}

func (g *GeoAggregator) fetchCities(ctx context.Context, window string, limit int, trackURN string) ([]model.CityStat, error) {
	items, err := g.src.TopCities(ctx, window, limit, trackURN)
	if err != nil {
		return []model.CityStat{}, transportError("fetch cities", err)
	}
	cities := make([]model.CityStat, 0, len(items))
	for _, item := range items {
		cities = append(cities, item.ToCityStat())
	}
	return cities, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Package metrics holds the Prometheus collectors shared by the collector and the query server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Remote insights source
	RemoteRequestsTotal   *prometheus.CounterVec
	RemoteRequestDuration *prometheus.HistogramVec

	// Pipeline
	PipelineRunsTotal      *prometheus.CounterVec
	PerTrackFailuresTotal  *prometheus.CounterVec
	SnapshotTracks         prometheus.Gauge
	SnapshotCountries      prometheus.Gauge
	SnapshotCities         prometheus.Gauge
	SnapshotLoadedAtSecond prometheus.Gauge

	// Query API
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CacheHitsTotal      *prometheus.CounterVec
	CacheMissesTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RemoteRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soundmap_remote_requests_total",
				Help: "Insights GraphQL requests by query kind and outcome",
			},
			[]string{"query", "outcome"},
		),
		RemoteRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "soundmap_remote_request_duration_seconds",
				Help:    "Insights GraphQL request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		PipelineRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soundmap_pipeline_runs_total",
				Help: "Collector runs by result",
			},
			[]string{"result"},
		),
		PerTrackFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soundmap_per_track_failures_total",
				Help: "Per-track geo fetches recorded empty after a failure",
			},
			[]string{"breakdown"},
		),
		SnapshotTracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "soundmap_snapshot_tracks",
			Help: "Tracks in the active snapshot",
		}),
		SnapshotCountries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "soundmap_snapshot_countries",
			Help: "Aggregate countries in the active snapshot",
		}),
		SnapshotCities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "soundmap_snapshot_cities",
			Help: "Aggregate cities in the active snapshot",
		}),
		SnapshotLoadedAtSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "soundmap_snapshot_loaded_timestamp_seconds",
			Help: "Unix time the active snapshot was published",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soundmap_http_requests_total",
				Help: "Query API requests",
			},
			[]string{"route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "soundmap_http_request_duration_seconds",
				Help:    "Query API latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soundmap_cache_hits_total",
				Help: "Response cache hits",
			},
			[]string{"route"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soundmap_cache_misses_total",
				Help: "Response cache misses",
			},
			[]string{"route"},
		),
	}

	reg.MustRegister(
		m.RemoteRequestsTotal, m.RemoteRequestDuration,
		m.PipelineRunsTotal, m.PerTrackFailuresTotal,
		m.SnapshotTracks, m.SnapshotCountries, m.SnapshotCities, m.SnapshotLoadedAtSecond,
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.CacheHitsTotal, m.CacheMissesTotal,
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRemote(query, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RemoteRequestsTotal.WithLabelValues(query, outcome).Inc()
	m.RemoteRequestDuration.WithLabelValues(query).Observe(d.Seconds())
}

func (m *Metrics) ObservePipelineRun(result string) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObservePerTrackFailure(breakdown string) {
	if m == nil {
		return
	}
	m.PerTrackFailuresTotal.WithLabelValues(breakdown).Inc()
}

// SetSnapshot records the size of the snapshot now being served.
func (m *Metrics) SetSnapshot(tracks, countries, cities int) {
	if m == nil {
		return
	}
	m.SnapshotTracks.Set(float64(tracks))
	m.SnapshotCountries.Set(float64(countries))
	m.SnapshotCities.Set(float64(cities))
	m.SnapshotLoadedAtSecond.SetToCurrentTime()
}

func (m *Metrics) ObserveHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveCache(route string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(route).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(route).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format, for
// one-shot collector runs that nothing scrapes.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

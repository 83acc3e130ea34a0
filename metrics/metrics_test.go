package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRemote("Me", "ok", time.Millisecond)
		m.ObservePipelineRun("ok")
		m.ObservePerTrackFailure("cities")
		m.SetSnapshot(1, 2, 3)
		m.ObserveHTTP("/api/summary", 200, time.Millisecond)
		m.ObserveCache("summary", true)
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestHandlerExposesRecordedValues(t *testing.T) {
	m := NewMetrics()
	m.ObservePipelineRun("sink_error")
	m.ObserveCache("tracks", true)
	m.ObserveCache("tracks", false)
	m.ObserveCache("tracks", false)
	m.SetSnapshot(20, 40, 50)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `soundmap_pipeline_runs_total{result="sink_error"} 1`)
	assert.Contains(t, body, `soundmap_cache_hits_total{route="tracks"} 1`)
	assert.Contains(t, body, `soundmap_cache_misses_total{route="tracks"} 2`)
	assert.Contains(t, body, "soundmap_snapshot_cities 50")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.ObservePipelineRun("ok")

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "soundmap_pipeline_runs_total", f.GetName())
	}
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObservePerTrackFailure("countries")
	path := filepath.Join(t.TempDir(), "soundmap.prom")

	require.NoError(t, m.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `soundmap_per_track_failures_total{breakdown="countries"} 1`)
}

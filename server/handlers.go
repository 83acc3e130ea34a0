package server

import (
	"errors"
	"net/http"

	"soundmap/cache"
	"soundmap/core/query"
	"soundmap/logger"
	"soundmap/metrics"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// APIHandler 处理所有只读查询 API
type APIHandler struct {
	svc     *query.Service
	cache   *cache.ResponseCache
	metrics *metrics.Metrics
}

// NewAPIHandler 创建新的API处理器；respCache 可以为 nil
func NewAPIHandler(svc *query.Service, respCache *cache.ResponseCache, m *metrics.Metrics) *APIHandler {
	return &APIHandler{svc: svc, cache: respCache, metrics: m}
}

// errorResponse 统一的错误响应体
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("[API] encode response failed", logger.ErrorField(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// queryFunc 计算一个响应；返回 query.ErrNotFound 时写 404
type queryFunc func(r *http.Request) (interface{}, error)

// serve wraps a query with the response cache. Only successful responses are
// cached, keyed by the active snapshot so a reload never serves stale data.
func (h *APIHandler) serve(route, notFound string, fn queryFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		snapshotID := h.svc.SnapshotID()

		if h.cache.Enabled() {
			if body, hit, _ := h.cache.Get(ctx, snapshotID, r.URL.Path); hit {
				h.metrics.ObserveCache(route, true)
				w.Header().Set("X-Cache", "HIT")
				writeBody(w, http.StatusOK, body)
				return
			}
			h.metrics.ObserveCache(route, false)
		}

		v, err := fn(r)
		if err != nil {
			if errors.Is(err, query.ErrNotFound) {
				logger.Debug("[API] lookup miss", logger.String("path", r.URL.Path), logger.ErrorField(err))
				writeError(w, http.StatusNotFound, notFound)
				return
			}
			logger.Error("[API] query failed", logger.String("path", r.URL.Path), logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		body, err := json.Marshal(v)
		if err != nil {
			logger.Error("[API] encode response failed", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if h.cache.Enabled() {
			_ = h.cache.Set(ctx, snapshotID, r.URL.Path, body)
		}
		writeBody(w, http.StatusOK, body)
	}
}

// SummaryHandler GET /api/summary
func (h *APIHandler) SummaryHandler() http.HandlerFunc {
	return h.serve("summary", "", func(r *http.Request) (interface{}, error) {
		return h.svc.Summary(), nil
	})
}

// TracksHandler GET /api/tracks
func (h *APIHandler) TracksHandler() http.HandlerFunc {
	return h.serve("tracks", "", func(r *http.Request) (interface{}, error) {
		return h.svc.AllTracks(), nil
	})
}

// TrackHandler GET /api/track/{id}
func (h *APIHandler) TrackHandler() http.HandlerFunc {
	return h.serve("track", "Track not found", func(r *http.Request) (interface{}, error) {
		return h.svc.TrackByURN(mux.Vars(r)["id"])
	})
}

// CountriesHandler GET /api/countries
func (h *APIHandler) CountriesHandler() http.HandlerFunc {
	return h.serve("countries", "", func(r *http.Request) (interface{}, error) {
		return h.svc.AllCountries(), nil
	})
}

// CountryHandler GET /api/country/{code}
func (h *APIHandler) CountryHandler() http.HandlerFunc {
	return h.serve("country", "Country not found", func(r *http.Request) (interface{}, error) {
		return h.svc.CountryDetail(mux.Vars(r)["code"])
	})
}

// CountryCitiesHandler GET /api/country/{code}/cities
func (h *APIHandler) CountryCitiesHandler() http.HandlerFunc {
	return h.serve("country_cities", "", func(r *http.Request) (interface{}, error) {
		return h.svc.CitiesOfCountry(mux.Vars(r)["code"]), nil
	})
}

// CitiesHandler GET /api/cities
func (h *APIHandler) CitiesHandler() http.HandlerFunc {
	return h.serve("cities", "", func(r *http.Request) (interface{}, error) {
		return h.svc.AllCities(), nil
	})
}

// MapDataHandler GET /api/map-data
func (h *APIHandler) MapDataHandler() http.HandlerFunc {
	return h.serve("map_data", "", func(r *http.Request) (interface{}, error) {
		return h.svc.MapData(), nil
	})
}

// HealthHandler GET /healthz
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	sum := h.svc.Summary()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"has_data":    sum.HasData,
		"snapshot_id": sum.SnapshotID,
	})
}

package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soundmap/cache"
	"soundmap/config"
	"soundmap/core/query"
	"soundmap/logger"
	"soundmap/metrics"
	"soundmap/repository"

	"github.com/gorilla/mux"
)

// Server 只读查询 API 服务
type Server struct {
	cfg       *config.Config
	svc       *query.Service
	api       *APIHandler
	hub       *Hub
	reloader  *Reloader
	metrics   *metrics.Metrics
	watchFile string // 为空时不监听
}

// New 组装服务；repo 是快照的读取来源，respCache 可以为 nil
func New(cfg *config.Config, svc *query.Service, repo repository.SnapshotRepository, respCache *cache.ResponseCache, m *metrics.Metrics) *Server {
	hub := NewHub()
	s := &Server{
		cfg:      cfg,
		svc:      svc,
		api:      NewAPIHandler(svc, respCache, m),
		hub:      hub,
		reloader: NewReloader(repo, svc, hub, m),
		metrics:  m,
	}
	if cfg.SnapshotWatch && repo.Name() == config.BackendFile {
		s.watchFile = cfg.SnapshotPath
	}
	return s
}

// Router 返回完整路由，测试直接使用
func (s *Server) Router() http.Handler {
	return NewRouter(s.api, s.hub, s.metrics)
}

// NewRouter 注册所有路由。CORS 包在路由器外层，方法不匹配的预检请求同样经过它。
func NewRouter(api *APIHandler, hub *Hub, m *metrics.Metrics) http.Handler {
	router := mux.NewRouter()

	r := router.PathPrefix("/api").Subrouter()
	r.Use(metricsMiddleware(m))
	r.HandleFunc("/summary", api.SummaryHandler()).Methods(http.MethodGet)
	r.HandleFunc("/tracks", api.TracksHandler()).Methods(http.MethodGet)
	r.HandleFunc("/track/{id}", api.TrackHandler()).Methods(http.MethodGet)
	r.HandleFunc("/countries", api.CountriesHandler()).Methods(http.MethodGet)
	r.HandleFunc("/country/{code}", api.CountryHandler()).Methods(http.MethodGet)
	r.HandleFunc("/country/{code}/cities", api.CountryCitiesHandler()).Methods(http.MethodGet)
	r.HandleFunc("/cities", api.CitiesHandler()).Methods(http.MethodGet)
	r.HandleFunc("/map-data", api.MapDataHandler()).Methods(http.MethodGet)

	router.HandleFunc("/healthz", api.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	if hub != nil {
		router.HandleFunc("/ws/snapshots", hub.ServeWS)
	}
	return corsMiddleware(router)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder 记录响应状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware 按路由模板而不是原始路径打点
func metricsMiddleware(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.ObserveHTTP(route, rec.status, time.Since(start))
		})
	}
}

// Start 启动服务，收到 SIGINT/SIGTERM 后优雅关闭
func (s *Server) Start() error {
	httpServer := &http.Server{
		Addr:         ":" + s.cfg.ServerPort,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.hub.Run()
	defer s.hub.Stop()

	if s.watchFile != "" {
		go func() {
			if err := s.reloader.WatchFile(ctx, s.watchFile); err != nil {
				logger.Warn("[Server] snapshot watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		sum := s.svc.Summary()
		logger.Info("[Server] starting",
			logger.String("addr", httpServer.Addr),
			logger.Bool("hasData", sum.HasData),
			logger.String("snapshotId", sum.SnapshotID))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	logger.Info("[Server] shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("[Server] stopped")
	return nil
}

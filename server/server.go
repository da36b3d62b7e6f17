package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"golang.org/x/time/rate"

	"github.com/umputun/skyfeed/pkg/domain"
	"github.com/umputun/skyfeed/pkg/feed"
	"github.com/umputun/skyfeed/pkg/metrics"
)

//go:generate moq -out mocks/snapshot_store.go -pkg mocks -skip-ensure -fmt goimports . SnapshotStore
//go:generate moq -out mocks/refresher.go -pkg mocks -skip-ensure -fmt goimports . Refresher

// Server represents HTTP server instance
type Server struct {
	cfg       Config
	snapshots SnapshotStore
	refresher Refresher
	rss       *feed.Generator
	live      *rate.Limiter
	version   string
	debug     bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// SnapshotStore gives access to the stored feed documents
type SnapshotStore interface {
	Latest(ctx context.Context) (*domain.Snapshot, error)
	Get(ctx context.Context, id int64) (*domain.Snapshot, error)
	List(ctx context.Context, limit int) ([]domain.Snapshot, error)
}

// Refresher runs the pipeline on demand
type Refresher interface {
	RefreshNow(ctx context.Context) (*domain.Snapshot, error)
	LastStatus() domain.RunStatus
}

// Config of the http server
type Config struct {
	Listen          string
	Timeout         time.Duration
	BaseURL         string
	CacheMaxAge     time.Duration // Cache-Control max-age of feed responses
	LiveMinInterval time.Duration // minimal interval between on-demand pipeline runs
}

// New initializes a new server instance
func New(cfg Config, snapshots SnapshotStore, refresher Refresher, version string, debug bool) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheMaxAge <= 0 {
		cfg.CacheMaxAge = 5 * time.Minute
	}
	if cfg.LiveMinInterval <= 0 {
		cfg.LiveMinInterval = 30 * time.Second
	}
	s := &Server{
		cfg:       cfg,
		snapshots: snapshots,
		refresher: refresher,
		rss:       feed.NewGenerator(cfg.BaseURL),
		live:      rate.NewLimiter(rate.Every(cfg.LiveMinInterval), 1),
		version:   version,
		debug:     debug,
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	lgr.Printf("[INFO] starting server on %s", s.cfg.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Timeout,
		ReadTimeout:       s.cfg.Timeout,
		// on-demand runs make two upstream calls inside the request
		WriteTimeout: 2 * s.cfg.Timeout,
	}
	srv := s.httpServer
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler { return s.router }

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("skyfeed", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024)) // only GETs, nothing to upload
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /feed", s.feedHandler)
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /snapshots", s.snapshotsHandler)
		r.HandleFunc("GET /snapshots/{id}", s.snapshotHandler)
	})

	// same document under a static-file path, for blogs pointing at a file
	s.router.HandleFunc("GET /feed.json", s.feedHandler)
	s.router.HandleFunc("GET /rss", s.rssHandler)
	s.router.Handle("GET /metrics", metrics.Handler())
}

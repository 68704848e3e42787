package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/logtower/pkg/buildinfo"
	"github.com/matzehuels/logtower/pkg/graph"
	"github.com/matzehuels/logtower/pkg/observability"
	"github.com/matzehuels/logtower/pkg/pipeline"
	"github.com/matzehuels/logtower/pkg/session"
)

const (
	maxBodyBytes    = 1 << 20
	cleanupInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

// Config configures a [Server].
type Config struct {
	// Log is the commit log every session is opened on. Required.
	Log *graph.Log

	// Defaults seed the options of new sessions and focus orders.
	Defaults pipeline.Options

	// Runner computes and caches focus orders and renders. Nil uses a
	// runner without cache.
	Runner *pipeline.Runner

	// Store holds live sessions. Nil uses a MemoryStore with the default TTL.
	Store session.Store

	Logger *log.Logger
}

// Server is the HTTP API over one commit log.
type Server struct {
	log      *graph.Log
	logHash  string
	defaults pipeline.Options
	runner   *pipeline.Runner
	store    session.Store
	logger   *log.Logger
	router   chi.Router
}

// New validates cfg and builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Log == nil {
		return nil, stderrors.New("api: config has no log")
	}
	if err := cfg.Log.Validate(); err != nil {
		return nil, err
	}
	hash, err := pipeline.LogHash(cfg.Log)
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Store == nil {
		cfg.Store = session.NewMemoryStore(0)
	}
	s := &Server{
		log:      cfg.Log,
		logHash:  hash,
		defaults: cfg.Defaults,
		runner:   cfg.Runner,
		store:    cfg.Store,
		logger:   cfg.Logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/log", s.handleLog)
	r.Get("/refs", s.handleRefs)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/rows", s.handleRows)
			r.Get("/rows/{row}", s.handleRow)
			r.Put("/branches", s.handleSetBranches)
			r.Put("/filter", s.handleSetFilter)
			r.Post("/actions", s.handleAction)
			r.Get("/containing", s.handleContaining)
			r.Post("/containing", s.handleContainingBatch)
			r.Get("/focus", s.handleFocus)
			r.Get("/dot", s.handleDOT)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully. Expired sessions are swept in the background.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr, "commits", len(s.log.Commits))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := s.store.Cleanup(ctx); err != nil {
					s.logger.Warn("session cleanup failed", "error", err)
				}
			}
		}
	})
	return g.Wait()
}

// observe logs every request and reports it to the API hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.API()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		w.Header().Set("Server", buildinfo.UserAgent())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Package engine exposes the metadata command catalog over HTTP. A single
// POST endpoint accepts {type, args} requests and routes them through the
// dispatcher; companion endpoints publish the catalog and report health.
package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gscho/graphql-engine/internal/metadata"
	"github.com/gscho/graphql-engine/pkg/command"
	"github.com/gscho/graphql-engine/pkg/health"
	"github.com/gscho/graphql-engine/pkg/logger"
)

// Server is the HTTP front of the metadata command catalog.
type Server struct {
	dispatcher *command.Dispatcher
	catalog    *command.Catalog
	store      *metadata.Store
	logger     *logger.Logger
	health     *health.Checker
	router     *mux.Router
	httpServer *http.Server
}

// Options carries the dependencies a Server needs.
type Options struct {
	Addr    string
	Catalog *command.Catalog
	Store   *metadata.Store
	Logger  *logger.Logger
	Health  *health.Checker
}

// NewServer wires the routes and returns a server ready to Start.
func NewServer(opts Options) *Server {
	s := &Server{
		dispatcher: command.NewDispatcher(opts.Catalog, opts.Store),
		catalog:    opts.Catalog,
		store:      opts.Store,
		logger:     opts.Logger,
		health:     opts.Health,
		router:     mux.NewRouter(),
	}
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Router returns the underlying router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debugf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
		})
	})
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/metadata", s.handleMetadata).Methods(http.MethodPost)
	v1.HandleFunc("/metadata/commands", s.handleCommands).Methods(http.MethodGet)
	v1.HandleFunc("/metadata/export", s.handleExport).Methods(http.MethodGet)
}

// Start serves until the context is cancelled, then drains in-flight
// requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

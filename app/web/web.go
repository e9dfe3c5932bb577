// Package web implements the JSON API server for the tracker. All state
// access goes through the service layer, handlers never touch the store
// directly.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"golang.org/x/crypto/bcrypt"

	"github.com/apptrack/apptrack/app/service"
)

// mutateLimiter caps the rate of mutating requests, plenty for a single
// user and a guard against a runaway client
var mutateLimiter = tollbooth.NewLimiter(50, nil)

// Server represents the API server
type Server struct {
	tracker      *service.Tracker
	version      string
	dbPath       string // for the disk usage report in /status
	passwordHash string // bcrypt hash for basic auth, empty disables auth
	startTime    time.Time
}

// Config holds server configuration
type Config struct {
	Tracker      *service.Tracker
	Version      string
	DBPath       string
	PasswordHash string // bcrypt hash for basic auth (empty to disable)
}

// New creates a new API server
func New(cfg Config) (*Server, error) {
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("web server initialization failed: Tracker is required")
	}
	return &Server{
		tracker:      cfg.Tracker,
		version:      cfg.Version,
		dbPath:       cfg.DBPath,
		passwordHash: cfg.PasswordHash,
		startTime:    time.Now(),
	}, nil
}

// Run starts the server and blocks until the context is canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting api server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	// global middleware - applied to all routes
	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(100),
		rest.AppInfo("apptrack", "apptrack", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(1024*1024), // 1MB covers the largest csv import
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	if s.passwordHash != "" {
		log.Printf("[INFO] authentication enabled for api")
		router.Use(s.authMiddleware)
	}

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)

		api.HandleFunc("GET /applications", s.handleListApplications)
		api.HandleFunc("GET /applications/{id}", s.handleGetApplication)
		api.HandleFunc("GET /stats", s.handleStats)
		api.HandleFunc("GET /trend", s.handleTrend)
		api.HandleFunc("GET /export", s.handleExport)
		api.HandleFunc("GET /theme", s.handleGetTheme)
		api.HandleFunc("GET /onboarding", s.handleGetOnboarding)
		api.HandleFunc("GET /status", s.handleStatus)
		api.HandleFunc("GET /schema", s.handleSchema)

		// mutating endpoints get the rate limit on top
		api.With(tollbooth.HTTPMiddleware(mutateLimiter)).Route(func(mut *routegroup.Bundle) {
			mut.HandleFunc("POST /applications", s.handleCreateApplication)
			mut.HandleFunc("PUT /applications/{id}", s.handleUpdateApplication)
			mut.HandleFunc("DELETE /applications/{id}", s.handleDeleteApplication)
			mut.HandleFunc("POST /undo", s.handleUndo)
			mut.HandleFunc("POST /import", s.handleImport)
			mut.HandleFunc("PUT /theme", s.handleSetTheme)
			mut.HandleFunc("PUT /onboarding", s.handleSetOnboarding)
		})
	})

	return router
}

// authMiddleware enforces basic auth against the configured bcrypt hash.
// The username is ignored, this is a single-user system.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, password, ok := r.BasicAuth()
		if !ok || bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="apptrack"`)
			s.writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}

// Package server provides the HTTP control API for the abhinaya hands-free
// control system.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/abhinaya/internal/action"
	"github.com/ayusman/abhinaya/internal/server/api"
	"github.com/ayusman/abhinaya/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Engine    api.Controller
	Actions   *action.Registry
	Events    *EventsHandler
}

// Server represents the HTTP control server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		bindingHandler := api.NewBindingHandler(s.config.Store, s.config.Actions)
		s.mux.Handle("/api/bindings", bindingHandler)
		s.mux.Handle("/api/bindings/", bindingHandler)

		s.mux.Handle("/api/history", api.NewHistoryHandler(s.config.Store))

		settingsHandler := api.NewSettingsHandler(s.config.Store)
		s.mux.Handle("/api/settings", settingsHandler)
		s.mux.Handle("/api/settings/", settingsHandler)
	}

	if s.config.Actions != nil {
		s.mux.Handle("/api/actions", api.NewActionsHandler(s.config.Actions))
	}

	if s.config.Engine != nil {
		engineHandler := api.NewEngineHandler(s.config.Engine)
		s.mux.Handle("/api/engine", engineHandler)
		s.mux.Handle("/api/engine/", engineHandler)
	}

	if s.config.Events != nil {
		s.mux.Handle("/api/events", s.config.Events)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

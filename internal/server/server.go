package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rnarayan/hueshift/internal/server/api"
	"github.com/rnarayan/hueshift/internal/store"
	"github.com/rnarayan/hueshift/internal/ui"
)

// Config holds the server configuration. Nil fields disable the
// corresponding endpoints.
type Config struct {
	Store  *store.Store
	Frames *FrameBuffer
	Events *ui.Queue
}

// Server represents the HTTP control and monitoring server.
type Server struct {
	config  Config
	mux     *http.ServeMux
	control *ControlHandler
	start   time.Time
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

	// Register session API handlers if Store is configured
	if s.config.Store != nil {
		sessionHandler := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessionHandler)
		s.mux.Handle("/api/sessions/", sessionHandler)
	}

	// Register stream endpoint if a frame buffer is configured
	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	// Register the WebSocket control endpoint if an event queue is configured
	if s.config.Events != nil {
		s.control = NewControlHandler(s.config.Events)
		s.mux.Handle("/api/control", s.control)
	}
}

// Control returns the WebSocket control handler, or nil when no event
// queue was configured.
func (s *Server) Control() *ControlHandler {
	return s.control
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

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
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

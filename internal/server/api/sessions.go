// Package api provides HTTP API handlers for the HueShift tracker.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rnarayan/hueshift/internal/store"
)

// SessionHandler handles HTTP requests for recorded tracking sessions.
// Sessions are produced by the tracker itself, so the API is read-only
// apart from deletion.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// the appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/sessions, /api/sessions/{id},
	// /api/sessions/{id}/points
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/sessions
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/points"); ok {
		switch r.Method {
		case http.MethodGet:
			h.points(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/sessions/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Response types

type selectionResponse struct {
	ID        string `json:"id"`
	X0        int    `json:"x0"`
	Y0        int    `json:"y0"`
	X1        int    `json:"x1"`
	Y1        int    `json:"y1"`
	CreatedAt string `json:"created_at"`
}

type sessionResponse struct {
	ID         string              `json:"id"`
	Source     string              `json:"source"`
	StartedAt  string              `json:"started_at"`
	EndedAt    string              `json:"ended_at,omitempty"`
	Selections []selectionResponse `json:"selections,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type trackPointResponse struct {
	SelectionID string  `json:"selection_id"`
	FrameIndex  int     `json:"frame_index"`
	CenterX     float64 `json:"center_x"`
	CenterY     float64 `json:"center_y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Angle       float64 `json:"angle"`
}

type listTrackPointsResponse struct {
	Points []trackPointResponse `json:"points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// toSessionResponse converts a store.Session to a sessionResponse.
func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		Source:    s.Source,
		StartedAt: s.StartedAt.Format(timeFormat),
	}
	if !s.EndedAt.IsZero() {
		resp.EndedAt = s.EndedAt.Format(timeFormat)
	}
	return resp
}

func toSelectionResponse(sel *store.Selection) selectionResponse {
	return selectionResponse{
		ID:        sel.ID,
		X0:        sel.Box.Min.X,
		Y0:        sel.Box.Min.Y,
		X1:        sel.Box.Max.X,
		Y1:        sel.Box.Max.Y,
		CreatedAt: sel.CreatedAt.Format(timeFormat),
	}
}

func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	resp := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	resp := toSessionResponse(sess)

	selections, err := h.store.Selections().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load selections")
		return
	}
	for _, sel := range selections {
		resp.Selections = append(resp.Selections, toSelectionResponse(sel))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) points(w http.ResponseWriter, r *http.Request, id string) {
	// Verify the session exists so a missing session is a 404, not an
	// empty list.
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	selections, err := h.store.Selections().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load selections")
		return
	}

	resp := listTrackPointsResponse{Points: []trackPointResponse{}}
	for _, sel := range selections {
		points, err := h.store.TrackPoints().ListBySelection(sel.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load track points")
			return
		}
		for _, p := range points {
			resp.Points = append(resp.Points, trackPointResponse{
				SelectionID: p.SelectionID,
				FrameIndex:  p.FrameIndex,
				CenterX:     p.CX,
				CenterY:     p.CY,
				Width:       p.Width,
				Height:      p.Height,
				Angle:       p.Angle,
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

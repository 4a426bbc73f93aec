package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rnarayan/hueshift/internal/track"
	"github.com/rnarayan/hueshift/internal/ui"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// controlMessage is an inbound command from a client: a click on the
// streamed feed or a key command.
type controlMessage struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Key  string `json:"key"`
}

// RegionUpdate is the outbound tracked-region notification.
type RegionUpdate struct {
	Frame   int     `json:"frame"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Angle   float64 `json:"angle"`
}

// ControlHandler bridges WebSocket clients and the tracker: inbound click
// and key messages become input events on the queue, and tracked-region
// updates are broadcast to every connected client.
type ControlHandler struct {
	events  *ui.Queue
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewControlHandler creates a ControlHandler pushing into the given queue.
func NewControlHandler(events *ui.Queue) *ControlHandler {
	return &ControlHandler{
		events:  events,
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests and reads client commands
// until the connection closes.
func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("malformed control message", "error", err)
			continue
		}

		switch msg.Type {
		case "click":
			h.events.Push(ui.Click(msg.X, msg.Y))
		case "key":
			if len(msg.Key) > 0 {
				h.events.Push(ui.Key(rune(msg.Key[0])))
			}
		default:
			slog.Warn("unknown control message type", "type", msg.Type)
		}
	}
}

// PublishRegion broadcasts a tracked-region update to all connected clients.
func (h *ControlHandler) PublishRegion(frameIndex int, region track.OrientedRect) {
	update := RegionUpdate{
		Frame:   frameIndex,
		CenterX: region.CenterX,
		CenterY: region.CenterY,
		Width:   region.Width,
		Height:  region.Height,
		Angle:   region.Angle,
	}

	msg, err := json.Marshal(update)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, msg)
	}
}

// ClientCount returns the number of connected control clients.
func (h *ControlHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

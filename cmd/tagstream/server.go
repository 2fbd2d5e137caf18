package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/lyzr/tagservice/common/logger"
)

const (
	maxTagIDLength = 128

	// adminRole in X-User-Role unlocks the all-tags stream and full event payloads
	adminRole = "admin"
)

// Server handles WebSocket upgrades and health checks
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewServer creates a new Server
func NewServer(hub *Hub, log *logger.Logger) *Server {
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Tag pages are served from other origins
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWebSocket)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// HandleWebSocket upgrades the connection and subscribes it to one tag,
// or to every tag when tag_id is omitted (admin only)
// GET /ws?tag_id=<id>
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	admin := strings.EqualFold(strings.TrimSpace(r.Header.Get("X-User-Role")), adminRole)

	topic := strings.TrimSpace(r.URL.Query().Get("tag_id"))
	if topic == "" {
		topic = AllTags
	}
	if len(topic) > maxTagIDLength {
		http.Error(w, "tag_id too long", http.StatusBadRequest)
		return
	}
	if topic == AllTags && !admin {
		http.Error(w, "admin role required", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, topic, admin)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// HandleHealth reports connection counts
// GET /health
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "ok",
		"connections": s.hub.GetConnectionCount(),
		"topics":      s.hub.GetTopicCount(),
	})
}

package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"pairchat/internal/room"
	wsocket "pairchat/internal/websocket"
	"pairchat/pkg/interfaces"
)

// Server exposes the HTTP surface: the WebSocket endpoint plus health and
// stats. Everything else about this product (notes, events, pairing flow)
// lives in other services.
type Server struct {
	router    *mux.Router
	wsHandler *wsocket.Handler
	broadcast *room.Router
	store     interfaces.MessageStore
	startedAt time.Time
}

// NewServer creates the HTTP server surface and registers all routes.
func NewServer(wsHandler *wsocket.Handler, broadcast *room.Router, store interfaces.MessageStore) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		wsHandler: wsHandler,
		broadcast: broadcast,
		store:     store,
		startedAt: time.Now(),
	}

	s.router.HandleFunc("/ws", s.wsHandler.HandleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/stats", s.handleStats).Methods("GET")

	return s
}

// ServeHTTP makes the server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth reports process and store health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := s.store.HealthCheck(ctx); err != nil {
		log.Printf("Health check failed: %v", err)
		status = "store unavailable"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"uptime": time.Since(s.startedAt).String(),
	})
}

// handleStats reports live room and connection counts.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.broadcast.Stats())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

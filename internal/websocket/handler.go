package websocket

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"pairchat/internal/session"
)

// upgrader holds shared WebSocket upgrade settings.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is delegated to the deployment's reverse proxy.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Handler upgrades HTTP requests and hands each connection to the session
// manager, which governs it end to end. Authentication happens after the
// upgrade so admission failures surface as close codes rather than HTTP
// errors; the client observes only a transport disconnect either way.
type Handler struct {
	sessions *session.Manager
	opts     Options
}

// NewHandler creates a new WebSocket handler.
func NewHandler(sessions *session.Manager, opts Options) *Handler {
	return &Handler{
		sessions: sessions,
		opts:     opts,
	}
}

// HandleWebSocket handles WebSocket connection requests. The bearer token
// arrives as a query parameter because browser WebSocket clients cannot
// set request headers.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	wsConn := NewConnection(conn, h.opts)

	// The upgrade hijacks the request, so the request context dies as
	// soon as this handler returns; the session gets its own context.
	go h.sessions.Run(context.Background(), wsConn, token)
}

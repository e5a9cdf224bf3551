package generation

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pratoshot/pratoshot-api/internal/middleware"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 16
)

// JobEvent is pushed to the owner's open sockets as a job progresses.
type JobEvent struct {
	JobID       string `json:"jobId"`
	Status      string `json:"status"`
	ImagesReady int    `json:"imagesReady"`
	Error       string `json:"error,omitempty"`
}

type connection struct {
	ws   *websocket.Conn
	send chan JobEvent
}

// Hub fans job progress events out to each user's websocket connections.
// A user may have several tabs open, so connections are tracked per user.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]map[*connection]bool
	upgrader    websocket.Upgrader
}

func NewHub(allowedOrigins []string) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Hub{
		connections: make(map[uuid.UUID]map[*connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin] || origins["*"]
			},
		},
	}
}

// ServeWS handles GET /ws. The auth middleware runs before this, so the
// user ID is already on the context.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := &connection{ws: ws, send: make(chan JobEvent, sendBufferSize)}
	h.register(userID, conn)

	go h.writePump(userID, conn)
	go h.readPump(userID, conn)
}

// Notify delivers an event to every open connection of the user. Slow
// consumers get dropped events rather than blocking the generator.
func (h *Hub) Notify(userID uuid.UUID, event JobEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections[userID] {
		select {
		case conn.send <- event:
		default:
			log.Warn().
				Str("user_id", userID.String()).
				Str("job_id", event.JobID).
				Msg("websocket send buffer full, event dropped")
		}
	}
}

// Close tears down every connection. Used on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.connections {
		for conn := range conns {
			conn.ws.Close()
		}
	}
	h.connections = make(map[uuid.UUID]map[*connection]bool)
}

func (h *Hub) register(userID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[userID] == nil {
		h.connections[userID] = make(map[*connection]bool)
	}
	h.connections[userID][conn] = true
}

func (h *Hub) unregister(userID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.connections[userID]; ok {
		if conns[conn] {
			delete(conns, conn)
			close(conn.send)
			if len(conns) == 0 {
				delete(h.connections, userID)
			}
		}
	}
}

func (h *Hub) readPump(userID uuid.UUID, conn *connection) {
	defer func() {
		h.unregister(userID, conn)
		conn.ws.Close()
	}()

	conn.ws.SetReadLimit(512)
	conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients do not send messages, the loop only detects disconnects.
	for {
		if _, _, err := conn.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(userID uuid.UUID, conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.ws.Close()
	}()

	for {
		select {
		case event, ok := <-conn.send:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.ws.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

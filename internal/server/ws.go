package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Fadzai-Ryan-Mboma/Customer-Support-Orchestrator/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced at the HTTP layer.
		return true
	},
}

// wsHub tracks connected websocket clients. Each inbound text frame is echoed
// back to its sender; Broadcast pushes a frame to every client.
type wsHub struct {
	logger *slog.Logger
	gauge  *metrics.Gauge

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func newWSHub(logger *slog.Logger, gauge *metrics.Gauge) *wsHub {
	return &wsHub{
		logger:  logger,
		gauge:   gauge,
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *wsHub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	if h.gauge != nil {
		h.gauge.Inc()
	}
	h.logger.Info("websocket client connected", "remote", r.RemoteAddr)

	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
		if h.gauge != nil {
			h.gauge.Dec()
		}
		conn.Close()
		h.logger.Info("websocket client disconnected", "remote", r.RemoteAddr)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("websocket read error", "error", err)
			}
			return
		}
		if err := client.write(append([]byte("Echo: "), message...)); err != nil {
			return
		}
	}
}

// Broadcast sends one text frame to every connected client.
func (h *wsHub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if err := client.write(data); err != nil {
			h.logger.Warn("websocket broadcast failed", "error", err)
		}
	}
}

// ClientCount reports the number of live connections.
func (h *wsHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

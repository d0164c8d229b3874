package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"echoloop/internal/domain"
	"echoloop/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsSubscriber adapts one WebSocket connection to the hub's contract.
// The write mutex keeps hub broadcasts and pong replies from
// interleaving on the wire.
type wsSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSubscriber) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

type WSHandler struct {
	hub    *hub.Hub
	logger *slog.Logger
}

func NewWSHandler(h *hub.Hub, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:    h,
		logger: logger.With("component", "ws"),
	}
}

// Serve upgrades the connection, registers it with the hub and reads
// client frames until the peer goes away. The only understood inbound
// payload is {"type":"ping"}; anything malformed is ignored, not fatal
// to the connection.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := &wsSubscriber{conn: conn}
	h.hub.Register(sub)
	defer func() {
		h.hub.Unregister(sub)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg domain.NotificationEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		if msg.Type == domain.EventPing {
			pong, _ := json.Marshal(domain.NotificationEvent{Type: domain.EventPong})
			if err := sub.Send(pong); err != nil {
				return
			}
		}
	}
}

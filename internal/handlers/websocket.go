package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/models"
)

// WebSocket message types
const (
	MessageTypeHello  = "hello"
	MessageTypeResult = "result"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope of every message sent to clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ResultPayload is the body of a result message
type ResultPayload struct {
	models.Record
	Source models.FetchSource `json:"source"`
	Error  string             `json:"error,omitempty"`
}

// WebSocketHandler streams screening progress to connected clients
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	serverInstanceID string // Clients use this to detect a server restart
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]*sync.Mutex),
		serverInstanceID: uuid.New().String(),
	}
	logger.Debug().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized")
	return h
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	mu := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = mu
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", clientCount).Msg("WebSocket client connected")

	h.send(conn, mu, WSMessage{
		Type:    MessageTypeHello,
		Payload: map[string]string{"server_instance_id": h.serverInstanceID},
	})

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Int("clients", remaining).Msg("WebSocket client disconnected")
	}()

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastResult sends one screening result to every client
func (h *WebSocketHandler) BroadcastResult(result models.ScreeningResult) {
	h.Broadcast(WSMessage{
		Type: MessageTypeResult,
		Payload: ResultPayload{
			Record: result.Record(),
			Source: result.Source,
			Error:  result.Error,
		},
	})
}

// Broadcast sends msg to every client in parallel and returns once every write has
// finished. A client whose write fails is dropped.
func (h *WebSocketHandler) Broadcast(msg WSMessage) {
	h.mu.RLock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, mu := range h.clients {
		targets[conn] = mu
	}
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for conn, mu := range targets {
		wg.Add(1)
		common.SafeGo(h.logger, "websocket-send", func() {
			defer wg.Done()
			h.send(conn, mu, msg)
		})
	}
	wg.Wait()
}

func (h *WebSocketHandler) send(conn *websocket.Conn, mu *sync.Mutex, msg WSMessage) {
	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send WebSocket message")
		conn.Close()
	}
}

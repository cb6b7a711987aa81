package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"emittr/connectfour/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsClient struct {
	gameID string
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

type wsMessage struct {
	Type   string `json:"type"`
	Column *int   `json:"column,omitempty"`
}

// hub tracks the sockets watching each match.
type hub struct {
	mu      sync.RWMutex
	clients map[string]map[*wsClient]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[string]map[*wsClient]struct{})}
}

func (h *hub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.gameID]
	if !ok {
		set = make(map[*wsClient]struct{})
		h.clients[c.gameID] = set
	}
	set[c] = struct{}{}
}

func (h *hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.gameID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.gameID)
	}
	close(c.send)
}

func (h *hub) broadcast(gameID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[gameID] {
		select {
		case c.send <- data:
		default:
		}
	}
}

func (h *hub) count(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[gameID])
}

// closeGame drops every socket on a removed match.
func (h *hub) closeGame(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[gameID] {
		close(c.send)
	}
	delete(h.clients, gameID)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, id)
	}
}

func (s *Server) handleWS(c *gin.Context) {
	id := c.Param("id")
	g, ok := s.manager.Get(id)
	if !ok {
		writeError(c, game.ErrGameNotFound)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{
		gameID: id,
		conn:   conn,
		send:   make(chan []byte, 16),
		server: s,
	}
	s.hub.register(client)
	client.sendJSON(stateMessage(g))

	go client.writePump()
	go client.readPump()
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) readPump() {
	defer c.server.hub.unregister(c)
	s := c.server

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendJSON(map[string]any{"type": "error", "message": "invalid message"})
			continue
		}
		switch msg.Type {
		case "move":
			if msg.Column == nil {
				c.sendJSON(map[string]any{"type": "error", "message": "column required"})
				continue
			}
			// the new state reaches this socket through the hub broadcast
			if _, err := s.applyMove(c.gameID, *msg.Column); err != nil {
				c.sendJSON(map[string]any{"type": "error", "message": err.Error()})
			}
		case "restart":
			if _, err := s.restart(c.gameID); err != nil {
				c.sendJSON(map[string]any{"type": "error", "message": err.Error()})
			}
		case "state":
			g, ok := s.manager.Get(c.gameID)
			if !ok {
				c.sendJSON(map[string]any{"type": "error", "message": game.ErrGameNotFound.Error()})
				continue
			}
			c.sendJSON(stateMessage(g))
		default:
			c.sendJSON(map[string]any{"type": "error", "message": "unknown message type"})
		}
	}
}

// sendJSON drops the message once the client has been unregistered.
func (c *wsClient) sendJSON(v any) {
	data, _ := json.Marshal(v)
	c.server.hub.mu.RLock()
	defer c.server.hub.mu.RUnlock()
	if _, ok := c.server.hub.clients[c.gameID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

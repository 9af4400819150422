package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/JustIkra/tg-restorants-bot/internal/auth"
	"github.com/JustIkra/tg-restorants-bot/internal/confirm"
	"github.com/JustIkra/tg-restorants-bot/internal/enum"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (we validate via JWT)
	},
}

// Client represents a single admin console connection
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	managerID int64
	send      chan []byte

	// shownPrompt is the last confirm.open rendered here. Hub goroutine only.
	shownPrompt uuid.UUID
}

type actionPayload struct {
	ID     uuid.UUID `json:"id"`
	Action string    `json:"action"`
}

type keyPayload struct {
	ID  uuid.UUID   `json:"id"`
	Key confirm.Key `json:"key"`
}

// ReadPump pumps console actions from the WebSocket connection into the
// manager's confirmation bridge
// The application runs ReadPump in a per-connection goroutine
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket error", zap.Int64("manager_tgid", c.managerID), zap.Error(err))
			}
			break
		}
		c.handleMessage(message)
	}
}

// handleMessage applies one console message. It reports whether a pending
// prompt reacted to it; malformed and stale messages are ignored.
func (c *Client) handleMessage(message []byte) bool {
	var in Event
	if err := json.Unmarshal(message, &in); err != nil {
		c.hub.logger.Debug("ignoring malformed console message", zap.Error(err))
		return false
	}

	bridge, ok := c.hub.Bridge(c.managerID)
	if !ok {
		return false
	}

	switch in.Type {
	case enum.WSConfirmAction:
		var p actionPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return false
		}
		switch p.Action {
		case enum.ConfirmActionConfirm:
			return bridge.Resolve(p.ID, true)
		case enum.ConfirmActionCancel:
			return bridge.Resolve(p.ID, false)
		}
	case enum.WSConfirmKey:
		var p keyPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return false
		}
		return bridge.Key(p.ID, p.Key)
	}
	return false
}

// WritePump pumps messages from the hub to the WebSocket connection
// The application runs WritePump in a per-connection goroutine
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame; consoles parse each frame as JSON.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS handles admin console WebSocket requests
// Endpoint: WS /ws/admin?token=JWT
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	// 1. Extract token from query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	// 2. Validate JWT
	claims, err := auth.ValidateToken(jwtSecret, tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// 3. Only managers run the admin console
	if claims.Role != enum.UserRoleManager {
		http.Error(w, "admin console requires manager role", http.StatusForbidden)
		return
	}

	// 4. Upgrade to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}

	// 5. Create client and register with hub
	client := &Client{
		hub:       hub,
		conn:      conn,
		managerID: claims.TGID,
		send:      make(chan []byte, 256),
	}
	client.hub.register <- client

	// 6. Start pumps in separate goroutines
	go client.WritePump()
	go client.ReadPump()
}

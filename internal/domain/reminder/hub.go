package reminder

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

const EventReminder = "reminder"

// Event is pushed to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type eventPayload struct {
	Message
	Text string `json:"text"`
}

type connection struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub keeps the open websocket connections of each user.
// A user may be connected from several tabs at once.
type Hub struct {
	mu          sync.RWMutex
	connections map[int64]map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]map[*connection]struct{}),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.connections[c.userID]
	if !ok {
		conns = make(map[*connection]struct{})
		h.connections[c.userID] = conns
	}
	conns[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.connections[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.connections, c.userID)
	}
}

// Connected reports how many connections userID has open.
func (h *Hub) Connected(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// SendToUser queues event on every connection of userID and returns how many accepted it.
func (h *Hub) SendToUser(userID int64, event *Event) int {
	data, err := json.Marshal(event)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for c := range h.connections[userID] {
		select {
		case c.send <- data:
			sent++
		default:
			// slow client
		}
	}
	return sent
}

// ServeWS registers conn for userID and blocks until it disconnects.
func (h *Hub) ServeWS(conn *websocket.Conn, userID int64) {
	c := &connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump only keeps the connection alive; clients send nothing useful.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// HubNotifier pushes reminders to the owner's open connections.
// An owner with no open connection is not an error.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Name() string { return "websocket" }

func (n *HubNotifier) Notify(_ context.Context, msg Message) error {
	if msg.OwnerID <= 0 {
		return ErrNoRecipient
	}
	n.hub.SendToUser(msg.OwnerID, &Event{
		Type:    EventReminder,
		Payload: eventPayload{Message: msg, Text: msg.Text()},
	})
	return nil
}

package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// MsgSnapshot carries the session view sent on connect. Service events
// (tick, timeout, finalized, ...) are forwarded with their own names.
const MsgSnapshot MessageType = "snapshot"

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans attempt events out to every connection watching the attempt
type Hub struct {
	// attemptID -> connID -> conn
	conns map[string]map[string]*Connection

	mu  sync.RWMutex
	log *zap.Logger

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	disconnect chan string
}

// Connection represents a WebSocket connection
type Connection struct {
	ID        string
	AttemptID string
	UserID    string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	AttemptID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[string]*Connection),
		log:        log,
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		disconnect: make(chan string, 16),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.AttemptID] == nil {
				h.conns[conn.AttemptID] = make(map[string]*Connection)
			}
			h.conns[conn.AttemptID][conn.ID] = conn
			h.mu.Unlock()
			h.log.Debug("subscriber connected",
				zap.String("attemptId", conn.AttemptID),
				zap.String("connId", conn.ID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.AttemptID]; ok {
				if existing, ok := conns[conn.ID]; ok && existing == conn {
					delete(conns, conn.ID)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.conns, conn.AttemptID)
					}
					h.log.Debug("subscriber disconnected",
						zap.String("attemptId", conn.AttemptID),
						zap.String("connId", conn.ID))
				}
			}
			h.mu.Unlock()

		case attemptID := <-h.disconnect:
			h.mu.Lock()
			for _, conn := range h.conns[attemptID] {
				close(conn.Send)
			}
			delete(h.conns, attemptID)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for _, conn := range h.conns[msg.AttemptID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Subscribers returns the number of connections watching attemptID
func (h *Hub) Subscribers(attemptID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[attemptID])
}

// BroadcastToAttempt sends a message to every subscriber of an attempt (implements service.Broadcaster)
func (h *Hub) BroadcastToAttempt(attemptID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		AttemptID: attemptID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// DisconnectAttempt closes every subscriber of an attempt (implements service.Broadcaster)
func (h *Hub) DisconnectAttempt(attemptID string) {
	h.disconnect <- attemptID
}

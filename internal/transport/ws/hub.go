package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgProgressUpdate     MessageType = "progress_update"
	MsgAssessmentComplete MessageType = "assessment_complete"
	MsgAssessmentReset    MessageType = "assessment_reset"
	MsgError              MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections per session. A session may have several
// connections open, e.g. the same assessment in two tabs.
type Hub struct {
	conns map[string]map[*Connection]struct{} // sessionID -> connections

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	disconnect chan string
	done       chan struct{}
	closeOnce  sync.Once

	logger *zap.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		disconnect: make(chan string),
		done:       make(chan struct{}),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, set := range h.conns {
				for conn := range set {
					close(conn.Send)
				}
				delete(h.conns, id)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionID] == nil {
				h.conns[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.conns[conn.SessionID][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("websocket connected", zap.String("session_id", conn.SessionID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.conns[conn.SessionID]; ok {
				if _, ok := set[conn]; ok {
					delete(set, conn)
					close(conn.Send)
					if len(set) == 0 {
						delete(h.conns, conn.SessionID)
					}
					h.logger.Debug("websocket disconnected", zap.String("session_id", conn.SessionID))
				}
			}
			h.mu.Unlock()

		case id := <-h.disconnect:
			h.mu.Lock()
			for conn := range h.conns[id] {
				close(conn.Send)
			}
			delete(h.conns, id)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.logger.Warn("encode websocket message", zap.Error(err))
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.SessionID] {
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
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Connections returns the number of open connections for a session
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}

// Close stops the hub and closes every connection
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// BroadcastToSession sends a message to every connection of a session (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("encode websocket payload", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}:
	case <-h.done:
	}
}

// DisconnectSession closes every connection of a session (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	select {
	case h.disconnect <- sessionID:
	case <-h.done:
	}
}

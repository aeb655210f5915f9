package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Status stream message types
const (
	MsgStatus   MessageType = "status"
	MsgResolved MessageType = "resolved"
	MsgFailed   MessageType = "failed"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections watching SOS requests. A request can have
// any number of watchers (the same teacher on multiple devices).
type Hub struct {
	// SOS id -> watchers
	conns map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage

	logger *zap.Logger
}

// Connection represents one watcher of an SOS request
type Connection struct {
	SOSID string
	Send  chan []byte
}

// closeStream rides the broadcast channel so a final message queued just
// before a close is always delivered first.
type broadcastMessage struct {
	SOSID       string
	Message     *Message
	closeStream bool
}

// NewHub creates a new WebSocket hub and starts its dispatch loop.
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SOSID] == nil {
				h.conns[conn.SOSID] = make(map[*Connection]struct{})
			}
			h.conns[conn.SOSID][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("watcher connected", zap.String("sosId", conn.SOSID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if watchers, ok := h.conns[conn.SOSID]; ok {
				if _, ok := watchers[conn]; ok {
					delete(watchers, conn)
					close(conn.Send)
					if len(watchers) == 0 {
						delete(h.conns, conn.SOSID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("watcher disconnected", zap.String("sosId", conn.SOSID))

		case msg := <-h.broadcast:
			if msg.closeStream {
				h.mu.Lock()
				if watchers, ok := h.conns[msg.SOSID]; ok {
					for conn := range watchers {
						close(conn.Send)
					}
					delete(h.conns, msg.SOSID)
				}
				h.mu.Unlock()
				continue
			}

			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.conns[msg.SOSID] {
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

// BroadcastToRequest sends a message to every watcher of an SOS request
// (implements service.Broadcaster)
func (h *Hub) BroadcastToRequest(sosID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &broadcastMessage{
		SOSID: sosID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// CloseRequest disconnects all watchers of an SOS request. Called once the
// request has reached a terminal state (implements service.Broadcaster)
func (h *Hub) CloseRequest(sosID string) {
	h.broadcast <- &broadcastMessage{SOSID: sosID, closeStream: true}
}

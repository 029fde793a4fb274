package notifications

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Hub fans portal events out to every connected WebSocket client.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[string]*connection

	broadcast  chan Event
	register   chan *connection
	unregister chan *connection
	stop       chan struct{}
	stopOnce   sync.Once
}

type connection struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

// NewHub creates the hub and starts its dispatch loop.
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		logger:      logger,
		connections: make(map[string]*connection),
		broadcast:   make(chan Event, 256),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		stop:        make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The portal has no authentication; any origin may listen
				return true
			},
		},
	}

	go h.run()
	return h
}

// HandleConnection upgrades an HTTP request and attaches the client to the
// hub until it disconnects.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	conn := &connection{
		id:   uuid.New().String(),
		conn: ws,
		send: make(chan Event, 64),
	}

	select {
	case h.register <- conn:
	case <-h.stop:
		ws.Close()
		return fmt.Errorf("hub is shut down")
	}

	go h.writePump(conn)
	go h.readPump(conn)
	return nil
}

// Publish queues an event for broadcast. A full queue drops the event
// rather than block the caller.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("event queue full, dropping event", zap.String("type", event.Type))
	}
}

// ConnectionCount returns the number of attached clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close detaches every client and stops the dispatch loop.
func (h *Hub) Close() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.id] = conn
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", zap.String("connection_id", conn.id))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.id]; ok {
				delete(h.connections, conn.id)
				close(conn.send)
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", zap.String("connection_id", conn.id))

		case event := <-h.broadcast:
			h.mu.Lock()
			for id, conn := range h.connections {
				select {
				case conn.send <- event:
				default:
					// Slow consumer, detach it
					delete(h.connections, id)
					close(conn.send)
				}
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for id, conn := range h.connections {
				delete(h.connections, id)
				close(conn.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// readPump drains client frames so close and pong handling work; clients
// have nothing meaningful to say to the portal.
func (h *Hub) readPump(conn *connection) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.stop:
		}
		conn.conn.Close()
	}()

	conn.conn.SetReadLimit(512)
	conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		conn.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read failed", zap.String("connection_id", conn.id), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.conn.Close()
	}()

	for {
		select {
		case event, ok := <-conn.send:
			conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

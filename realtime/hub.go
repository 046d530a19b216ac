package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types
const (
	EventRolePermissionsUpdated = "role_permissions_updated"
	EventRoleDeleted            = "role_deleted"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Event represents a message sent to websocket clients
type Event struct {
	Type        string                 `json:"type"`
	RoleID      uint                   `json:"role_id,omitempty"`
	RoleName    string                 `json:"role_name,omitempty"`
	Permissions []uint                 `json:"permissions,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
	Timestamp   int64                  `json:"timestamp"`
}

// Publisher is implemented by anything that can fan out events; Hub is the default.
type Publisher interface {
	Broadcast(event Event)
}

// subscriber is one websocket connection. A non-zero roleID limits it to the
// events of that role; events without a role reach everyone.
type subscriber struct {
	conn   *websocket.Conn
	send   chan []byte
	roleID uint
}

func (s *subscriber) wants(event Event) bool {
	return s.roleID == 0 || event.RoleID == 0 || event.RoleID == s.roleID
}

// Hub fans permission change events out to the connected admin consoles
type Hub struct {
	subscribers map[*subscriber]struct{}
	register    chan *subscriber
	unregister  chan *subscriber
	events      chan Event
	quit        chan struct{}
	stopOnce    sync.Once
	mu          sync.RWMutex
	upgrader    websocket.Upgrader
}

// NewHub creates a hub accepting websocket connections from allowedOrigins.
// With no origins every origin is accepted.
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{
		subscribers: make(map[*subscriber]struct{}),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		events:      make(chan Event, 256),
		quit:        make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Run dispatches registrations and events until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			h.mu.Unlock()
		case s := <-h.unregister:
			h.mu.Lock()
			h.dropLocked(s)
			h.mu.Unlock()
		case event := <-h.events:
			h.dispatch(event)
		case <-h.quit:
			h.mu.Lock()
			for s := range h.subscribers {
				h.dropLocked(s)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) dispatch(event Event) {
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: failed to marshal event %s: %v", event.Type, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		if !s.wants(event) {
			continue
		}
		select {
		case s.send <- encoded:
		default:
			log.Printf("Warning: realtime: dropping slow subscriber %s", s.conn.RemoteAddr())
			h.dropLocked(s)
		}
	}
}

func (h *Hub) dropLocked(s *subscriber) {
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
}

// Stop ends Run and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast queues event for delivery. It never blocks; events are dropped
// while the queue is full.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	select {
	case h.events <- event:
	default:
		log.Printf("Warning: realtime: dropping event %s, queue full", event.Type)
	}
}

// ServeWS upgrades the connection and streams events to it. The optional
// query parameter rol restricts the stream to one role.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	var roleID uint
	if raw := r.URL.Query().Get("rol"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			http.Error(w, "invalid rol parameter", http.StatusBadRequest)
			return
		}
		roleID = uint(id)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: websocket upgrade error: %v", err)
		return
	}
	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer), roleID: roleID}
	select {
	case h.register <- s:
	case <-h.quit:
		conn.Close()
		return
	}

	go h.writePump(s)
	h.readPump(s)
}

// writePump forwards queued events and keeps the connection alive with pings
func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages; it only exists to process pongs and notice disconnects
func (h *Hub) readPump(s *subscriber) {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			break
		}
	}
	select {
	case h.unregister <- s:
	case <-h.quit:
	}
}

package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/damoang/angple-chat/pkg/logger"
)

const authorizeTimeout = 5 * time.Second

// RoomAuthorizer decides whether a user may subscribe to a room (conversation id)
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, userID, roomID string) (bool, error)
}

// Hub is the process-local room registry. It tracks which connections are
// subscribed to which conversation and fans events out to them.
//
// Delivery is best effort: an event is handed to each subscriber's buffered
// send queue without blocking, and dropped for a subscriber whose queue is
// full. Nothing is replayed; clients reconcile through message history.
// Fan-out order across connections is not a total order under concurrent
// publishers.
type Hub struct {
	mu sync.RWMutex

	// client -> rooms it is subscribed to
	clients map[*Client]map[string]struct{}
	// room -> subscribed clients
	rooms map[string]map[*Client]struct{}

	authorizer     RoomAuthorizer
	sendBuffer     int
	maxMessageSize int64
	closed         bool
}

// Option configures a Hub
type Option func(*Hub)

// WithSendBuffer sets the per-connection outbound queue length
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithMaxMessageSize limits inbound frame size
func WithMaxMessageSize(n int64) Option {
	return func(h *Hub) {
		if n > 0 {
			h.maxMessageSize = n
		}
	}
}

// NewHub creates a Hub. A nil authorizer admits every joinChat request.
func NewHub(authorizer RoomAuthorizer, opts ...Option) *Hub {
	h := &Hub{
		clients:        make(map[*Client]map[string]struct{}),
		rooms:          make(map[string]map[*Client]struct{}),
		authorizer:     authorizer,
		sendBuffer:     256,
		maxMessageSize: 4096,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a connected client. Returns false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[string]struct{})
		connectionsActive.Inc()
	}
	return true
}

// Subscribe adds c to roomID. Subscribing twice is a no-op.
// Returns true only when a new subscription was created.
func (h *Hub) Subscribe(c *Client, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	memberships, ok := h.clients[c]
	if !ok {
		return false
	}
	if _, already := memberships[roomID]; already {
		return false
	}
	memberships[roomID] = struct{}{}

	room := h.rooms[roomID]
	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[roomID] = room
	}
	room[c] = struct{}{}
	subscriptionsActive.Inc()
	return true
}

// Unsubscribe removes c from roomID. Unsubscribing a non-member is a no-op.
func (h *Hub) Unsubscribe(c *Client, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveLocked(c, roomID)
}

func (h *Hub) leaveLocked(c *Client, roomID string) bool {
	memberships, ok := h.clients[c]
	if !ok {
		return false
	}
	if _, member := memberships[roomID]; !member {
		return false
	}
	delete(memberships, roomID)

	if room, ok := h.rooms[roomID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
	subscriptionsActive.Dec()
	return true
}

// Disconnect removes c from every room and closes its send queue.
// Safe to call more than once.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnectLocked(c)
}

func (h *Hub) disconnectLocked(c *Client) {
	memberships, ok := h.clients[c]
	if !ok {
		return
	}
	for roomID := range memberships {
		h.leaveLocked(c, roomID)
	}
	delete(h.clients, c)
	close(c.send)
	connectionsActive.Dec()
}

// Publish delivers event to every connection subscribed to roomID and returns
// the number of connections it was enqueued for. It never blocks.
func (h *Hub) Publish(roomID string, event *Event) int {
	return h.Relay(roomID, event, nil)
}

// Relay is Publish excluding one connection (the originator of a typing signal)
func (h *Hub) Relay(roomID string, event *Event, except *Client) int {
	ev := *event
	if ev.RoomID == "" {
		ev.RoomID = roomID
	}
	data, err := json.Marshal(&ev)
	if err != nil {
		logger.GetLogger().Error().Err(err).Str("type", event.Type).Msg("ws: event marshal failed")
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.rooms[roomID] {
		if c == except {
			continue
		}
		if c.enqueue(event.Type, data) {
			delivered++
		}
	}
	return delivered
}

// sendTo delivers an event to a single connection if it is still registered
func (h *Hub) sendTo(c *Client, event *Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	return c.enqueue(event.Type, data)
}

// IsSubscribed reports whether c is currently in roomID
func (h *Hub) IsSubscribed(c *Client, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][c]
	return ok
}

// RoomSize returns the number of connections subscribed to roomID
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// ClientCount returns the number of registered connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new registrations
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.disconnectLocked(c)
	}
}

// authorize consults the RoomAuthorizer for a join request
func (h *Hub) authorize(userID, roomID string) (bool, error) {
	if h.authorizer == nil {
		return true, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
	defer cancel()
	return h.authorizer.CanJoin(ctx, userID, roomID)
}

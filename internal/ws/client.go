package ws

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/damoang/angple-chat/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client represents a single WebSocket connection.
// Lifecycle: Connected -> subscribed to zero or more rooms -> Disconnected.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	log    zerolog.Logger
}

// NewClient creates a new WebSocket client for an authenticated user
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.sendBuffer),
		userID: userID,
		log:    logger.WithConn(id, userID),
	}
}

// ID returns the connection id
func (c *Client) ID() string { return c.id }

// enqueue hands data to the write pump without blocking. Caller holds the hub read lock.
func (c *Client) enqueue(eventType string, data []byte) bool {
	select {
	case c.send <- data:
		eventsDelivered.WithLabelValues(eventType).Inc()
		return true
	default:
		eventsDropped.WithLabelValues(eventType).Inc()
		c.log.Warn().Str("type", eventType).Msg("ws: send buffer full, event dropped")
		return false
	}
}

// ReadPump reads inbound events until the connection fails, then disconnects
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
		c.log.Debug().Msg("ws: disconnected")
	}()

	c.conn.SetReadLimit(c.hub.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("ws: unexpected close")
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.hub.sendTo(c, errorEvent("", "invalid event payload"))
			continue
		}
		c.hub.dispatch(c, &ev)
	}
}

// WritePump sends queued events and keepalive pings to the WebSocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				// hub closed the queue
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch applies one inbound event from c
func (h *Hub) dispatch(c *Client, ev *Event) {
	roomID := strings.TrimSpace(ev.RoomID)

	switch ev.Type {
	case EventJoinChat, EventLeaveChat, EventTyping, EventStopTyping:
		if roomID == "" {
			h.sendTo(c, errorEvent("", "room_id is required"))
			return
		}
	default:
		h.sendTo(c, errorEvent(roomID, "unknown event type"))
		return
	}

	switch ev.Type {
	case EventJoinChat:
		allowed, err := h.authorize(c.userID, roomID)
		if err != nil {
			c.log.Error().Err(err).Str("room_id", roomID).Msg("ws: join authorization failed")
			h.sendTo(c, errorEvent(roomID, "could not join chat"))
			return
		}
		if !allowed {
			joinsDenied.Inc()
			c.log.Warn().Str("room_id", roomID).Msg("ws: join denied")
			h.sendTo(c, errorEvent(roomID, "not a participant of this chat"))
			return
		}
		h.Subscribe(c, roomID)
		h.sendTo(c, &Event{Type: EventJoinedChat, RoomID: roomID})

	case EventLeaveChat:
		h.Unsubscribe(c, roomID)
		h.sendTo(c, &Event{Type: EventLeftChat, RoomID: roomID})

	case EventTyping, EventStopTyping:
		// 참여 중인 방에만 입력 상태 전달
		if !h.IsSubscribed(c, roomID) {
			return
		}
		h.Relay(roomID, &Event{
			Type:    ev.Type,
			RoomID:  roomID,
			Payload: TypingPayload{UserID: c.userID},
		}, c)
	}
}

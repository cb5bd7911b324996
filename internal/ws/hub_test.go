package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/damoang/angple-chat/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthorizer struct {
	allowed map[string]bool // userID+"/"+roomID
	err     error
}

func (s *stubAuthorizer) CanJoin(_ context.Context, userID, roomID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.allowed[userID+"/"+roomID], nil
}

func newTestClient(h *Hub, userID string) *Client {
	c := &Client{
		id:     "conn-" + userID,
		hub:    h,
		send:   make(chan []byte, h.sendBuffer),
		userID: userID,
		log:    logger.WithConn("conn-"+userID, userID),
	}
	h.Register(c)
	return c
}

// drain returns every queued event without blocking
func drain(t *testing.T, c *Client) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var ev Event
			require.NoError(t, json.Unmarshal(data, &ev))
			out = append(out, ev)
		default:
			return out
		}
	}
}

func countType(events []Event, typ string) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestSubscribeIsIdempotent(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "u1")

	assert.True(t, h.Subscribe(c, "c1"))
	assert.False(t, h.Subscribe(c, "c1"))
	assert.Equal(t, 1, h.RoomSize("c1"))

	assert.Equal(t, 1, h.Publish("c1", &Event{Type: EventMessageReceived}))
	assert.Len(t, drain(t, c), 1)
}

func TestUnsubscribeNonMemberIsNoop(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "u1")

	assert.False(t, h.Unsubscribe(c, "c1"))
	h.Subscribe(c, "c1")
	assert.True(t, h.Unsubscribe(c, "c1"))
	assert.False(t, h.Unsubscribe(c, "c1"))
	assert.Equal(t, 0, h.RoomSize("c1"))
}

func TestSubscribeUnregisteredClientIgnored(t *testing.T) {
	h := NewHub(nil)
	c := &Client{hub: h, send: make(chan []byte, 1)}
	assert.False(t, h.Subscribe(c, "c1"))
	assert.Equal(t, 0, h.Publish("c1", &Event{Type: EventMessageReceived}))
}

func TestPublishOnlyReachesRoomMembers(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "u1")
	b := newTestClient(h, "u2")
	other := newTestClient(h, "u3")

	h.Subscribe(a, "c1")
	h.Subscribe(b, "c1")
	h.Subscribe(other, "c2")

	n := h.Publish("c1", &Event{Type: EventMessageReceived, Payload: map[string]string{"content": "hello"}})
	assert.Equal(t, 2, n)

	for _, c := range []*Client{a, b} {
		events := drain(t, c)
		require.Len(t, events, 1)
		assert.Equal(t, EventMessageReceived, events[0].Type)
		assert.Equal(t, "c1", events[0].RoomID)
	}
	assert.Empty(t, drain(t, other))
}

func TestPublishLeavesCallerEventUntouched(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "u1")
	h.Subscribe(a, "c1")

	event := &Event{Type: EventMessageReceived, Payload: "hi"}
	require.Equal(t, 1, h.Publish("c1", event))
	assert.Empty(t, event.RoomID)

	events := drain(t, a)
	require.Len(t, events, 1)
	assert.Equal(t, "c1", events[0].RoomID)
}

func TestDisconnectLeavesAllRooms(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "u1")
	h.Subscribe(c, "c1")
	h.Subscribe(c, "c2")

	h.Disconnect(c)
	h.Disconnect(c) // second call is harmless

	assert.Equal(t, 0, h.RoomSize("c1"))
	assert.Equal(t, 0, h.RoomSize("c2"))
	assert.Equal(t, 0, h.ClientCount())
	assert.Empty(t, h.rooms)

	_, open := <-c.send
	assert.False(t, open, "send queue should be closed")
	assert.Equal(t, 0, h.Publish("c1", &Event{Type: EventMessageReceived}))
}

func TestResubscribeDoesNotReplay(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "u1")

	h.Subscribe(c, "c1")
	h.Publish("c1", &Event{Type: EventMessageReceived})
	h.Unsubscribe(c, "c1")
	h.Publish("c1", &Event{Type: EventMessageReceived})
	h.Subscribe(c, "c1")
	h.Publish("c1", &Event{Type: EventMessageReceived})

	assert.Equal(t, 2, countType(drain(t, c), EventMessageReceived))
}

func TestFullBufferDropsWithoutBlocking(t *testing.T) {
	h := NewHub(nil, WithSendBuffer(1))
	slow := newTestClient(h, "u1")
	fast := newTestClient(h, "u2")
	h.Subscribe(slow, "c1")
	h.Subscribe(fast, "c1")

	assert.Equal(t, 2, h.Publish("c1", &Event{Type: EventMessageReceived}))
	drain(t, fast)
	// slow has not drained: dropped for slow, delivered to fast
	assert.Equal(t, 1, h.Publish("c1", &Event{Type: EventMessageReceived}))
	assert.Len(t, drain(t, slow), 1)
	assert.Len(t, drain(t, fast), 1)
}

func TestCloseDisconnectsEveryone(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "u1")
	h.Subscribe(a, "c1")

	h.Close()
	assert.Equal(t, 0, h.ClientCount())
	assert.False(t, h.Register(&Client{hub: h, send: make(chan []byte, 1)}))
}

func TestDispatchJoinRequiresAuthorization(t *testing.T) {
	auth := &stubAuthorizer{allowed: map[string]bool{"u1/c1": true}}
	h := NewHub(auth)
	member := newTestClient(h, "u1")
	intruder := newTestClient(h, "u3")

	h.dispatch(member, &Event{Type: EventJoinChat, RoomID: "c1"})
	h.dispatch(intruder, &Event{Type: EventJoinChat, RoomID: "c1"})

	assert.True(t, h.IsSubscribed(member, "c1"))
	assert.False(t, h.IsSubscribed(intruder, "c1"))

	joined := drain(t, member)
	require.Len(t, joined, 1)
	assert.Equal(t, EventJoinedChat, joined[0].Type)

	denied := drain(t, intruder)
	require.Len(t, denied, 1)
	assert.Equal(t, EventError, denied[0].Type)
}

func TestDispatchJoinAuthorizerError(t *testing.T) {
	h := NewHub(&stubAuthorizer{err: errors.New("db down")})
	c := newTestClient(h, "u1")

	h.dispatch(c, &Event{Type: EventJoinChat, RoomID: "c1"})
	assert.False(t, h.IsSubscribed(c, "c1"))
	assert.Equal(t, 1, countType(drain(t, c), EventError))
}

func TestDispatchLeave(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "u1")
	h.dispatch(c, &Event{Type: EventJoinChat, RoomID: "c1"})
	h.dispatch(c, &Event{Type: EventLeaveChat, RoomID: "c1"})

	assert.False(t, h.IsSubscribed(c, "c1"))
	events := drain(t, c)
	assert.Equal(t, 1, countType(events, EventJoinedChat))
	assert.Equal(t, 1, countType(events, EventLeftChat))
}

func TestDispatchTypingRelaysToOthersOnly(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient(h, "u1")
	b := newTestClient(h, "u2")
	outsider := newTestClient(h, "u3")
	h.Subscribe(a, "c1")
	h.Subscribe(b, "c1")

	h.dispatch(a, &Event{Type: EventTyping, RoomID: "c1"})
	h.dispatch(a, &Event{Type: EventStopTyping, RoomID: "c1"})
	// not subscribed: ignored
	h.dispatch(outsider, &Event{Type: EventTyping, RoomID: "c1"})

	assert.Empty(t, drain(t, a))
	events := drain(t, b)
	require.Len(t, events, 2)
	assert.Equal(t, EventTyping, events[0].Type)
	assert.Equal(t, EventStopTyping, events[1].Type)
	payload, ok := events[0].Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "u1", payload["user_id"])
}

func TestDispatchRejectsBadEvents(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, "u1")

	h.dispatch(c, &Event{Type: EventJoinChat, RoomID: "  "})
	h.dispatch(c, &Event{Type: "explode", RoomID: "c1"})

	assert.Equal(t, 2, countType(drain(t, c), EventError))
	assert.Equal(t, 0, h.RoomSize("c1"))
}

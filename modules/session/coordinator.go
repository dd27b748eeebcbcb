package session

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	domain "github.com/example/tempchat/domain/room"
	"github.com/example/tempchat/modules/registry"
)

// Coordinator binds each live connection to at most one (room, member) pair
// and keeps connected clients' views consistent with registry state by
// broadcasting deltas. One mutex serializes the whole mutation path so every
// member of a room observes broadcasts in the same order as the underlying
// registry mutations.
type Coordinator struct {
	mu       sync.Mutex
	registry *registry.Registry
	hub      *Hub

	protectedCode string
	protectedPass string

	// onMessageSent is invoked after a message has been stored and
	// broadcast; the module uses it to publish the MessageSent event.
	onMessageSent func(msg domain.Message)
}

// NewCoordinator creates a coordinator over the given registry and hub.
func NewCoordinator(reg *registry.Registry, hub *Hub) *Coordinator {
	return &Coordinator{
		registry: reg,
		hub:      hub,
	}
}

// SetProtectedRoom configures the password-gated room. Joins to this code
// must present the matching password.
func (c *Coordinator) SetProtectedRoom(code, pass string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.protectedCode = registry.NormalizeCode(code)
	c.protectedPass = pass
}

// Register adds a fresh connection with no binding.
func (c *Coordinator) Register(conn Conn) {
	c.hub.Register(conn)
}

// HandleJoin binds a connection to a room. Failures are signaled to the
// requester only; on success the requester receives the full room snapshot
// and every other bound connection a user-joined notification.
func (c *Coordinator) HandleJoin(conn Conn, p JoinRoomPayload) {
	if err := ValidateJoin(p); err != nil {
		c.sendError(conn, "Invalid join request")
		return
	}
	code := registry.NormalizeCode(p.RoomCode)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.protectedCode != "" && code == c.protectedCode {
		if strings.TrimSpace(p.Pass) != strings.TrimSpace(c.protectedPass) {
			_ = conn.Send(EventInvalidPassword, nil)
			return
		}
	}

	if !c.registry.RoomExists(code) {
		c.sendError(conn, "Room not found")
		return
	}

	// One binding per connection: release the previous one (with the full
	// user-left flow) before binding anew.
	c.unbindLocked(conn.ID())

	member := *p.User
	member.Username = strings.TrimSpace(member.Username)

	if !c.registry.AddMember(code, member) {
		c.sendError(conn, "Failed to join room")
		return
	}
	if !c.hub.Bind(conn.ID(), code, member) {
		// Connection vanished between dispatch and bind; undo the join.
		c.registry.RemoveMember(code, member.ID)
		return
	}

	users := c.registry.Members(code)
	_ = conn.Send(EventJoined, JoinedPayload{
		Users:    users,
		Messages: c.registry.Messages(code),
	})
	c.hub.BroadcastExcept(code, conn.ID(), EventUserJoined, MemberChangePayload{
		Username: member.Username,
		Users:    users,
	})

	log.Printf("[session] User %s joined %s", member.Username, code)
}

// HandleSendMessage relays a message to the sender's bound room, including
// a server-confirmed echo back to the sender. Unbound connections, empty
// content and mismatched room codes are dropped silently; oversized content
// is rejected with an error event and never stored.
func (c *Coordinator) HandleSendMessage(conn Conn, p SendMessagePayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.hub.Binding(conn.ID())
	if !ok {
		return
	}
	if registry.NormalizeCode(p.RoomCode) != client.RoomCode {
		return
	}

	content, err := ValidateContent(p.Content)
	if err != nil {
		if errors.Is(err, ErrMessageTooLong) {
			c.sendError(conn, "Message too long")
		}
		return
	}

	msg := domain.Message{
		ID:        registry.NewMessageID(),
		RoomCode:  client.RoomCode,
		UserID:    client.Member.ID,
		Username:  client.Member.Username,
		UserColor: client.Member.Color,
		Content:   content,
		Timestamp: time.Now(),
		Type:      domain.MessageTypeUser,
	}

	if !c.registry.AppendMessage(client.RoomCode, msg) {
		// Room vanished between the binding check and the append.
		return
	}

	c.hub.Broadcast(client.RoomCode, EventReceiveMessage, ReceiveMessagePayload{Message: msg})

	if c.onMessageSent != nil {
		c.onMessageSent(msg)
	}
}

// HandleTyping relays a typing-state change to every other connection in
// the sender's room. No state is retained; unbound connections and
// mismatched room codes are dropped silently.
func (c *Coordinator) HandleTyping(conn Conn, p TypingPayload, stopped bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.hub.Binding(conn.ID())
	if !ok {
		return
	}
	if registry.NormalizeCode(p.RoomCode) != client.RoomCode {
		return
	}

	event := EventTyping
	if stopped {
		event = EventStopTyping
	}
	c.hub.BroadcastExcept(client.RoomCode, conn.ID(), event, TypingStatePayload{
		UserID:   client.Member.ID,
		Username: client.Member.Username,
	})
}

// HandleDisconnect releases a connection's binding (broadcasting user-left
// to the remaining members) and removes it from the hub. Safe to call for
// connections that never bound. The transport guarantees this runs exactly
// once per connection termination.
func (c *Coordinator) HandleDisconnect(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unbindLocked(conn.ID())
	c.hub.Unregister(conn.ID())
}

// HandleRoomExpired is the registry's expiration listener: it notifies all
// connections bound to the evicted room and force-closes them. The room is
// already gone, so no further relay is meaningful for those connections.
func (c *Coordinator) HandleRoomExpired(roomCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	closed := c.hub.CloseRoom(roomCode, EventRoomExpired, nil)
	if len(closed) > 0 {
		log.Printf("[session] Room %s expired, disconnected %d clients", roomCode, len(closed))
	}
}

// unbindLocked removes the connection's member from its room and broadcasts
// the membership change. No-op for unbound connections.
func (c *Coordinator) unbindLocked(connID string) {
	client, ok := c.hub.Unbind(connID)
	if !ok {
		return
	}

	c.registry.RemoveMember(client.RoomCode, client.Member.ID)

	// Members is empty when the room was destroyed by the last leave.
	c.hub.Broadcast(client.RoomCode, EventUserLeft, MemberChangePayload{
		Username: client.Member.Username,
		Users:    c.registry.Members(client.RoomCode),
	})

	log.Printf("[session] User %s left %s", client.Member.Username, client.RoomCode)
}

func (c *Coordinator) sendError(conn Conn, message string) {
	if err := conn.Send(EventError, ErrorPayload{Message: message}); err != nil {
		log.Printf("[session] Failed to send error to %s: %v", conn.ID(), err)
	}
}

package session

import (
	"log"
	"sync"

	domain "github.com/example/tempchat/domain/room"
)

// Conn is one live client connection as seen by the coordinator. The
// transport layer supplies an implementation whose Send is safe for
// concurrent use.
type Conn interface {
	ID() string
	Send(event string, payload any) error
	Close() error
}

// Client is a registered connection together with its current binding. A
// client with an empty RoomCode holds no binding.
type Client struct {
	Conn     Conn
	Member   domain.Member
	RoomCode string
}

// Hub maintains the connection table and the room-to-connections index used
// to resolve broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client         // connection id -> client
	rooms   map[string]map[string]bool // room code -> set of connection ids
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]bool),
	}
}

// Register adds a connection to the hub with no binding.
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn.ID()] = &Client{Conn: conn}
}

// Unregister removes a connection entirely. Returns the removed client, or
// nil if the connection was not registered.
func (h *Hub) Unregister(connID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return nil
	}
	h.removeFromRoomLocked(client)
	delete(h.clients, connID)
	return client
}

// Binding returns a copy of the client's current binding. The second return
// is false when the connection is unknown or unbound.
func (h *Hub) Binding(connID string) (Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[connID]
	if !ok || client.RoomCode == "" {
		return Client{}, false
	}
	return *client, true
}

// Bind associates a connection with a (room, member) pair. Returns false if
// the connection is not registered. Any previous binding must have been
// released first; a connection holds at most one binding.
func (h *Hub) Bind(connID, roomCode string, member domain.Member) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return false
	}

	h.removeFromRoomLocked(client)

	client.Member = member
	client.RoomCode = roomCode
	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[string]bool)
	}
	h.rooms[roomCode][connID] = true
	return true
}

// Unbind releases a connection's binding, leaving the connection
// registered. Returns a copy of the client as it was bound, or false when
// no binding existed.
func (h *Hub) Unbind(connID string) (Client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok || client.RoomCode == "" {
		return Client{}, false
	}

	bound := *client
	h.removeFromRoomLocked(client)
	client.Member = domain.Member{}
	client.RoomCode = ""
	return bound, true
}

// Broadcast sends one event to every connection bound to a room.
func (h *Hub) Broadcast(roomCode, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.broadcastLocked(roomCode, "", event, payload)
}

// BroadcastExcept sends one event to every connection bound to a room other
// than exceptID.
func (h *Hub) BroadcastExcept(roomCode, exceptID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.broadcastLocked(roomCode, exceptID, event, payload)
}

// CloseRoom sends a final event to every connection bound to a room, then
// force-closes those connections and drops their bindings. Returns the
// closed clients.
func (h *Hub) CloseRoom(roomCode, event string, payload any) []Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids, ok := h.rooms[roomCode]
	if !ok {
		return nil
	}

	closed := make([]Client, 0, len(ids))
	for connID := range ids {
		client, ok := h.clients[connID]
		if !ok {
			continue
		}
		if err := client.Conn.Send(event, payload); err != nil {
			log.Printf("[session] Failed to send to connection %s: %v", connID, err)
		}
		_ = client.Conn.Close()
		closed = append(closed, *client)
		client.Member = domain.Member{}
		client.RoomCode = ""
	}
	delete(h.rooms, roomCode)
	return closed
}

// CloseAll closes every registered connection and clears the hub.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
}

// ClientCount returns the total number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of connections bound to a room.
func (h *Hub) RoomClientCount(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}

func (h *Hub) broadcastLocked(roomCode, exceptID, event string, payload any) {
	ids, ok := h.rooms[roomCode]
	if !ok {
		return
	}
	for connID := range ids {
		if connID == exceptID {
			continue
		}
		client, ok := h.clients[connID]
		if !ok {
			continue
		}
		if err := client.Conn.Send(event, payload); err != nil {
			log.Printf("[session] Failed to send to connection %s: %v", connID, err)
		}
	}
}

func (h *Hub) removeFromRoomLocked(client *Client) {
	if client.RoomCode == "" {
		return
	}
	if ids := h.rooms[client.RoomCode]; ids != nil {
		delete(ids, client.Conn.ID())
		if len(ids) == 0 {
			delete(h.rooms, client.RoomCode)
		}
	}
}

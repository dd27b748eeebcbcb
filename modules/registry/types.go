package registry

import (
	domain "github.com/example/tempchat/domain/room"
)

// Service names registered on the module's ServiceContainer.
const (
	ServiceCreateRoom = "create-room"
	ServiceGetRoom    = "get-room"
	ServiceListRooms  = "list-rooms"
)

// CreateRoomRequest is the request for the create-room service.
type CreateRoomRequest struct{}

// CreateRoomResponse carries the freshly generated room code.
type CreateRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

// GetRoomRequest is the request for the get-room service.
type GetRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

// GetRoomResponse carries a room's public state. Found is false for codes
// that do not name a live room.
type GetRoomResponse struct {
	Found bool        `json:"found"`
	Room  domain.Room `json:"room,omitempty"`
}

// ListRoomsRequest is the request for the list-rooms service.
type ListRoomsRequest struct{}

// ListRoomsResponse lists the codes of all active rooms.
type ListRoomsResponse struct {
	Codes []string `json:"codes"`
}

package api

import (
	"time"

	domain "github.com/example/tempchat/domain/room"
)

// CreateRoomResponse is the API response for a freshly created room.
type CreateRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

// RoomResponse is the API response for a room's public state.
type RoomResponse struct {
	Code      string          `json:"roomCode"`
	CreatedAt time.Time       `json:"createdAt"`
	Users     []domain.Member `json:"users"`
	Clients   int             `json:"clients"`
}

// RoomStatusResponse reports a room code's purchase status.
type RoomStatusResponse struct {
	Status string `json:"status"`
}

// BuyRoomRequest is the API request to purchase a permanent room code.
type BuyRoomRequest struct {
	RoomCode string `json:"roomCode"`
	DeviceID string `json:"deviceId"`
}

// BuyRoomResponse reports the outcome of a purchase attempt.
type BuyRoomResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// PasswordAccessRequest is the API request to check password-change access.
type PasswordAccessRequest struct {
	RoomCode string `json:"roomCode"`
	DeviceID string `json:"deviceId"`
}

// PasswordAccessResponse reports whether the device may change the room's
// password.
type PasswordAccessResponse struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

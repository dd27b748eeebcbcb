package shop

// Service names registered on the module's ServiceContainer.
const (
	ServiceCheckRoom         = "check-room"
	ServiceBuyRoom           = "buy-room"
	ServiceCanChangePassword = "can-change-password"
)

// Room availability statuses returned by the check-room service.
const (
	StatusAvailable = "available"
	StatusTaken     = "taken"
)

// CheckRoomRequest is the request for the check-room service.
type CheckRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

// CheckRoomResponse reports a room code's purchase status.
type CheckRoomResponse struct {
	Status string `json:"status"`
}

// BuyRoomRequest is the request for the buy-room service.
type BuyRoomRequest struct {
	RoomCode string `json:"roomCode"`
	DeviceID string `json:"deviceId"`
}

// BuyRoomResponse reports the outcome of a purchase attempt.
type BuyRoomResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CanChangePasswordRequest is the request for the can-change-password
// service.
type CanChangePasswordRequest struct {
	RoomCode string `json:"roomCode"`
	DeviceID string `json:"deviceId"`
}

// CanChangePasswordResponse reports whether the device may change the
// room's password, with a human-readable reason when it may not.
type CanChangePasswordResponse struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
}

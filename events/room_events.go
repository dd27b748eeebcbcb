package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomCreatedEvent is emitted when a new room is registered.
type RoomCreatedEvent struct {
	RoomCode  string    `json:"room_code"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomExpiredEvent is emitted when a room is evicted for inactivity.
type RoomExpiredEvent struct {
	RoomCode  string    `json:"room_code"`
	ExpiredAt time.Time `json:"expired_at"`
}

// MessageSentEvent is emitted when a message is relayed to a room.
type MessageSentEvent struct {
	MessageID string    `json:"message_id"`
	RoomCode  string    `json:"room_code"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the rooms domain.
var (
	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"rooms",
		"RoomCreated",
		"v1",
	)

	RoomExpiredV1 = helper.EventDefinition[RoomExpiredEvent](
		"rooms",
		"RoomExpired",
		"v1",
	)

	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"rooms",
		"MessageSent",
		"v1",
	)
)

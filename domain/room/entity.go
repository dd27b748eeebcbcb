package room

import "time"

// Message kinds. System messages are produced by the server, user messages
// by room members.
const (
	MessageTypeUser   = "user"
	MessageTypeSystem = "system"
)

// Member is a client's participation record within one room.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

// Message is a single chat message belonging to one room. Messages are
// append-only; the whole history is discarded with the room.
type Message struct {
	ID        string    `json:"id"`
	RoomCode  string    `json:"roomCode"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	UserColor string    `json:"userColor"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

// Room is the public state of an active chat room.
type Room struct {
	Code         string    `json:"code"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	Users        []Member  `json:"users"`
}

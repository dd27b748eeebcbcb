package session

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	domain "github.com/example/tempchat/domain/room"
)

// Inbound connection events.
const (
	EventJoinRoom    = "join-room"
	EventSendMessage = "send-message"
	EventTyping      = "typing"
	EventStopTyping  = "stop-typing"
)

// Outbound connection events.
const (
	EventJoined          = "joined"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
	EventReceiveMessage  = "receive-message"
	EventRoomExpired     = "room-expired"
	EventInvalidPassword = "invalid-password"
	EventError           = "error"
)

// Validation constants.
const (
	MaxMessageLength  = 1000
	MaxUsernameLength = 50
)

// Validation errors.
var (
	ErrMessageEmpty    = errors.New("message content cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrMessageInvalid  = errors.New("message contains invalid characters")
	ErrInvalidJoin     = errors.New("invalid join request")
	ErrInvalidUsername = errors.New("invalid username")
)

// Envelope is the wire format exchanged with connections. Data carries the
// event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoomPayload is the payload of a join-room event.
type JoinRoomPayload struct {
	RoomCode string         `json:"roomCode"`
	User     *domain.Member `json:"user"`
	Pass     string         `json:"pass,omitempty"`
}

// SendMessagePayload is the payload of a send-message event.
type SendMessagePayload struct {
	RoomCode string `json:"roomCode"`
	Content  string `json:"content"`
}

// TypingPayload is the payload of a typing or stop-typing event.
type TypingPayload struct {
	RoomCode string `json:"roomCode"`
}

// JoinedPayload is the full room snapshot delivered to a joining connection.
type JoinedPayload struct {
	Users    []domain.Member  `json:"users"`
	Messages []domain.Message `json:"messages"`
}

// MemberChangePayload notifies a room of a membership change. It carries the
// affected member's display name and the updated member list.
type MemberChangePayload struct {
	Username string          `json:"username"`
	Users    []domain.Member `json:"users"`
}

// ReceiveMessagePayload carries a relayed message.
type ReceiveMessagePayload struct {
	Message domain.Message `json:"message"`
}

// TypingStatePayload identifies the member whose typing state changed.
type TypingStatePayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ErrorPayload is sent to a single connection when its request fails.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ValidateContent trims message content and enforces the length bounds.
// Returns the trimmed content.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrMessageEmpty
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	if !utf8.ValidString(trimmed) {
		return "", ErrMessageInvalid
	}
	return trimmed, nil
}

// ValidateJoin checks a join payload for a usable room code and member.
func ValidateJoin(p JoinRoomPayload) error {
	if p.RoomCode == "" || p.User == nil {
		return ErrInvalidJoin
	}
	username := strings.TrimSpace(p.User.Username)
	if p.User.ID == "" || username == "" {
		return ErrInvalidJoin
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength || !utf8.ValidString(username) {
		return ErrInvalidUsername
	}
	return nil
}

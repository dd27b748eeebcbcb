package api

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/tempchat/modules/registry"
	"github.com/example/tempchat/modules/session"
)

// Rate limiting constants
const (
	messagesPerSecond = 10
	burstSize         = 20
)

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// createRoom handles POST /api/create-room.
func (m *APIModule) createRoom(c *fiber.Ctx) error {
	roomCode, err := m.registryAdapter.CreateRoom(c.UserContext())
	if err != nil {
		log.Printf("[api] Failed to create room: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to create room",
		})
	}
	return c.JSON(CreateRoomResponse{RoomCode: roomCode})
}

// getRoom handles GET /api/rooms/:code.
func (m *APIModule) getRoom(c *fiber.Ctx) error {
	code := registry.NormalizeCode(c.Params("code"))

	room, err := m.registryAdapter.GetRoom(c.UserContext(), code)
	if err != nil {
		if errors.Is(err, registry.ErrRoomNotFound) || errors.Is(err, registry.ErrInvalidCode) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "Room not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to get room",
		})
	}

	return c.JSON(RoomResponse{
		Code:      room.Code,
		CreatedAt: room.CreatedAt,
		Users:     room.Users,
		Clients:   m.hub.RoomClientCount(room.Code),
	})
}

// checkRoom handles GET /api/shop/check/:roomCode.
func (m *APIModule) checkRoom(c *fiber.Ctx) error {
	code := registry.NormalizeCode(c.Params("roomCode"))
	if !registry.IsValidCode(code) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid room code",
		})
	}

	status, err := m.shopAdapter.CheckRoom(c.UserContext(), code)
	if err != nil {
		log.Printf("[api] Failed to check room %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to check room",
		})
	}
	return c.JSON(RoomStatusResponse{Status: status})
}

// buyRoom handles POST /api/shop/buy-room.
func (m *APIModule) buyRoom(c *fiber.Ctx) error {
	var req BuyRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid request body",
		})
	}

	code := registry.NormalizeCode(req.RoomCode)
	if !registry.IsValidCode(code) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid room code",
		})
	}
	if req.DeviceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Device ID is required",
		})
	}

	result, err := m.shopAdapter.BuyRoom(c.UserContext(), code, req.DeviceID)
	if err != nil {
		log.Printf("[api] Failed to buy room %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to buy room",
		})
	}
	if !result.Success {
		return c.Status(fiber.StatusConflict).JSON(BuyRoomResponse{
			Success: false,
			Message: result.Message,
		})
	}
	return c.JSON(BuyRoomResponse{Success: true})
}

// canChangePassword handles POST /api/shop/can-change-password.
func (m *APIModule) canChangePassword(c *fiber.Ctx) error {
	var req PasswordAccessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid request body",
		})
	}

	code := registry.NormalizeCode(req.RoomCode)
	if !registry.IsValidCode(code) || req.DeviceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "roomCode and deviceId are required",
		})
	}

	result, err := m.shopAdapter.CanChangePassword(c.UserContext(), code, req.DeviceID)
	if err != nil {
		log.Printf("[api] Failed to check password access for %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to check password access",
		})
	}
	return c.JSON(PasswordAccessResponse{
		Allowed: result.Allowed,
		Message: result.Message,
	})
}

// rateLimiter implements a simple token bucket rate limiter.
type rateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate int // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(maxTokens, refillRate int) *rateLimiter {
	return &rateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	tokensToAdd := int(elapsed.Seconds()) * r.refillRate
	if tokensToAdd > 0 {
		r.tokens += tokensToAdd
		if r.tokens > r.maxTokens {
			r.tokens = r.maxTokens
		}
		r.lastRefill = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// wsConn adapts a Fiber WebSocket connection to the session.Conn interface.
// The write mutex makes Send safe for concurrent use by broadcasts and the
// read loop's direct replies.
type wsConn struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (w *wsConn) ID() string {
	return w.id
}

func (w *wsConn) Send(event string, payload any) error {
	env := session.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Data = data
	}
	msg, err := json.Marshal(env)
	if err != nil {
		return err
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, msg)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// handleWebSocket handles WebSocket connections at /ws.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	conn := &wsConn{
		id:   uuid.New().String(),
		conn: c,
	}
	limiter := newRateLimiter(burstSize, messagesPerSecond)

	m.coordinator.Register(conn)
	defer func() {
		m.coordinator.HandleDisconnect(conn)
		log.Printf("[api] WebSocket client disconnected: %s", conn.id)
	}()

	log.Printf("[api] WebSocket client connected: %s", conn.id)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Read error from %s: %v", conn.id, err)
			}
			break
		}

		var env session.Envelope
		if err := json.Unmarshal(msgBytes, &env); err != nil {
			m.sendError(conn, "Invalid message format")
			continue
		}

		m.dispatch(conn, limiter, env)
	}
}

// dispatch routes an inbound envelope to the coordinator.
func (m *APIModule) dispatch(conn *wsConn, limiter *rateLimiter, env session.Envelope) {
	switch env.Event {
	case session.EventJoinRoom:
		var p session.JoinRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			m.sendError(conn, "Invalid join payload")
			return
		}
		m.coordinator.HandleJoin(conn, p)

	case session.EventSendMessage:
		if !limiter.allow() {
			m.sendError(conn, "Rate limit exceeded, please slow down")
			return
		}
		var p session.SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			m.sendError(conn, "Invalid message payload")
			return
		}
		m.coordinator.HandleSendMessage(conn, p)

	case session.EventTyping:
		var p session.TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		m.coordinator.HandleTyping(conn, p, false)

	case session.EventStopTyping:
		var p session.TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		m.coordinator.HandleTyping(conn, p, true)

	default:
		m.sendError(conn, "Unknown event: "+env.Event)
	}
}

func (m *APIModule) sendError(conn *wsConn, message string) {
	if err := conn.Send(session.EventError, session.ErrorPayload{Message: message}); err != nil {
		log.Printf("[api] Failed to send error to %s: %v", conn.id, err)
	}
}

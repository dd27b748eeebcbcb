package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/tempchat/events"
)

// Module wraps the Registry as a mono module. It exposes room creation and
// lookup as request-reply services and publishes room lifecycle events.
type Module struct {
	registry *Registry
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
)

// NewModule creates a registry module with the given inactivity window.
func NewModule(window time.Duration) *Module {
	return &Module{
		registry: NewRegistry(window),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "registry"
}

// Registry returns the underlying registry for direct wiring in main.go.
// The session module needs synchronous access for its mutation path; the
// ServiceContainer services cover the HTTP-facing reads.
func (m *Module) Registry() *Registry {
	return m.registry
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.RoomExpiredV1.ToBase(),
	}
}

// RegisterServices registers the room request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateRoom, json.Unmarshal, json.Marshal, m.createRoom,
	); err != nil {
		return fmt.Errorf("failed to register create-room service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetRoom, json.Unmarshal, json.Marshal, m.getRoom,
	); err != nil {
		return fmt.Errorf("failed to register get-room service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.listRooms,
	); err != nil {
		return fmt.Errorf("failed to register list-rooms service: %w", err)
	}

	log.Printf("[registry] Registered services: %s, %s, %s",
		ServiceCreateRoom, ServiceGetRoom, ServiceListRooms)
	return nil
}

// Start wires the module's own expiration listener so evictions reach the
// EventBus alongside the session module's listener.
func (m *Module) Start(_ context.Context) error {
	m.registry.OnRoomExpired(func(roomCode string) {
		if m.eventBus == nil {
			return
		}
		event := events.RoomExpiredEvent{
			RoomCode:  roomCode,
			ExpiredAt: time.Now(),
		}
		if err := events.RoomExpiredV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[registry] Warning: failed to publish RoomExpired event for %s: %v", roomCode, err)
		}
	})

	log.Println("[registry] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[registry] Module stopped")
	return nil
}

// createRoom handles the create-room service request.
func (m *Module) createRoom(_ context.Context, _ CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	code := m.registry.CreateRoom()

	if m.eventBus != nil {
		event := events.RoomCreatedEvent{
			RoomCode:  code,
			CreatedAt: time.Now(),
		}
		if err := events.RoomCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			// Event publishing is best-effort; log but don't fail the operation.
			log.Printf("[registry] Warning: failed to publish RoomCreated event for %s: %v", code, err)
		}
	}

	return CreateRoomResponse{RoomCode: code}, nil
}

// getRoom handles the get-room service request. Unknown codes are reported
// via Found=false, never as an error.
func (m *Module) getRoom(_ context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	room, ok := m.registry.GetRoom(req.RoomCode)
	if !ok {
		return GetRoomResponse{Found: false}, nil
	}
	return GetRoomResponse{Found: true, Room: room}, nil
}

// listRooms handles the list-rooms service request.
func (m *Module) listRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Codes: m.registry.ActiveRooms()}, nil
}

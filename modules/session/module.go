package session

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"

	domain "github.com/example/tempchat/domain/room"
	"github.com/example/tempchat/events"
	"github.com/example/tempchat/modules/registry"
)

// Module wraps the session coordinator as a mono module.
type Module struct {
	hub         *Hub
	coordinator *Coordinator
	registry    *registry.Registry
	eventBus    mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a session module. The registry is injected from main.go
// (it is not exposed via ServiceContainer because the coordinator needs
// synchronous access on its mutation path).
func NewModule() *Module {
	return &Module{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "session"
}

// SetRegistry wires the room registry and builds the coordinator.
func (m *Module) SetRegistry(reg *registry.Registry) {
	m.registry = reg
	m.coordinator = NewCoordinator(reg, m.hub)
}

// Coordinator returns the coordinator for the transport layer to dispatch
// into.
func (m *Module) Coordinator() *Coordinator {
	return m.coordinator
}

// Hub returns the connection hub.
func (m *Module) Hub() *Hub {
	return m.hub
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
	}
}

// Start registers the coordinator as an expiration listener and wires event
// publishing for relayed messages.
func (m *Module) Start(_ context.Context) error {
	if m.coordinator == nil {
		return fmt.Errorf("registry dependency not set")
	}

	m.registry.OnRoomExpired(m.coordinator.HandleRoomExpired)

	m.coordinator.onMessageSent = func(msg domain.Message) {
		if m.eventBus == nil {
			return
		}
		event := events.MessageSentEvent{
			MessageID: msg.ID,
			RoomCode:  msg.RoomCode,
			UserID:    msg.UserID,
			Username:  msg.Username,
			Timestamp: msg.Timestamp,
		}
		if err := events.MessageSentV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[session] Warning: failed to publish MessageSent event: %v", err)
		}
	}

	log.Println("[session] Module started")
	return nil
}

// Stop force-closes any remaining connections.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	m.hub.CloseAll()
	log.Printf("[session] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.coordinator != nil,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

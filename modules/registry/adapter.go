package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/tempchat/domain/room"
)

// RegistryPort defines the room operations other modules consume through
// the ServiceContainer.
type RegistryPort interface {
	CreateRoom(ctx context.Context) (string, error)
	GetRoom(ctx context.Context, roomCode string) (*domain.Room, error)
	ActiveRooms(ctx context.Context) ([]string, error)
}

// RegistryAdapter implements RegistryPort using the service container.
type RegistryAdapter struct {
	container mono.ServiceContainer
}

// NewRegistryAdapter creates a new RegistryAdapter.
func NewRegistryAdapter(container mono.ServiceContainer) RegistryPort {
	if container == nil {
		panic("registry: ServiceContainer is nil")
	}
	return &RegistryAdapter{container: container}
}

// CreateRoom creates a new room and returns its code.
func (a *RegistryAdapter) CreateRoom(ctx context.Context) (string, error) {
	req := CreateRoomRequest{}
	var resp CreateRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreateRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}
	return resp.RoomCode, nil
}

// GetRoom retrieves a room's public state. Returns ErrInvalidCode for
// malformed codes and ErrRoomNotFound for codes that do not name a live
// room.
func (a *RegistryAdapter) GetRoom(ctx context.Context, roomCode string) (*domain.Room, error) {
	roomCode = NormalizeCode(roomCode)
	if !IsValidCode(roomCode) {
		return nil, ErrInvalidCode
	}

	req := GetRoomRequest{RoomCode: roomCode}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if !resp.Found {
		return nil, ErrRoomNotFound
	}
	return &resp.Room, nil
}

// ActiveRooms returns the codes of all active rooms.
func (a *RegistryAdapter) ActiveRooms(ctx context.Context) ([]string, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Codes, nil
}

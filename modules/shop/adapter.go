package shop

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ShopPort defines the purchase operations other modules consume through
// the ServiceContainer.
type ShopPort interface {
	CheckRoom(ctx context.Context, roomCode string) (string, error)
	BuyRoom(ctx context.Context, roomCode, deviceID string) (BuyRoomResponse, error)
	CanChangePassword(ctx context.Context, roomCode, deviceID string) (CanChangePasswordResponse, error)
}

// ShopAdapter implements ShopPort using the service container.
type ShopAdapter struct {
	container mono.ServiceContainer
}

// NewShopAdapter creates a new ShopAdapter.
func NewShopAdapter(container mono.ServiceContainer) ShopPort {
	if container == nil {
		panic("shop: ServiceContainer is nil")
	}
	return &ShopAdapter{container: container}
}

// CheckRoom returns the purchase status of a room code.
func (a *ShopAdapter) CheckRoom(ctx context.Context, roomCode string) (string, error) {
	req := CheckRoomRequest{RoomCode: roomCode}
	var resp CheckRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCheckRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return "", fmt.Errorf("failed to check room: %w", err)
	}
	return resp.Status, nil
}

// BuyRoom attempts a device-locked purchase of a room code.
func (a *ShopAdapter) BuyRoom(ctx context.Context, roomCode, deviceID string) (BuyRoomResponse, error) {
	req := BuyRoomRequest{RoomCode: roomCode, DeviceID: deviceID}
	var resp BuyRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceBuyRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return BuyRoomResponse{}, fmt.Errorf("failed to buy room: %w", err)
	}
	return resp, nil
}

// CanChangePassword checks password-change access for a purchased room.
func (a *ShopAdapter) CanChangePassword(ctx context.Context, roomCode, deviceID string) (CanChangePasswordResponse, error) {
	req := CanChangePasswordRequest{RoomCode: roomCode, DeviceID: deviceID}
	var resp CanChangePasswordResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCanChangePassword,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return CanChangePasswordResponse{}, fmt.Errorf("failed to check password access: %w", err)
	}
	return resp, nil
}

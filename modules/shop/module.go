package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"
)

// Module provides permanent-room purchase services as a mono module.
type Module struct {
	store     *Store
	client    *redis.Client
	redisAddr string
	prefix    string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
)

// NewModule creates a shop module backed by the Redis server at redisAddr.
func NewModule(redisAddr string) *Module {
	return &Module{
		redisAddr: redisAddr,
		prefix:    "shop:room:",
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "shop"
}

// Init initializes the Redis client and creates the store.
func (m *Module) Init(_ mono.ServiceContainer) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx := context.Background()
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.store = NewStore(m.client, m.prefix)
	log.Printf("[shop] Connected to Redis at %s (prefix: %s)", m.redisAddr, m.prefix)
	return nil
}

// RegisterServices registers the purchase request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCheckRoom, json.Unmarshal, json.Marshal, m.checkRoom,
	); err != nil {
		return fmt.Errorf("failed to register check-room service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceBuyRoom, json.Unmarshal, json.Marshal, m.buyRoom,
	); err != nil {
		return fmt.Errorf("failed to register buy-room service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCanChangePassword, json.Unmarshal, json.Marshal, m.canChangePassword,
	); err != nil {
		return fmt.Errorf("failed to register can-change-password service: %w", err)
	}

	log.Printf("[shop] Registered services: %s, %s, %s",
		ServiceCheckRoom, ServiceBuyRoom, ServiceCanChangePassword)
	return nil
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[shop] Module started")
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
	}
	log.Println("[shop] Module stopped")
	return nil
}

// checkRoom handles the check-room service request.
func (m *Module) checkRoom(ctx context.Context, req CheckRoomRequest, _ *mono.Msg) (CheckRoomResponse, error) {
	taken, err := m.store.IsTaken(ctx, req.RoomCode)
	if err != nil {
		return CheckRoomResponse{}, err
	}
	if taken {
		return CheckRoomResponse{Status: StatusTaken}, nil
	}
	return CheckRoomResponse{Status: StatusAvailable}, nil
}

// buyRoom handles the buy-room service request.
func (m *Module) buyRoom(ctx context.Context, req BuyRoomRequest, _ *mono.Msg) (BuyRoomResponse, error) {
	if err := m.store.Buy(ctx, req.RoomCode, req.DeviceID); err != nil {
		if errors.Is(err, ErrAlreadyPurchased) {
			return BuyRoomResponse{Success: false, Message: "Room already purchased"}, nil
		}
		return BuyRoomResponse{}, err
	}
	log.Printf("[shop] Room purchased: %s", req.RoomCode)
	return BuyRoomResponse{Success: true}, nil
}

// canChangePassword handles the can-change-password service request.
func (m *Module) canChangePassword(ctx context.Context, req CanChangePasswordRequest, _ *mono.Msg) (CanChangePasswordResponse, error) {
	err := m.store.CanChangePassword(ctx, req.RoomCode, req.DeviceID)
	switch {
	case err == nil:
		return CanChangePasswordResponse{Allowed: true}, nil
	case errors.Is(err, ErrNotPurchased):
		return CanChangePasswordResponse{Allowed: false, Message: "Room not found"}, nil
	case errors.Is(err, ErrDeviceMismatch):
		return CanChangePasswordResponse{Allowed: false, Message: "Not your device"}, nil
	case errors.Is(err, ErrWindowExpired):
		return CanChangePasswordResponse{Allowed: false, Message: "48-hour window expired"}, nil
	default:
		return CanChangePasswordResponse{}, err
	}
}

// Package shop implements the permanent-room purchase flow: a thin CRUD
// layer over Redis, keyed by room code.
package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// passwordChangeWindow is how long after purchase the owning device may
// change the room password.
const passwordChangeWindow = 48 * time.Hour

// Sentinel errors for shop operations.
var (
	ErrAlreadyPurchased = errors.New("room already purchased")
	ErrNotPurchased     = errors.New("room not purchased")
	ErrDeviceMismatch   = errors.New("room is locked to another device")
	ErrWindowExpired    = errors.New("password change window expired")
)

// PurchasedRoom is the stored record for one permanent room.
type PurchasedRoom struct {
	PurchasedAt            time.Time `json:"purchasedAt"`
	DeviceID               string    `json:"deviceId"`
	CanChangePasswordUntil time.Time `json:"canChangePasswordUntil"`
}

// Store provides purchased-room storage over Redis.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore creates a store using the given Redis client.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

func (s *Store) key(roomCode string) string {
	return s.prefix + roomCode
}

// IsTaken reports whether a room code has already been purchased.
func (s *Store) IsTaken(ctx context.Context, roomCode string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(roomCode)).Result()
	if err != nil {
		return false, fmt.Errorf("shop exists check: %w", err)
	}
	return n > 0, nil
}

// Buy records a device-locked purchase of a room code. Fails with
// ErrAlreadyPurchased when the code is taken.
func (s *Store) Buy(ctx context.Context, roomCode, deviceID string) error {
	now := time.Now()
	record := PurchasedRoom{
		PurchasedAt:            now,
		DeviceID:               deviceID,
		CanChangePasswordUntil: now.Add(passwordChangeWindow),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("shop marshal: %w", err)
	}

	// SetNX keeps the purchase atomic: first buyer wins.
	ok, err := s.client.SetNX(ctx, s.key(roomCode), data, 0).Result()
	if err != nil {
		return fmt.Errorf("shop buy: %w", err)
	}
	if !ok {
		return ErrAlreadyPurchased
	}
	return nil
}

// Get returns the purchase record for a room code, or ErrNotPurchased.
func (s *Store) Get(ctx context.Context, roomCode string) (*PurchasedRoom, error) {
	data, err := s.client.Get(ctx, s.key(roomCode)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotPurchased
		}
		return nil, fmt.Errorf("shop get: %w", err)
	}

	var record PurchasedRoom
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("shop unmarshal: %w", err)
	}
	return &record, nil
}

// CanChangePassword checks whether deviceID may still change the password
// of a purchased room. Returns ErrNotPurchased, ErrDeviceMismatch or
// ErrWindowExpired when it may not.
func (s *Store) CanChangePassword(ctx context.Context, roomCode, deviceID string) error {
	record, err := s.Get(ctx, roomCode)
	if err != nil {
		return err
	}
	if record.DeviceID != deviceID {
		return ErrDeviceMismatch
	}
	if time.Now().After(record.CanChangePasswordUntil) {
		return ErrWindowExpired
	}
	return nil
}

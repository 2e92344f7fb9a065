package service

import (
	"context"
	"errors"

	"github.com/wricardo/bingo-rooms/game/room"
)

var ErrInvalidHostName = errors.New("host_name must be between 1 and 24 characters")

// Host name bounds, in characters.
const (
	MinHostNameLength = 1
	MaxHostNameLength = 24
)

// RoomService defines the room operations exposed over REST and MCP.
type RoomService interface {
	CreateRoom(ctx context.Context, hostName string) (*CreateRoomResult, error)
	GetRoom(ctx context.Context, roomID string) (*room.State, error)
	Stats(ctx context.Context) (*Stats, error)
}

// RoomRegistry defines the room storage operations the service needs.
type RoomRegistry interface {
	Create(hostName string) *room.Room
	Get(id string) (*room.Room, error)
	Count() int
}

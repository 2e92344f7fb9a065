package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/wricardo/bingo-rooms/game/room"
)

// roomServiceImpl implements the RoomService interface
type roomServiceImpl struct {
	rooms RoomRegistry
}

// NewRoomService creates a new room service backed by the given registry
func NewRoomService(rooms RoomRegistry) RoomService {
	return &roomServiceImpl{rooms: rooms}
}

// CreateRoom validates the host name and registers a new room
func (s *roomServiceImpl) CreateRoom(ctx context.Context, hostName string) (*CreateRoomResult, error) {
	if n := utf8.RuneCountInString(hostName); n < MinHostNameLength || n > MaxHostNameLength {
		return nil, ErrInvalidHostName
	}

	rm := s.rooms.Create(hostName)
	return &CreateRoomResult{RoomID: rm.ID()}, nil
}

// GetRoom returns a snapshot of the room, looked up case-insensitively
func (s *roomServiceImpl) GetRoom(ctx context.Context, roomID string) (*room.State, error) {
	rm, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomID, err)
	}

	state := rm.Snapshot()
	return &state, nil
}

// Stats reports how many rooms are live
func (s *roomServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	return &Stats{Rooms: s.rooms.Count()}, nil
}

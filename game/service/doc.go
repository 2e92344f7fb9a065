// Package service provides the request-facing layer of the bingo server.
//
// The service package implements:
//   - Room creation with host-name validation
//   - Room lookup returning a point-in-time snapshot
//   - Server statistics for health checks
//
// Core Interfaces:
//
// RoomService is consumed by the REST API. RoomRegistry is the storage it
// needs; *registry.Registry satisfies it.
//
// Live play (joining, starting, drawing, claiming) does not pass through this
// layer: the WebSocket gateway talks to rooms directly.
//
// Usage:
//
//	reg := registry.New(registry.WithCodeLength(6))
//	svc := service.NewRoomService(reg)
//
//	res, err := svc.CreateRoom(ctx, "Alice")
//	if err != nil {
//		return err
//	}
//	state, err := svc.GetRoom(ctx, res.RoomID)
package service

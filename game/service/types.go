package service

// CreateRoomRequest is the body of a create-room call.
type CreateRoomRequest struct {
	HostName string `json:"host_name"`
}

// CreateRoomResult identifies a newly created room.
type CreateRoomResult struct {
	RoomID string `json:"room_id"`
}

// Stats summarizes the server for health checks.
type Stats struct {
	Rooms int `json:"rooms"`
}

// Package api provides the HTTP surface of the bingo server.
//
// Endpoints:
//   - POST /room - Create a room; body {"host_name": "..."}, returns {"room_id": "..."}
//   - GET /room/{room_id} - Room snapshot (players, host, status, draw history)
//   - GET /health - Liveness plus the number of live rooms
//   - GET /ws - WebSocket upgrade, handed to the player gateway
//
// Other handlers, such as the MCP endpoint, are attached with Server.Mount.
//
// Error Handling:
//
// Errors are returned as JSON with an appropriate status code:
//
//	{"error": "Room not found"}
//
// Malformed bodies get 400, invalid host names 422 and unknown rooms 404.
//
// CORS:
//
// Requests from an allowed origin get Access-Control-Allow-* headers and any
// OPTIONS request is answered with 204 before routing.
package api

// Package mcp exposes room management to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API, so the same tools work against an external server or one started in
// process.
//
// MCP Tools:
//   - create_room: Create a room for a host name
//   - get_room: Room snapshot rendered as text
//   - server_health: Server status and live room count
//   - game_instructions: Rules and the WebSocket message protocol
//
// Gameplay itself (start, draw, claims) happens over WebSocket and has no
// tool; agents get the protocol from game_instructions.
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: client.HTTPHandler() mounted at POST /mcp
package mcp

// Package websocket is the player gateway: one WebSocket per player per room.
//
// Connecting:
//
// Clients dial /ws?room_id=ABC123&player_name=Alice. The room code is
// case-insensitive. If the parameters are missing, the room does not exist or
// the name is already in use, the client receives a single error message and
// the socket is closed. On success the other players receive player_joined and
// the new player receives a room_state snapshot.
//
// Message Protocol:
//
// Every frame is one JSON object with a "type" field.
//   - Incoming: start_game, draw_number, bingo_claim {card}, chat {text}, get_state
//   - Outgoing: room_state, player_joined, player_left, game_started,
//     number_drawn, game_finished, bingo_valid, chat, already_declared, error
//
// Failed requests are answered with {"type":"error","message":...} sent to the
// requester only. The session stays open.
//
// Connection Lifecycle:
//
// 1. Upgrade and join the room
// 2. Register with the hub
// 3. Read pump dispatches requests to the room; write pump drains the queue
// 4. Read pump exit leaves the room and drops it from the registry if empty
//
// Ordering:
//
// Rooms enqueue outbound frames while holding their own lock, so all players
// see one room's messages in the same order. A client whose queue is full or
// closed is dropped from the room by the next broadcast.
package websocket

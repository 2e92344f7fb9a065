// Package registry keeps the live bingo rooms, keyed by room code.
//
// The registry implements:
//   - Room creation under a fresh, unique code
//   - Case-insensitive lookup
//   - Removal of rooms whose last player left
//
// Room Codes:
//
// Codes are uppercase alphanumeric strings of a configurable length
// (6 by default). Creation tries six codes at that length and then falls back
// to codes two characters longer, so creation never fails.
//
// Concurrency:
//
// One RWMutex guards the code map. Create holds the write lock for the whole
// retry sequence, so two concurrent creates can never claim the same code.
// Lookups share the read lock. Each room has its own lock for game state, so
// unrelated rooms never contend.
//
// Cleanup:
//
// There is no background sweep. The WebSocket gateway calls CleanupIfEmpty
// after every disconnect. The room is closed under its own lock before it is
// dropped, which makes a racing join fail with room.ErrRoomClosed rather than
// join a room nobody can find.
package registry

// Package room implements a single bingo game session.
//
// A Room owns its members, the draw pool and history, the game status and
// the set of winners. The host named at creation is the only player allowed
// to start the game and draw numbers.
//
// Lifecycle:
//
//	waiting --Start--> started --Draw (pool empty)--> finished
//	                          \--Claim--------------> finished
//
// finished is terminal. A claim finishes the game from any status.
//
// Concurrency:
//
// Every operation runs under the room's own mutex, and the messages it
// produces are enqueued on each member's Conn before the mutex is released.
// Two members therefore always observe the same message order. Rooms never
// contend with each other.
//
// Conn.Send must not block. Members whose Send fails are removed after the
// fan-out finishes, without a player_left announcement.
//
// Usage:
//
//	r := room.New("AB12CD", "Alice")
//	if err := r.Join("Alice", conn); err != nil {
//		return err
//	}
//	if err := r.Start("Alice"); err != nil {
//		return err
//	}
//	n, ok, err := r.Draw("Alice")
package room

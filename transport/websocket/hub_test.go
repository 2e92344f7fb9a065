package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/bingo-rooms/game/registry"
	"github.com/wricardo/bingo-rooms/game/room"
)

type testEnv struct {
	hub    *Hub
	rooms  *registry.Registry
	server *httptest.Server
	cancel context.CancelFunc
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestEnv(t *testing.T, roomOpts ...room.Option) *testEnv {
	t.Helper()

	logger := quietLogger()
	rooms := registry.New(registry.WithLogger(logger), registry.WithRoomOptions(roomOpts...))
	hub := NewHub(rooms, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	env := &testEnv{hub: hub, rooms: rooms, server: server, cancel: cancel}
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return env
}

func (e *testEnv) dial(t *testing.T, roomID, name string) *websocket.Conn {
	t.Helper()

	q := url.Values{}
	if roomID != "" {
		q.Set("room_id", roomID)
	}
	if name != "" {
		q.Set("player_name", name)
	}
	u := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?" + q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// join dials and consumes the player_joined and room_state frames every
// successful joiner receives.
func (e *testEnv) join(t *testing.T, roomID, name string) *websocket.Conn {
	t.Helper()
	conn := e.dial(t, roomID, name)
	expectType(t, conn, room.TypePlayerJoined)
	expectType(t, conn, room.TypeRoomState)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func expectType(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, typ, msg["type"], "unexpected message: %v", msg)
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func expectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.False(t, websocket.IsUnexpectedCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestNewHub(t *testing.T) {
	hub := NewHub(registry.New(), nil)

	require.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.logger)
	assert.Zero(t, hub.ClientCount())
}

func TestJoinSendsAnnouncementAndSnapshot(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")

	alice := env.dial(t, strings.ToLower(rm.ID()), "Alice")
	joined := expectType(t, alice, room.TypePlayerJoined)
	assert.Equal(t, "Alice", joined["name"])
	assert.Equal(t, []any{"Alice"}, joined["players"])

	state := expectType(t, alice, room.TypeRoomState)
	assert.Equal(t, rm.ID(), state["room_id"])
	assert.Equal(t, "Alice", state["host"])
	assert.Equal(t, string(room.StatusWaiting), state["status"])
	assert.Equal(t, []any{}, state["draw_history"])

	env.join(t, rm.ID(), "Bob")
	joined = expectType(t, alice, room.TypePlayerJoined)
	assert.Equal(t, "Bob", joined["name"])
	assert.Equal(t, []any{"Alice", "Bob"}, joined["players"])

	assert.Eventually(t, func() bool { return env.hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)
}

func TestJoinRejections(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")

	tests := []struct {
		name    string
		roomID  string
		player  string
		message string
	}{
		{name: "duplicate name", roomID: rm.ID(), player: "Alice", message: "Name already taken in this room"},
		{name: "unknown room", roomID: "NOPE42", player: "Bob", message: "Room not found"},
		{name: "missing player name", roomID: rm.ID(), message: "Missing room_id or player_name"},
		{name: "missing room id", player: "Bob", message: "Missing room_id or player_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := env.dial(t, tt.roomID, tt.player)
			msg := expectType(t, conn, room.TypeError)
			assert.Equal(t, tt.message, msg["message"])
			expectClosed(t, conn)
		})
	}

	// The rejected duplicate never reached the room.
	assert.Equal(t, []string{"Alice"}, rm.Players())
	send(t, alice, map[string]any{"type": "get_state"})
	state := expectType(t, alice, room.TypeRoomState)
	assert.Equal(t, []any{"Alice"}, state["players"])
}

func TestHostStartsAndDraws(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")
	bob := env.join(t, rm.ID(), "Bob")
	expectType(t, alice, room.TypePlayerJoined)

	send(t, alice, map[string]any{"type": "start_game"})
	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := expectType(t, conn, room.TypeGameStarted)
		assert.Equal(t, []any{}, msg["draw_history"])
	}

	send(t, alice, map[string]any{"type": "draw_number"})
	a := expectType(t, alice, room.TypeNumberDrawn)
	b := expectType(t, bob, room.TypeNumberDrawn)
	assert.Equal(t, a["number"], b["number"])
	n := a["number"].(float64)
	assert.True(t, n >= 1 && n <= room.PoolSize)
	assert.Equal(t, []any{n}, a["history"])
}

func TestNonHostRequestsAreRejected(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")
	bob := env.join(t, rm.ID(), "Bob")
	expectType(t, alice, room.TypePlayerJoined)

	send(t, bob, map[string]any{"type": "start_game"})
	msg := expectType(t, bob, room.TypeError)
	assert.Equal(t, "Only host can start the game", msg["message"])

	send(t, alice, map[string]any{"type": "draw_number"})
	msg = expectType(t, alice, room.TypeError)
	assert.Equal(t, "Game not started", msg["message"])

	send(t, alice, map[string]any{"type": "start_game"})
	expectType(t, alice, room.TypeGameStarted)
	expectType(t, bob, room.TypeGameStarted)

	send(t, bob, map[string]any{"type": "draw_number"})
	msg = expectType(t, bob, room.TypeError)
	assert.Equal(t, "Only host can draw numbers", msg["message"])

	// The session survives the errors.
	send(t, bob, map[string]any{"type": "chat", "text": "still here"})
	for _, conn := range []*websocket.Conn{alice, bob} {
		chat := expectType(t, conn, room.TypeChat)
		assert.Equal(t, "Bob", chat["from"])
		assert.Equal(t, "still here", chat["text"])
	}
}

func TestMalformedAndUnknownMessages(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")

	send(t, alice, map[string]any{"type": "dance"})
	msg := expectType(t, alice, room.TypeError)
	assert.Equal(t, "Unknown message type: dance", msg["message"])

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg = expectType(t, alice, room.TypeError)
	assert.Equal(t, "Invalid message", msg["message"])

	send(t, alice, map[string]any{"type": "get_state"})
	expectType(t, alice, room.TypeRoomState)
}

func TestBingoClaim(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")
	bob := env.join(t, rm.ID(), "Bob")
	expectType(t, alice, room.TypePlayerJoined)

	send(t, bob, map[string]any{"type": "bingo_claim", "card": [][]int{{1, 2, 3, 4, 5}}})
	for _, conn := range []*websocket.Conn{alice, bob} {
		valid := expectType(t, conn, room.TypeBingoValid)
		assert.Equal(t, "Bob", valid["name"])
		finished := expectType(t, conn, room.TypeGameFinished)
		assert.Equal(t, []any{"Bob"}, finished["winners"])
	}

	send(t, bob, map[string]any{"type": "bingo_claim"})
	msg := expectType(t, bob, room.TypeAlreadyDeclared)
	assert.Equal(t, "Already declared", msg["message"])
}

func TestDisconnectLeavesAndCleansUp(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")
	bob := env.join(t, rm.ID(), "Bob")
	expectType(t, alice, room.TypePlayerJoined)

	require.NoError(t, bob.Close())
	left := expectType(t, alice, room.TypePlayerLeft)
	assert.Equal(t, "Bob", left["name"])
	assert.Equal(t, []any{"Alice"}, left["players"])

	_, err := env.rooms.Get(rm.ID())
	require.NoError(t, err, "room with a player must survive")

	// The name is free again.
	env.join(t, rm.ID(), "Bob")
	expectType(t, alice, room.TypePlayerJoined)

	require.NoError(t, alice.Close())
	assert.Eventually(t, func() bool { return rm.PlayerCount() == 1 }, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return env.hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestLastPlayerLeavingRemovesRoom(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")

	require.NoError(t, alice.Close())

	assert.Eventually(t, func() bool {
		_, err := env.rooms.Get(rm.ID())
		return err != nil
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return env.hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	conn := env.dial(t, rm.ID(), "Alice")
	msg := expectType(t, conn, room.TypeError)
	assert.Equal(t, "Room not found", msg["message"])
}

func TestRunClosesConnectionsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")
	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	env.cancel()

	alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := alice.ReadMessage()
	require.Error(t, err)

	assert.Eventually(t, func() bool {
		_, err := env.rooms.Get(rm.ID())
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestBingoClaimWithFreeCell(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")

	send(t, alice, map[string]any{"type": "start_game"})
	expectType(t, alice, room.TypeGameStarted)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"bingo_claim","card":[[1,2,"FREE",4,5]]}`)))
	valid := expectType(t, alice, room.TypeBingoValid)
	assert.Equal(t, "Alice", valid["name"])
	expectType(t, alice, room.TypeGameFinished)
	assert.Equal(t, room.StatusFinished, rm.Status())
	assert.Equal(t, []string{"Alice"}, rm.Winners())
}

func TestChatWithNonStringText(t *testing.T) {
	env := newTestEnv(t)
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","text":42}`)))
	chat := expectType(t, alice, room.TypeChat)
	assert.Equal(t, "42", chat["text"])
}

func TestHandlerPanicKeepsSession(t *testing.T) {
	panicking := room.ClaimValidatorFunc(func(room.Card, []int) error { panic("validator exploded") })
	env := newTestEnv(t, room.WithClaimValidator(panicking))
	rm := env.rooms.Create("Alice")
	alice := env.join(t, rm.ID(), "Alice")

	send(t, alice, map[string]any{"type": "bingo_claim", "card": [][]int{{1}}})
	msg := expectType(t, alice, room.TypeError)
	assert.Equal(t, "Server error", msg["message"])

	send(t, alice, map[string]any{"type": "get_state"})
	state := expectType(t, alice, room.TypeRoomState)
	assert.Equal(t, []any{"Alice"}, state["players"])
}

func TestInboundMessagePayloads(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCard room.Card
		wantText string
	}{
		{name: "int grid", raw: `{"card":[[1,2],[3,0]]}`, wantCard: room.Card{{1, 2}, {3, 0}}},
		{name: "free cell", raw: `{"card":[[1,"FREE",3]]}`, wantCard: room.Card{{1, 0, 3}}},
		{name: "not a grid", raw: `{"card":"B-I-N-G-O"}`},
		{name: "missing card", raw: `{}`},
		{name: "null card", raw: `{"card":null}`},
		{name: "string text", raw: `{"text":"hello"}`, wantText: "hello"},
		{name: "object text", raw: `{"text":{"emoji":"tada"}}`, wantText: `{"emoji":"tada"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg InboundMessage
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &msg))
			assert.Equal(t, tt.wantCard, msg.ClaimCard())
			assert.Equal(t, tt.wantText, msg.ChatText())
		})
	}
}

func TestClientSend(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}

	require.NoError(t, c.Send([]byte("one")))
	assert.ErrorIs(t, c.Send([]byte("two")), ErrSendQueueFull)

	c.closeSend()
	assert.ErrorIs(t, c.Send([]byte("three")), ErrClientClosed)
	c.closeSend()
}

func TestClientErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "unauthorized", err: room.ErrNotHostDraw, want: "Only host can draw numbers"},
		{name: "illegal state", err: room.ErrFinished, want: "Game already finished"},
		{name: "unknown type", err: unknownTypeError("x"), want: "Unknown message type: x"},
		{name: "internal", err: io.ErrUnexpectedEOF, want: "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clientErrorMessage(tt.err))
		})
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/bingo-rooms/game/room"
)

// event is the union of every server message the client prints.
type event struct {
	Type        string   `json:"type"`
	RoomID      string   `json:"room_id"`
	Host        string   `json:"host"`
	Status      string   `json:"status"`
	Name        string   `json:"name"`
	Players     []string `json:"players"`
	Number      int      `json:"number"`
	History     []int    `json:"history"`
	DrawHistory []int    `json:"draw_history"`
	Winners     []string `json:"winners"`
	From        string   `json:"from"`
	Text        string   `json:"text"`
	Message     string   `json:"message"`
}

func parseEvent(data []byte) (event, error) {
	var ev event
	err := json.Unmarshal(data, &ev)
	return ev, err
}

// formatEvent renders one server message as a log line.
func formatEvent(ev event) string {
	switch ev.Type {
	case room.TypeRoomState:
		return fmt.Sprintf("room %s (%s) host=%s players=[%s] drawn=%d/%d",
			ev.RoomID, ev.Status, ev.Host, strings.Join(ev.Players, ", "), len(ev.DrawHistory), room.PoolSize)
	case room.TypePlayerJoined:
		return fmt.Sprintf("+ %s joined (%d players)", ev.Name, len(ev.Players))
	case room.TypePlayerLeft:
		return fmt.Sprintf("- %s left (%d players)", ev.Name, len(ev.Players))
	case room.TypeGameStarted:
		return "game started"
	case room.TypeNumberDrawn:
		return fmt.Sprintf("drew %d (%d/%d)", ev.Number, len(ev.History), room.PoolSize)
	case room.TypeBingoValid:
		return fmt.Sprintf("BINGO! %s", ev.Name)
	case room.TypeGameFinished:
		if len(ev.Winners) > 0 {
			return "game finished, winners: " + strings.Join(ev.Winners, ", ")
		}
		return fmt.Sprintf("game finished, all %d numbers drawn", len(ev.DrawHistory))
	case room.TypeChat:
		return fmt.Sprintf("<%s> %s", ev.From, ev.Text)
	case room.TypeAlreadyDeclared:
		return "note: " + ev.Message
	case room.TypeError:
		return "error: " + ev.Message
	default:
		return "unknown message: " + ev.Type
	}
}

// readEvents forwards decoded server messages until the connection ends or
// ctx is cancelled. The returned channel is closed after the last message;
// the final read error, if any, is sent on errc.
func readEvents(ctx context.Context, conn *websocket.Conn) (<-chan event, <-chan error) {
	events := make(chan event)
	errc := make(chan error, 1)

	go func() {
		defer close(events)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					errc <- err
				}
				return
			}
			ev, err := parseEvent(data)
			if err != nil {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, errc
}

var errConnectionClosed = errors.New("connection closed by server")

// watchRoom prints every event until the game finishes, the server closes the
// connection or ctx is cancelled.
func watchRoom(ctx context.Context, conn *websocket.Conn, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events, errc := readEvents(ctx, conn)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return closedErr(errc)
			}
			fmt.Fprintln(out, formatEvent(ev))
			if ev.Type == room.TypeError {
				return fmt.Errorf("server: %s", ev.Message)
			}
			if ev.Type == room.TypeGameFinished {
				return nil
			}
		}
	}
}

// hostGame starts the game and draws a number every interval until the game
// finishes. The connection must belong to the room's host.
func hostGame(ctx context.Context, conn *websocket.Conn, interval time.Duration, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events, errc := readEvents(ctx, conn)

	if err := conn.WriteJSON(map[string]string{"type": "start_game"}); err != nil {
		return fmt.Errorf("start game: %w", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := conn.WriteJSON(map[string]string{"type": "draw_number"}); err != nil {
				return fmt.Errorf("draw number: %w", err)
			}
		case ev, ok := <-events:
			if !ok {
				return closedErr(errc)
			}
			fmt.Fprintln(out, formatEvent(ev))
			switch ev.Type {
			case room.TypeError:
				return fmt.Errorf("server: %s", ev.Message)
			case room.TypeGameFinished:
				return nil
			}
		}
	}
}

func closedErr(errc <-chan error) error {
	select {
	case err := <-errc:
		return fmt.Errorf("%w: %v", errConnectionClosed, err)
	default:
		return errConnectionClosed
	}
}

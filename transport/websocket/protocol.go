package websocket

import (
	"encoding/json"
	"errors"

	"github.com/wricardo/bingo-rooms/game/room"
)

// Inbound message types.
const (
	TypeStartGame  = "start_game"
	TypeDrawNumber = "draw_number"
	TypeBingoClaim = "bingo_claim"
	TypeChat       = "chat"
	TypeGetState   = "get_state"
)

// InboundMessage is a frame sent by a player after joining. Card is only
// read for bingo_claim and Text only for chat. Both stay raw so a payload of
// an unexpected shape never rejects the whole frame.
type InboundMessage struct {
	Type string          `json:"type"`
	Card json.RawMessage `json:"card,omitempty"`
	Text json.RawMessage `json:"text,omitempty"`
}

// ClaimCard reads the claimed card. Cells that are not integers, such as a
// "FREE" centre, become free cells (zero). A card that is not a grid yields
// nil.
func (m InboundMessage) ClaimCard() room.Card {
	var rows [][]json.RawMessage
	if len(m.Card) == 0 || json.Unmarshal(m.Card, &rows) != nil || rows == nil {
		return nil
	}
	card := make(room.Card, len(rows))
	for i, row := range rows {
		card[i] = make([]int, len(row))
		for j, cell := range row {
			var n int
			if json.Unmarshal(cell, &n) == nil {
				card[i][j] = n
			}
		}
	}
	return card
}

// ChatText reads the chat text. A non-string value is relayed as its JSON
// text.
func (m InboundMessage) ChatText() string {
	if len(m.Text) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(m.Text, &text); err == nil {
		return text
	}
	return string(m.Text)
}

type unknownTypeError string

func (e unknownTypeError) Error() string {
	return "Unknown message type: " + string(e)
}

// isClientError reports whether err is the requester's fault and safe to
// show verbatim.
func isClientError(err error) bool {
	var unknown unknownTypeError
	return errors.Is(err, room.ErrUnauthorized) ||
		errors.Is(err, room.ErrIllegalState) ||
		errors.Is(err, room.ErrConflict) ||
		errors.As(err, &unknown)
}

// clientErrorMessage is the text sent back for a failed request.
func clientErrorMessage(err error) string {
	if isClientError(err) {
		return err.Error()
	}
	return "Server error"
}

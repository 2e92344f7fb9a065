package room

// Outbound message types. Clients discriminate on the "type" field.
const (
	TypeRoomState       = "room_state"
	TypePlayerJoined    = "player_joined"
	TypePlayerLeft      = "player_left"
	TypeGameStarted     = "game_started"
	TypeNumberDrawn     = "number_drawn"
	TypeGameFinished    = "game_finished"
	TypeBingoValid      = "bingo_valid"
	TypeChat            = "chat"
	TypeError           = "error"
	TypeAlreadyDeclared = "already_declared"
)

// State is a point-in-time view of a room. It is both the room_state message
// and the body of the room lookup endpoint.
type State struct {
	Type        string   `json:"type"`
	RoomID      string   `json:"room_id"`
	Players     []string `json:"players"`
	Host        string   `json:"host"`
	Status      Status   `json:"status"`
	DrawHistory []int    `json:"draw_history"`
}

// PlayerJoined announces a new member together with the updated roster.
type PlayerJoined struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

// PlayerLeft announces a departure together with the remaining roster.
type PlayerLeft struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

// GameStarted announces that the host started the game.
type GameStarted struct {
	Type        string `json:"type"`
	DrawHistory []int  `json:"draw_history"`
}

// NumberDrawn carries a freshly drawn number and the history including it.
type NumberDrawn struct {
	Type    string `json:"type"`
	Number  int    `json:"number"`
	History []int  `json:"history"`
}

// GameFinished carries the draw history when the pool ran out and the
// winners when a claim ended the game.
type GameFinished struct {
	Type        string   `json:"type"`
	DrawHistory []int    `json:"draw_history,omitempty"`
	Winners     []string `json:"winners,omitempty"`
}

// BingoValid announces an accepted bingo claim.
type BingoValid struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	History []int  `json:"history"`
}

// Chat is a relayed player message.
type Chat struct {
	Type string `json:"type"`
	From string `json:"from"`
	Text string `json:"text"`
}

// ErrorMessage is sent to a single client whose request failed.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorMessage builds an error record for one client.
func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}

// AlreadyDeclared tells a repeat claimant their bingo is already on record.
type AlreadyDeclared struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

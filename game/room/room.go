package room

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PoolSize is the number of balls in a game: numbers 1..PoolSize.
const PoolSize = 75

// Status is the lifecycle stage of a room.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusStarted  Status = "started"
	StatusFinished Status = "finished"
)

// Conn is a player's outbound channel.
//
// Send is called with the room lock held and must not block: it should hand
// the payload to a queue and return. A non-nil error means the connection is
// gone, and the room drops the player.
type Conn interface {
	Send(data []byte) error
}

// Player is a member of a room.
type Player struct {
	Name     string
	JoinedAt time.Time
	conn     Conn
}

// Option configures a Room.
type Option func(*Room)

// WithClaimValidator replaces the default AcceptAll validator.
func WithClaimValidator(v ClaimValidator) Option {
	return func(r *Room) {
		if v != nil {
			r.validator = v
		}
	}
}

// WithShuffle replaces the function used to shuffle the draw pool.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(r *Room) {
		if shuffle != nil {
			r.shuffle = shuffle
		}
	}
}

// WithLogger sets the logger used for membership and fan-out events.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Room) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Room is one game: its members, draw state and winners.
//
// All mutations and the fan-out that reports them happen under mu, so every
// member observes the same sequence of messages. Fan-out only enqueues onto
// each Conn; no network I/O happens while mu is held.
type Room struct {
	id        string
	host      string
	createdAt time.Time
	validator ClaimValidator
	shuffle   func(n int, swap func(i, j int))
	logger    logrus.FieldLogger

	mu        sync.Mutex
	players   map[string]*Player
	order     []string
	status    Status
	pool      []int
	history   []int
	winners   []string
	winnerSet map[string]struct{}
	closed    bool
}

// New creates a waiting room with a full, unshuffled pool.
func New(id, host string, opts ...Option) *Room {
	r := &Room{
		id:        id,
		host:      host,
		createdAt: time.Now(),
		validator: AcceptAll,
		shuffle:   rand.Shuffle,
		logger:    logrus.StandardLogger(),
		players:   make(map[string]*Player),
		status:    StatusWaiting,
		pool:      make([]int, PoolSize),
		history:   make([]int, 0, PoolSize),
		winnerSet: make(map[string]struct{}),
	}
	for i := range r.pool {
		r.pool[i] = i + 1
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithField("room_id", id)
	return r
}

func (r *Room) ID() string           { return r.id }
func (r *Room) Host() string         { return r.host }
func (r *Room) CreatedAt() time.Time { return r.createdAt }

func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *Room) HasPlayer(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[name]
	return ok
}

// Players returns member names in join order.
func (r *Room) Players() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

// Winners returns declared winners in declaration order.
func (r *Room) Winners() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.winners...)
}

// Snapshot returns the current state of the room.
func (r *Room) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

// Join adds a player, announces it to every member (the joiner included) and
// then sends the joiner a room_state snapshot.
func (r *Room) Join(name string, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}
	if _, ok := r.players[name]; ok {
		return ErrNameTaken
	}

	r.players[name] = &Player{Name: name, JoinedAt: time.Now(), conn: conn}
	r.order = append(r.order, name)
	r.logger.WithField("player", name).Info("player joined")

	r.broadcastLocked(PlayerJoined{Type: TypePlayerJoined, Name: name, Players: r.namesLocked()})
	r.sendLocked(name, r.stateLocked())
	return nil
}

// Leave removes a player and tells the others. It reports whether the player
// was removed. If conn is non-nil the player is only removed while conn still
// owns the name; an absent player is not an error.
func (r *Room) Leave(name string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[name]
	if !ok || (conn != nil && p.conn != conn) {
		return false
	}

	r.removeLocked(name)
	r.logger.WithField("player", name).Info("player left")
	r.broadcastLocked(PlayerLeft{Type: TypePlayerLeft, Name: name, Players: r.namesLocked()})
	return true
}

// Start shuffles the pool and opens the game. Only the host may start; a
// start on a room that is not waiting does nothing.
func (r *Room) Start(requester string) error {
	if requester != r.host {
		return ErrNotHostStart
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusWaiting {
		return nil
	}

	r.shuffle(len(r.pool), func(i, j int) { r.pool[i], r.pool[j] = r.pool[j], r.pool[i] })
	r.status = StatusStarted
	r.logger.Info("game started")

	r.broadcastLocked(GameStarted{Type: TypeGameStarted, DrawHistory: r.historyLocked()})
	return nil
}

// Draw takes the next number from the pool. ok is false when nothing was
// drawn. Drawing the last number finishes the game.
func (r *Room) Draw(requester string) (number int, ok bool, err error) {
	if requester != r.host {
		return 0, false, ErrNotHostDraw
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status {
	case StatusWaiting:
		return 0, false, ErrNotStarted
	case StatusFinished:
		return 0, false, ErrFinished
	}

	if len(r.pool) == 0 {
		r.finishLocked()
		return 0, false, nil
	}

	last := len(r.pool) - 1
	number = r.pool[last]
	r.pool = r.pool[:last]
	r.history = append(r.history, number)

	r.broadcastLocked(NumberDrawn{Type: TypeNumberDrawn, Number: number, History: r.historyLocked()})
	if len(r.pool) == 0 {
		r.finishLocked()
	}
	return number, true, nil
}

// Claim records a bingo for name and ends the game. A player who already
// declared only gets an already_declared notice.
func (r *Room) Claim(name string, card Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.winnerSet[name]; dup {
		r.sendLocked(name, AlreadyDeclared{Type: TypeAlreadyDeclared, Message: "Already declared"})
		return nil
	}

	if err := r.validator.Validate(card, r.historyLocked()); err != nil {
		r.logger.WithField("player", name).WithError(err).Info("bingo claim rejected")
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}

	r.winnerSet[name] = struct{}{}
	r.winners = append(r.winners, name)
	r.status = StatusFinished
	r.logger.WithField("player", name).Info("bingo declared")

	r.broadcastLocked(BingoValid{Type: TypeBingoValid, Name: name, History: r.historyLocked()})
	r.broadcastLocked(GameFinished{Type: TypeGameFinished, Winners: append([]string(nil), r.winners...)})
	return nil
}

// Chat relays a message from one player to everyone.
func (r *Room) Chat(from, text string) {
	r.Broadcast(Chat{Type: TypeChat, From: from, Text: text})
}

// Broadcast sends msg to every member. Members whose connection fails are
// dropped once the fan-out is complete; the others still get the message.
func (r *Room) Broadcast(msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(msg)
}

// SendTo sends msg to a single member, if present.
func (r *Room) SendTo(name string, msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sendLocked(name, msg)
}

// CloseIfEmpty marks an empty room closed so that later joins fail. It
// reports whether the room is now closed.
func (r *Room) CloseIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) > 0 {
		return false
	}
	r.closed = true
	return true
}

func (r *Room) finishLocked() {
	r.status = StatusFinished
	r.logger.WithField("draws", len(r.history)).Info("game finished")
	r.broadcastLocked(GameFinished{Type: TypeGameFinished, DrawHistory: r.historyLocked()})
}

func (r *Room) broadcastLocked(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.WithError(err).Error("failed to marshal broadcast")
		return
	}

	var failed []string
	for _, name := range r.order {
		if err := r.players[name].conn.Send(data); err != nil {
			failed = append(failed, name)
		}
	}
	for _, name := range failed {
		r.logger.WithField("player", name).Warn("dropping player after failed send")
		r.removeLocked(name)
	}
}

func (r *Room) sendLocked(name string, msg any) {
	p, ok := r.players[name]
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.WithError(err).Error("failed to marshal message")
		return
	}
	if err := p.conn.Send(data); err != nil {
		r.logger.WithField("player", name).Warn("dropping player after failed send")
		r.removeLocked(name)
	}
}

func (r *Room) removeLocked(name string) {
	if _, ok := r.players[name]; !ok {
		return
	}
	delete(r.players, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Room) stateLocked() State {
	return State{
		Type:        TypeRoomState,
		RoomID:      r.id,
		Players:     r.namesLocked(),
		Host:        r.host,
		Status:      r.status,
		DrawHistory: r.historyLocked(),
	}
}

func (r *Room) namesLocked() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *Room) historyLocked() []int {
	h := make([]int, len(r.history))
	copy(h, r.history)
	return h
}

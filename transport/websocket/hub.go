package websocket

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/bingo-rooms/game/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound messages queued per client before it counts as stalled.
	sendBufferSize = 256
)

// RoomStore is the part of the room registry the gateway needs.
type RoomStore interface {
	Get(id string) (*room.Room, error)
	CleanupIfEmpty(id string) bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithOriginCheck sets the upgrader's origin policy.
func WithOriginCheck(check func(r *http.Request) bool) Option {
	return func(h *Hub) {
		if check != nil {
			h.upgrader.CheckOrigin = check
		}
	}
}

// Hub accepts player connections and tracks every live client
type Hub struct {
	rooms    RoomStore
	upgrader websocket.Upgrader
	logger   logrus.FieldLogger

	// Live clients, owned by the Run loop
	clients map[*Client]bool
	count   atomic.Int64

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}
}

// NewHub creates a new WebSocket hub
func NewHub(rooms RoomStore, logger logrus.FieldLogger, opts ...Option) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &Hub{
		rooms:  rooms,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's event loop. When ctx is cancelled every live
// connection is closed, which makes each client leave its room.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.count.Store(int64(len(h.clients)))
			}

		case <-ctx.Done():
			h.logger.WithField("clients", len(h.clients)).Info("closing websocket connections")
			for client := range h.clients {
				client.conn.Close()
			}
			h.clients = make(map[*Client]bool)
			h.count.Store(0)
			return
		}
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// ServeWS upgrades the request and joins the player named by the
// player_name query parameter to the room named by room_id. Join failures
// are reported with a single error message before the socket is closed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	query := r.URL.Query()
	roomID := strings.ToUpper(query.Get("room_id"))
	playerName := query.Get("player_name")

	log := h.logger.WithFields(logrus.Fields{
		"room_id": roomID,
		"player":  playerName,
	})

	if roomID == "" || playerName == "" {
		h.reject(conn, "Missing room_id or player_name")
		return
	}

	rm, err := h.rooms.Get(roomID)
	if err != nil {
		log.Info("join rejected: room not found")
		h.reject(conn, "Room not found")
		return
	}

	client := newClient(h, conn, rm, playerName)
	if err := rm.Join(playerName, client); err != nil {
		switch {
		case errors.Is(err, room.ErrNameTaken):
			log.Info("join rejected: name taken")
			h.reject(conn, room.ErrNameTaken.Error())
		case errors.Is(err, room.ErrRoomClosed):
			log.Info("join rejected: room closed")
			h.reject(conn, "Room not found")
		default:
			log.WithError(err).Error("join failed")
			h.reject(conn, "Server error")
		}
		return
	}

	select {
	case h.register <- client:
	case <-h.done:
		// Shutting down; the read pump sees the closed socket and leaves.
		conn.Close()
	}

	client.logger.Info("client connected")

	go client.writePump()
	go client.readPump()
}

// reject sends one error message and closes the connection.
func (h *Hub) reject(conn *websocket.Conn, message string) {
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(room.NewErrorMessage(message)); err != nil {
		return
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message))
}

// leave runs when a client's read loop ends: the player leaves the room and
// the room is dropped if it is now empty.
func (h *Hub) leave(c *Client) {
	c.room.Leave(c.name, c)
	h.rooms.CleanupIfEmpty(c.room.ID())

	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func newClientID() string {
	return uuid.NewString()
}

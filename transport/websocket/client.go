package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/bingo-rooms/game/room"
)

var (
	ErrClientClosed  = errors.New("client connection closed")
	ErrSendQueueFull = errors.New("client send queue full")
)

// Client is one player's WebSocket connection. It implements room.Conn.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	room   *room.Room
	name   string
	logger logrus.FieldLogger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, rm *room.Room, name string) *Client {
	id := newClientID()
	return &Client{
		id:   id,
		hub:  h,
		conn: conn,
		room: rm,
		name: name,
		send: make(chan []byte, sendBufferSize),
		logger: h.logger.WithFields(logrus.Fields{
			"client_id": id,
			"room_id":   rm.ID(),
			"player":    name,
		}),
	}
}

// Send queues data for the write pump without blocking. It fails once the
// connection is closed or when the client has fallen sendBufferSize messages
// behind; a full queue also shuts the connection down.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		c.closed = true
		close(c.send)
		return ErrSendQueueFull
	}
}

// sendJSON queues a message for this client only.
func (c *Client) sendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.WithError(err).Error("failed to marshal message")
		return
	}
	if err := c.Send(data); err != nil {
		c.logger.WithError(err).Debug("dropping direct message")
	}
}

// closeSend stops the write pump after it drains what is queued.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump handles the client's inbound messages until the connection ends.
// Its exit is the disconnect event: the player leaves the room.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.closeSend()
		c.conn.Close()
		c.logger.Info("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Warn("websocket read error")
			}
			return
		}
		c.handle(data)
	}
}

// writePump pumps queued messages to the WebSocket connection, one frame per
// message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The read pump closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle processes one inbound frame. A fault while handling it is reported
// to this client only and never ends the session.
func (c *Client) handle(data []byte) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.WithField("panic", fmt.Sprint(p)).Error("message handler panicked")
			c.sendJSON(room.NewErrorMessage("Server error"))
		}
	}()

	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendJSON(room.NewErrorMessage("Invalid message"))
		return
	}

	if err := c.dispatch(msg); err != nil {
		c.sendJSON(room.NewErrorMessage(clientErrorMessage(err)))
		if !isClientError(err) {
			c.logger.WithError(err).WithField("type", msg.Type).Error("message handling failed")
		}
	}
}

func (c *Client) dispatch(msg InboundMessage) error {
	switch msg.Type {
	case TypeStartGame:
		return c.room.Start(c.name)
	case TypeDrawNumber:
		_, _, err := c.room.Draw(c.name)
		return err
	case TypeBingoClaim:
		return c.room.Claim(c.name, msg.ClaimCard())
	case TypeChat:
		c.room.Chat(c.name, msg.ChatText())
		return nil
	case TypeGetState:
		c.sendJSON(c.room.Snapshot())
		return nil
	default:
		return unknownTypeError(msg.Type)
	}
}

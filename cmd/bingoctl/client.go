package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/bingo-rooms/game/room"
	"github.com/wricardo/bingo-rooms/game/service"
)

// Client talks to a bingo server's REST API and player gateway.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) CreateRoom(ctx context.Context, hostName string) (string, error) {
	var created service.CreateRoomResult
	if err := c.do(ctx, "POST", "/room", service.CreateRoomRequest{HostName: hostName}, &created); err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	return created.RoomID, nil
}

func (c *Client) GetRoom(ctx context.Context, roomID string) (*room.State, error) {
	var state room.State
	if err := c.do(ctx, "GET", "/room/"+url.PathEscape(roomID), nil, &state); err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomID, err)
	}
	return &state, nil
}

// Join opens a player connection to the room.
func (c *Client) Join(ctx context.Context, roomID, playerName string) (*websocket.Conn, error) {
	u, err := wsURL(c.baseURL, roomID, playerName)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("join room %s: %w", roomID, err)
	}
	return conn, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s (HTTP %d)", msg, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// wsURL turns the server's HTTP base URL into the gateway URL for a player.
func wsURL(baseURL, roomID, playerName string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := url.Values{}
	q.Set("room_id", roomID)
	q.Set("player_name", playerName)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

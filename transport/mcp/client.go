package mcp

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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/bingo-rooms/game/room"
	"github.com/wricardo/bingo-rooms/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Bingo Rooms",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Bingo Rooms - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Rooms are created here and played over WebSocket at /ws?room_id=<code>&player_name=<name>.

AVAILABLE TOOLS:
- create_room: Create a room and get its 6-character code
- get_room: Players, host, status and draw history of a room
- server_health: Server status and number of live rooms
- game_instructions: Rules and the WebSocket message protocol`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_room",
		Description: "Create a new bingo room hosted by the given player",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"host_name": map[string]interface{}{
					"type":        "string",
					"description": "Display name of the host (1-24 characters). The host must join with this exact name to start the game and draw numbers.",
				},
			},
			Required: []string{"host_name"},
		},
	}, c.handleCreateRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get the current state of a room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room code (case-insensitive)",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_health",
		Description: "Check server health and count live rooms",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerHealth)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the game rules and the WebSocket message protocol",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves single JSON-RPC messages posted to it, for MCP clients
// that talk over HTTP instead of stdio.
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications have no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func stringArg(request mcp.CallToolRequest, key string) string {
	args, _ := request.Params.Arguments.(map[string]interface{})
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// Tool handlers

func (c *Client) handleCreateRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hostName := stringArg(request, "host_name")
	if hostName == "" {
		return mcp.NewToolResultError("host_name is required"), nil
	}

	var created service.CreateRoomResult
	err := c.apiCall(ctx, "POST", "/room", service.CreateRoomRequest{HostName: hostName}, &created)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Room created: %s\nHost: %s\n\nPlayers join over WebSocket:\n  /ws?room_id=%s&player_name=<name>\nThe host must join as %q to start the game.",
		created.RoomID, hostName, created.RoomID, hostName)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID := stringArg(request, "room_id")
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	var state room.State
	if err := c.apiCall(ctx, "GET", "/room/"+url.PathEscape(roomID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoomState(&state)), nil
}

func (c *Client) handleServerHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var health struct {
		Status string `json:"status"`
		Rooms  int    `json:"rooms"`
	}
	if err := c.apiCall(ctx, "GET", "/health", nil, &health); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Status: %s\nLive rooms: %d", health.Status, health.Rooms)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Bingo Rooms - Instructions

HOW A GAME RUNS:
1. Create a room (create_room). You get a room code such as "K7Q2ZD".
2. Every player, the host included, opens a WebSocket:
     /ws?room_id=K7Q2ZD&player_name=Alice
   Names are unique per room and case-sensitive.
3. The host sends {"type":"start_game"}. Numbers 1-75 are shuffled once.
4. The host sends {"type":"draw_number"} repeatedly. Every player sees the
   same numbers in the same order.
5. A player who completes a line sends {"type":"bingo_claim","card":[[...]]}.
   The first accepted claim ends the game. If all 75 numbers are drawn with no
   claim, the game ends on its own.

CLIENT MESSAGES:
- start_game (host only, ignored once started)
- draw_number (host only, game must be started)
- bingo_claim {card}
- chat {text}
- get_state

SERVER MESSAGES:
- room_state {room_id, players, host, status, draw_history}
- player_joined / player_left {name, players}
- game_started {draw_history}
- number_drawn {number, history}
- bingo_valid {name, history}
- game_finished {draw_history | winners}
- chat {from, text}
- already_declared {message}
- error {message}

Errors are sent only to the player whose request failed. The connection stays open.
When the last player leaves, the room is removed and its code stops working.`

	return mcp.NewToolResultText(instructions), nil
}

// formatRoomState renders a room snapshot for a chat transcript.
func formatRoomState(state *room.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Room: %s\n", state.RoomID)
	fmt.Fprintf(&b, "Host: %s\n", state.Host)
	fmt.Fprintf(&b, "Status: %s\n", state.Status)

	if len(state.Players) == 0 {
		b.WriteString("Players: none\n")
	} else {
		fmt.Fprintf(&b, "Players (%d): %s\n", len(state.Players), strings.Join(state.Players, ", "))
	}

	fmt.Fprintf(&b, "Numbers drawn: %d/%d\n", len(state.DrawHistory), room.PoolSize)
	if n := len(state.DrawHistory); n > 0 {
		numbers := make([]string, n)
		for i, v := range state.DrawHistory {
			numbers[i] = fmt.Sprint(v)
		}
		fmt.Fprintf(&b, "Last drawn: %d\n", state.DrawHistory[n-1])
		fmt.Fprintf(&b, "History: %s\n", strings.Join(numbers, " "))
	}

	return b.String()
}

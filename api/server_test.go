package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/bingo-rooms/config"
	"github.com/wricardo/bingo-rooms/game/registry"
	"github.com/wricardo/bingo-rooms/game/room"
	"github.com/wricardo/bingo-rooms/game/service"
)

// MockRoomService implements service.RoomService for testing
type MockRoomService struct {
	CreateRoomFunc func(ctx context.Context, hostName string) (*service.CreateRoomResult, error)
	GetRoomFunc    func(ctx context.Context, roomID string) (*room.State, error)
	StatsFunc      func(ctx context.Context) (*service.Stats, error)
}

func (m *MockRoomService) CreateRoom(ctx context.Context, hostName string) (*service.CreateRoomResult, error) {
	if m.CreateRoomFunc != nil {
		return m.CreateRoomFunc(ctx, hostName)
	}
	return &service.CreateRoomResult{RoomID: "ABC123"}, nil
}

func (m *MockRoomService) GetRoom(ctx context.Context, roomID string) (*room.State, error) {
	if m.GetRoomFunc != nil {
		return m.GetRoomFunc(ctx, roomID)
	}
	return &room.State{
		Type:        room.TypeRoomState,
		RoomID:      strings.ToUpper(roomID),
		Players:     []string{},
		Host:        "Alice",
		Status:      room.StatusWaiting,
		DrawHistory: []int{},
	}, nil
}

func (m *MockRoomService) Stats(ctx context.Context) (*service.Stats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &service.Stats{Rooms: 0}, nil
}

type stubHub struct{ called bool }

func (h *stubHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.called = true
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "body: %s", rr.Body.String())
	return body
}

func TestHandleCreateRoom(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{name: "created", body: `{"host_name":"Alice"}`, wantStatus: http.StatusOK, wantKey: "room_id", wantValue: "ABC123"},
		{name: "invalid json", body: `{host_name:`, wantStatus: http.StatusBadRequest, wantKey: "error", wantValue: "Invalid request body"},
		{name: "invalid host name", body: `{"host_name":""}`, createErr: service.ErrInvalidHostName, wantStatus: http.StatusUnprocessableEntity, wantKey: "error", wantValue: service.ErrInvalidHostName.Error()},
		{name: "internal error", body: `{"host_name":"Alice"}`, createErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantKey: "error", wantValue: "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotHost string
			mock := &MockRoomService{
				CreateRoomFunc: func(ctx context.Context, hostName string) (*service.CreateRoomResult, error) {
					gotHost = hostName
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					return &service.CreateRoomResult{RoomID: "ABC123"}, nil
				},
			}
			server := NewServer(mock, nil)

			req := httptest.NewRequest("POST", "/room", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantValue, decodeBody(t, rr)[tt.wantKey])
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "Alice", gotHost)
			}
		})
	}
}

func TestHandleGetRoom(t *testing.T) {
	mock := &MockRoomService{
		GetRoomFunc: func(ctx context.Context, roomID string) (*room.State, error) {
			if strings.ToUpper(roomID) != "ABC123" {
				return nil, fmt.Errorf("get room %s: %w", roomID, registry.ErrRoomNotFound)
			}
			return &room.State{
				Type:        room.TypeRoomState,
				RoomID:      "ABC123",
				Players:     []string{"Alice", "Bob"},
				Host:        "Alice",
				Status:      room.StatusStarted,
				DrawHistory: []int{7, 42},
			}, nil
		},
	}
	server := NewServer(mock, nil)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/room/abc123", nil)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "ABC123", body["room_id"])
		assert.Equal(t, "Alice", body["host"])
		assert.Equal(t, "started", body["status"])
		assert.Equal(t, []interface{}{"Alice", "Bob"}, body["players"])
		assert.Equal(t, []interface{}{7.0, 42.0}, body["draw_history"])
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/room/NOPE00", nil)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Room not found", decodeBody(t, rr)["error"])
	})
}

func TestHandleHealth(t *testing.T) {
	mock := &MockRoomService{
		StatsFunc: func(ctx context.Context) (*service.Stats, error) {
			return &service.Stats{Rooms: 3}, nil
		},
	}
	server := NewServer(mock, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, 3.0, body["rooms"])
}

func TestWebSocketRoute(t *testing.T) {
	hub := &stubHub{}
	server := NewServer(&MockRoomService{}, hub)

	req := httptest.NewRequest("GET", "/ws?room_id=ABC123&player_name=Alice", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.True(t, hub.called)
}

func TestMount(t *testing.T) {
	server := NewServer(&MockRoomService{}, nil)
	server.Mount("/mcp", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}), "POST")

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest("POST", "/mcp", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)

	rr = httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest("GET", "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCORS(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		server := NewServer(&MockRoomService{}, nil)

		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "http://example.com")
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		server := NewServer(&MockRoomService{}, nil)

		req := httptest.NewRequest("OPTIONS", "/room", nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("restricted origins", func(t *testing.T) {
		server := NewServer(&MockRoomService{}, nil, WithOriginPolicy(config.Config{Origins: []string{"https://bingo.example"}}))

		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://bingo.example")
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)
		assert.Equal(t, "https://bingo.example", rr.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		rr = httptest.NewRecorder()
		server.ServeHTTP(rr, req)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

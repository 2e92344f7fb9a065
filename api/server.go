package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/bingo-rooms/game/registry"
	"github.com/wricardo/bingo-rooms/game/service"
)

// WebSocketHandler upgrades player connections.
type WebSocketHandler interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OriginPolicy decides which browser origins may call the API.
// config.Config implements it.
type OriginPolicy interface {
	AllowsAnyOrigin() bool
	OriginAllowed(origin string) bool
}

type anyOrigin struct{}

func (anyOrigin) AllowsAnyOrigin() bool     { return true }
func (anyOrigin) OriginAllowed(string) bool { return true }

// WithOriginPolicy restricts CORS to the origins the policy allows.
func WithOriginPolicy(p OriginPolicy) Option {
	return func(s *Server) {
		if p != nil {
			s.origins = p
		}
	}
}

// Server represents the REST API server
type Server struct {
	service service.RoomService
	hub     WebSocketHandler
	router  *mux.Router
	logger  logrus.FieldLogger
	origins OriginPolicy
}

// NewServer creates a new API server
func NewServer(roomService service.RoomService, hub WebSocketHandler, opts ...Option) *Server {
	s := &Server{
		service: roomService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logrus.StandardLogger(),
		origins: anyOrigin{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/room", s.handleCreateRoom).Methods("POST")
	s.router.HandleFunc("/room/{room_id}", s.handleGetRoom).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}
}

// Mount routes path to h for the given methods, or all methods if none.
func (s *Server) Mount(path string, h http.Handler, methods ...string) {
	route := s.router.Handle(path, h)
	if len(methods) > 0 {
		route.Methods(methods...)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if origin := r.Header.Get("Origin"); origin != "" && s.origins.OriginAllowed(origin) {
		h := w.Header()
		if s.origins.AllowsAnyOrigin() {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id")
	}

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.router.ServeHTTP(w, r)

	s.logger.WithFields(logrus.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"duration": time.Since(start),
	}).Debug("request handled")
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Room Handlers

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.CreateRoom(r.Context(), req.HostName)
	if err != nil {
		if errors.Is(err, service.ErrInvalidHostName) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.WithError(err).Error("create room failed")
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := vars["room_id"]

	state, err := s.service.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, registry.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "Room not found")
			return
		}
		s.logger.WithError(err).WithField("room_id", roomID).Error("get room failed")
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"rooms":  stats.Rooms,
	})
}

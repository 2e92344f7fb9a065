package registry

import (
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/bingo-rooms/game/code"
	"github.com/wricardo/bingo-rooms/game/room"
)

var ErrRoomNotFound = errors.New("room not found")

const (
	// maxCreateAttempts is how many codes of the configured length are tried
	// before falling back to a longer code.
	maxCreateAttempts = 6
	// fallbackExtraLength is added to the code length for the fallback.
	fallbackExtraLength = 2
)

// Registry maps room codes to rooms.
type Registry struct {
	rooms      map[string]*room.Room
	codeLength int
	generate   func(length int) string
	roomOpts   []room.Option
	logger     logrus.FieldLogger
	mu         sync.RWMutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithCodeLength sets the length of generated room codes.
func WithCodeLength(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.codeLength = n
		}
	}
}

// WithGenerator replaces the code generator.
func WithGenerator(generate func(length int) string) Option {
	return func(r *Registry) {
		if generate != nil {
			r.generate = generate
		}
	}
}

// WithRoomOptions sets options applied to every room the registry creates.
func WithRoomOptions(opts ...room.Option) Option {
	return func(r *Registry) {
		r.roomOpts = append(r.roomOpts, opts...)
	}
}

// WithLogger sets the registry logger. Rooms inherit it unless
// WithRoomOptions overrides it.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		rooms:      make(map[string]*room.Room),
		codeLength: code.DefaultLength,
		generate:   code.Generate,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new room hosted by hostName under a fresh code.
func (r *Registry) Create(hostName string) *room.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.uniqueCodeLocked()
	opts := append([]room.Option{room.WithLogger(r.logger)}, r.roomOpts...)
	rm := room.New(id, hostName, opts...)
	r.rooms[id] = rm

	r.logger.WithFields(logrus.Fields{
		"room_id": id,
		"host":    hostName,
		"rooms":   len(r.rooms),
	}).Info("room created")

	return rm
}

// uniqueCodeLocked tries maxCreateAttempts codes at the configured length,
// then falls back to longer codes.
func (r *Registry) uniqueCodeLocked() string {
	for i := 0; i < maxCreateAttempts; i++ {
		id := strings.ToUpper(r.generate(r.codeLength))
		if _, taken := r.rooms[id]; !taken {
			return id
		}
	}

	r.logger.WithField("length", r.codeLength).Warn("room code collisions, falling back to longer code")
	// Codes must stay unique, and the longer code space is sparse enough that
	// this loop ends almost immediately.
	for {
		id := strings.ToUpper(r.generate(r.codeLength + fallbackExtraLength))
		if _, taken := r.rooms[id]; !taken {
			return id
		}
	}
}

// Get returns the room registered under id, ignoring case.
func (r *Registry) Get(id string) (*room.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[strings.ToUpper(id)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// CleanupIfEmpty removes the room if it has no players and reports whether it
// did. The room is closed first, so a join that loses the race fails instead
// of landing in an unregistered room.
func (r *Registry) CleanupIfEmpty(id string) bool {
	id = strings.ToUpper(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok || !rm.CloseIfEmpty() {
		return false
	}

	delete(r.rooms, id)
	r.logger.WithFields(logrus.Fields{
		"room_id": id,
		"rooms":   len(r.rooms),
	}).Info("empty room removed")
	return true
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

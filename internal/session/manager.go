package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repaird/internal/devices"
	"github.com/fyrsmithlabs/repaird/internal/logging"
)

// ErrTooManySessions is returned when the session cap is reached.
var ErrTooManySessions = errors.New("too many active sessions")

// Manager tracks active sessions by ID. Sessions are independent; the
// manager only guards the map, each session serializes its own turns.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	registry    *devices.Registry
	retriever   Retriever
	logger      *logging.Logger
	maxSessions int
}

// NewManager creates a session manager. maxSessions <= 0 means unbounded.
func NewManager(registry *devices.Registry, retriever Retriever, maxSessions int, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		registry:    registry,
		retriever:   retriever,
		logger:      logger.Named("sessions"),
		maxSessions: maxSessions,
	}
}

// Create starts a new session and returns it.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySessions
	}

	id := uuid.NewString()
	s := New(id, m.registry, m.retriever, m.logger)
	m.sessions[id] = s

	m.logger.Info(ctx, "session created",
		zap.String("session_id", id),
		zap.Int("active", len(m.sessions)))
	return s, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove deletes a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

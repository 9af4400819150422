package session

import (
	"sync"
	"time"

	"github.com/JustIkra/tg-restorants-bot/internal/availability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns the live sessions of every user.
type Manager struct {
	fetcher Fetcher
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a Manager. loc decides which calendar day is "today"
// when picking the default order date.
func NewManager(fetcher Fetcher, loc *time.Location, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		fetcher:  fetcher,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a new session for userID with no active cafe.
func (m *Manager) Create(userID int64) *Session {
	s := newSession(userID, m.fetcher, availability.NewResolver(m.now, m.loc), m.logger)

	m.mu.Lock()
	s.lastSeen = m.now()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("session created", zap.String("session_id", s.ID.String()), zap.Int64("user_tgid", userID))
	return s
}

// Get returns the session id owned by userID and marks it as in use.
// Sessions of other users are reported as not found.
func (m *Manager) Get(id uuid.UUID, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, ErrNotFound
	}
	s.lastSeen = m.now()
	return s, nil
}

// Discard closes and forgets the session.
func (m *Manager) Discard(id uuid.UUID, userID int64) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	s.Close()
	m.logger.Debug("session discarded", zap.String("session_id", id.String()))
	return nil
}

// Sweep closes and forgets sessions not used for longer than maxIdle. It
// returns how many were evicted.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
		m.logger.Debug("idle session evicted", zap.String("session_id", s.ID.String()))
	}
	return len(idle)
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

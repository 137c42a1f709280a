package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/atelier-ai/atelier-backend/internal/archive"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager owns the live sessions for the process lifetime.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	repo     *archive.Repo
}

func NewManager(repo *archive.Repo) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		repo:     repo,
	}
}

// Create starts a fresh session at the briefing stage.
func (m *Manager) Create() *Session {
	s := New(uuid.New().String(), m.repo)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

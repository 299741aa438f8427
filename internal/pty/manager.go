package pty

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Dhanuzh/starbott/internal/apierr"
)

// Manager tracks sessions by id.
type Manager struct {
	defaults Config

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(defaults Config) *Manager {
	return &Manager{defaults: defaults, sessions: make(map[string]*Session)}
}

// Create spawns a session with the manager defaults and returns its id.
func (m *Manager) Create(ctx context.Context) (string, *Session, error) {
	s, err := Spawn(ctx, m.defaults)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return id, s, nil
}

// Get looks up a session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apierr.Usage("PTY session not found: %s", id)
	}
	return s, nil
}

// Remove kills a session and forgets it.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return apierr.Usage("PTY session not found: %s", id)
	}
	return s.Kill()
}

// List returns the ids of live sessions, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloseAll kills every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		_ = s.Kill()
	}
}

package session

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

const (
	codeLength = 6
	// Ambiguous I and O are left out so codes can be read aloud.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"
)

// Manager manages all active sessions.
type Manager struct {
	deps     Deps
	sessions map[string]*Session // code -> session
	mu       sync.RWMutex
}

// NewManager creates a new session manager sharing deps across sessions.
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// CreateSession creates and starts a session reporting to n.
func (m *Manager) CreateSession(n Notifier) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.freeCode()
	rng := rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	s := New(code, n, m.deps, rng)
	m.sessions[code] = s
	s.Start()

	slog.Info("session created", "session", code)
	return s
}

// freeCode draws codes until one is not held by a live session. The code
// space dwarfs any realistic session count. Caller must hold m.mu.
func (m *Manager) freeCode() string {
	b := make([]byte, codeLength)
	for {
		for i := range b {
			b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		if _, taken := m.sessions[string(b)]; !taken {
			return string(b)
		}
	}
}

// GetSession returns a session by its code.
func (m *Manager) GetSession(code string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[code]
}

// RemoveSession stops and removes a session.
func (m *Manager) RemoveSession(code string) {
	m.mu.Lock()
	s, ok := m.sessions[code]
	delete(m.sessions, code)
	m.mu.Unlock()

	if ok {
		s.Stop()
		slog.Info("session removed", "session", code)
	}
}

// SessionCount returns the number of active sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StopAll stops every session. Used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}

package screening

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager keeps one isolated Session per key.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	protocol *Protocol
	now      func() time.Time
}

func NewManager(protocol *Protocol) *Manager {
	if protocol == nil {
		protocol = DefaultProtocol()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		protocol: protocol,
		now:      time.Now,
	}
}

func (m *Manager) Protocol() *Protocol { return m.protocol }

// Create registers a new session under a fresh random key.
func (m *Manager) Create(consent Consent) (*Session, error) {
	s, err := newSession(uuid.NewString(), consent, m.protocol, m.now)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.Key] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(key string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", key, ErrSessionNotFound)
	}
	return s, nil
}

func (m *Manager) Delete(key string) {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
}

// Expire drops sessions idle for longer than ttl and returns how many were removed.
func (m *Manager) Expire(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

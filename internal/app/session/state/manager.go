package state

import (
	"sync"
	"time"
)

// Manager manages kiosk lifecycle state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	kioskID  string
	phase    Phase
	openedAt *time.Time
	closedAt *time.Time
}

// New creates a new state manager.
func New(kioskID string) *Manager {
	return &Manager{
		kioskID: kioskID,
		phase:   PhaseStarting,
	}
}

// KioskID returns the ID of this kiosk run.
func (m *Manager) KioskID() string {
	return m.kioskID
}

// GetPhase returns the current phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Open moves the kiosk to PhaseOpen. It returns false if the kiosk is closed.
func (m *Manager) Open(at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseClosed {
		return false
	}
	if m.phase != PhaseOpen {
		m.phase = PhaseOpen
		m.openedAt = &at
	}
	return true
}

// Close moves the kiosk to PhaseClosed. It returns false if it already was.
func (m *Manager) Close(at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseClosed {
		return false
	}
	m.phase = PhaseClosed
	m.closedAt = &at
	return true
}

// IsAccepting returns true if requests are accepted.
func (m *Manager) IsAccepting() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase == PhaseOpen
}

// GetTimes returns when the kiosk opened and closed.
func (m *Manager) GetTimes() (openedAt, closedAt *time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.openedAt, m.closedAt
}

// Package shutdown controls how the hosting application reacts when a
// license is found to be revoked or invalid at startup. The default handler
// panics so the application never starts unlicensed; embedders replace it to
// plug into their own graceful-shutdown path.
package shutdown

import "sync"

// Handler is invoked with a human-readable reason when license validation
// requires the application to stop.
type Handler func(reason string)

// DefaultHandler panics with a descriptive message. The panic is expected to
// be caught by the application's own recover-based shutdown handling.
func DefaultHandler(reason string) {
	panic("LICENSE VALIDATION FAILED: " + reason)
}

// Manager holds the current termination handler.
type Manager struct {
	mu      sync.RWMutex
	handler Handler
}

// New creates a manager with the default handler installed.
func New() *Manager {
	return &Manager{handler: DefaultHandler}
}

// SetHandler replaces the termination handler. Call during application
// startup, before any validation occurs; nil handlers are ignored.
func (m *Manager) SetHandler(handler Handler) {
	if handler == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// Terminate invokes the current termination handler.
func (m *Manager) Terminate(reason string) {
	m.mu.RLock()
	handler := m.handler
	m.mu.RUnlock()

	handler(reason)
}

// Package refresh runs the background revalidation loop: a cancellable
// scheduled task that periodically asks the validation client to self-heal
// (e.g. GRACE back to ACTIVE once connectivity returns). Failures are logged,
// never raised to the caller.
package refresh

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Revalidator is the interface the background loop drives.
type Revalidator interface {
	Revalidate(ctx context.Context) error
}

// Manager handles background refresh of license validation
type Manager struct {
	interval  time.Duration
	validator Revalidator
	logger    *zap.SugaredLogger

	mu                    sync.Mutex
	started               bool
	cancel                context.CancelFunc
	done                  chan struct{}
	lastAttemptedRefresh  time.Time
	lastSuccessfulRefresh time.Time
}

// New creates a new background refresh manager
func New(validator Revalidator, interval time.Duration, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		validator: validator,
		interval:  interval,
		logger:    logger,
	}
}

// Start begins the background refresh process. Subsequent calls are no-ops
// until Shutdown.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()

	if m.started {
		m.mu.Unlock()
		return
	}

	refreshCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.started = true
	done := m.done
	m.mu.Unlock()

	ticker := time.NewTicker(m.interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		m.logger.Infow("starting background license revalidation", "interval", m.interval)

		for {
			select {
			case <-refreshCtx.Done():
				m.logger.Info("background license revalidation stopped")
				return

			case <-ticker.C:
				m.attempt(refreshCtx)
			}
		}
	}()
}

// Shutdown stops the background refresh process and waits for the loop to
// exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()

	if !m.started {
		m.mu.Unlock()
		return
	}

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	m.started = false
	done := m.done
	m.mu.Unlock()

	if done != nil {
		<-done
	}

	m.logger.Info("background license revalidation shutdown complete")
}

// LastRefresh returns the attempted and successful refresh timestamps.
func (m *Manager) LastRefresh() (attempted, succeeded time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastAttemptedRefresh, m.lastSuccessfulRefresh
}

func (m *Manager) attempt(ctx context.Context) {
	m.mu.Lock()
	m.lastAttemptedRefresh = time.Now()
	m.mu.Unlock()

	if err := m.validator.Revalidate(ctx); err != nil {
		m.logger.Warnw("background license revalidation failed", "error", err)
		return
	}

	m.mu.Lock()
	m.lastSuccessfulRefresh = time.Now()
	m.mu.Unlock()
}

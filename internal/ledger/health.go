package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// HealthMonitor tracks reachability of the remote ledger service. At most one
// probe per recheck interval; between probes, callers get the last known
// answer without blocking. The probe itself is bounded by a hard timeout, and
// a timeout or transport error just means "unavailable" - it never surfaces
// to the caller.
type HealthMonitor struct {
	probe   func(ctx context.Context) error
	recheck time.Duration
	timeout time.Duration
	clock   func() time.Time
	logger  *slog.Logger

	mu        sync.Mutex
	lastCheck time.Time
	checked   bool
	available bool
}

// HealthOption configures a HealthMonitor.
type HealthOption func(*HealthMonitor)

// WithHealthClock sets the clock function for testability.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(m *HealthMonitor) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithHealthLogger sets the monitor logger.
func WithHealthLogger(logger *slog.Logger) HealthOption {
	return func(m *HealthMonitor) {
		m.logger = logger
	}
}

// NewHealthMonitor builds a monitor around a probe function, normally
// Client.Health.
func NewHealthMonitor(probe func(ctx context.Context) error, recheck, timeout time.Duration, opts ...HealthOption) *HealthMonitor {
	m := &HealthMonitor{
		probe:   probe,
		recheck: recheck,
		timeout: timeout,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsAvailable reports whether the remote service was reachable as of the last
// probe, re-probing when the recheck interval has elapsed.
func (m *HealthMonitor) IsAvailable(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if m.checked && now.Sub(m.lastCheck) < m.recheck {
		return m.available
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.probe(probeCtx)
	m.lastCheck = now
	m.checked = true
	wasAvailable := m.available
	m.available = err == nil

	if m.logger != nil && wasAvailable != m.available {
		if m.available {
			m.logger.InfoContext(ctx, "ledger service reachable again")
		} else {
			m.logger.WarnContext(ctx, "ledger service unreachable", "error", err)
		}
	}
	return m.available
}

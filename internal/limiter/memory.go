package limiter

import (
	"sync"
	"time"
)

type entry struct {
	failures     int
	blockedUntil time.Time
}

// Memory is an in-process Limiter: after maxFailures failed attempts the key
// is blocked for the lockout duration. Suitable for a single-process backend;
// counters do not survive a restart.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry

	maxFailures int
	lockout     time.Duration
	now         func() time.Time
}

// NewMemory builds a Memory limiter. maxFailures <= 0 disables limiting.
func NewMemory(maxFailures int, lockout time.Duration) *Memory {
	return &Memory{
		entries:     make(map[string]*entry),
		maxFailures: maxFailures,
		lockout:     lockout,
		now:         time.Now,
	}
}

var _ Limiter = (*Memory)(nil)

func (m *Memory) Allow(key string) (bool, time.Duration) {
	if m.maxFailures <= 0 {
		return true, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return true, 0
	}
	if rem := e.blockedUntil.Sub(m.now()); rem > 0 {
		return false, rem
	}
	return true, 0
}

func (m *Memory) Success(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) Failure(key string) bool {
	if m.maxFailures <= 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.failures++
	if e.failures >= m.maxFailures {
		e.blockedUntil = m.now().Add(m.lockout)
		e.failures = 0
		return true
	}
	return false
}

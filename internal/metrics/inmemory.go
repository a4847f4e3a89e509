package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Provisioning map[string]uint64
	WipeAttempts map[string]uint64
	RateLimited  uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu           sync.Mutex
	provisioning map[string]uint64
	wipeAttempts map[string]uint64
	rateLimited  uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		provisioning: make(map[string]uint64),
		wipeAttempts: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Provisioning: make(map[string]uint64, len(m.provisioning)),
		WipeAttempts: make(map[string]uint64, len(m.wipeAttempts)),
		RateLimited:  atomic.LoadUint64(&m.rateLimited),
	}
	for k, v := range m.provisioning {
		snap.Provisioning[k] = v
	}
	for k, v := range m.wipeAttempts {
		snap.WipeAttempts[k] = v
	}
	return snap
}

// IncProvisioning increments the provisioning counter for outcome.
func (m *InMemoryRecorder) IncProvisioning(outcome string) {
	m.mu.Lock()
	m.provisioning[outcome]++
	m.mu.Unlock()
}

// IncWipeAttempt increments the wipe attempt counter for outcome.
func (m *InMemoryRecorder) IncWipeAttempt(outcome string) {
	m.mu.Lock()
	m.wipeAttempts[outcome]++
	m.mu.Unlock()
}

// IncRateLimited increments the rate limited counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

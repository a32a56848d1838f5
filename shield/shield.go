// Package shield defines the barrier interface the segment layer consumes
// and, since the real shield sits on top of OS page-protection calls this
// module has no business making, a reference bookkeeping implementation
// good enough to drive the package's own tests end to end.
package shield

import (
	"sync"

	"github.com/DawidvC/mps-segment/access"
)

// Handle identifies the segment a Raise/Lower call applies to. It is opaque
// to this package for the same reason tract.SegRef is: importing segment
// here would create a cycle, since segment imports shield to call it.
type Handle any

// Shield raises and lowers read/write barriers on a segment and flushes any
// batched protection changes. Calls are made only while the caller holds
// the owning arena's lock; Shield implementations never need their own
// locking for calls against a single handle, but Flush may be called
// concurrently with Raise/Lower against other handles from a trap handler
// and must tolerate that.
type Shield interface {
	// Raise adds mode to the barrier in force for h.
	Raise(h Handle, mode access.Set)
	// Lower removes mode from the barrier in force for h.
	Lower(h Handle, mode access.Set)
	// Flush applies any protection changes that Raise/Lower deferred.
	Flush()
}

// Memory is a reference Shield that only records which access modes are in
// force per handle; it makes no OS calls, which is why it's safe to run in
// a test binary with no page-aligned real memory behind any handle. Flush is
// a no-op since Raise/Lower already take effect immediately.
type Memory struct {
	mu    sync.Mutex
	state map[Handle]access.Set
}

// NewMemory returns a ready-to-use Memory shield.
func NewMemory() *Memory {
	return &Memory{state: make(map[Handle]access.Set)}
}

// Raise implements Shield.
func (m *Memory) Raise(h Handle, mode access.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[h] = m.state[h].Union(mode)
}

// Lower implements Shield.
func (m *Memory) Lower(h Handle, mode access.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.state[h]
	if mode.Has(access.Read) {
		cur = cur.Without(access.Read)
	}
	if mode.Has(access.Write) {
		cur = cur.Without(access.Write)
	}
	if cur.IsEmpty() {
		delete(m.state, h)
		return
	}
	m.state[h] = cur
}

// Flush implements Shield. It is a no-op for Memory.
func (m *Memory) Flush() {}

// Current returns the access set currently in force for h, for tests that
// want to assert shield state directly instead of only through segment
// accessors.
func (m *Memory) Current(h Handle) access.Set {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[h]
}

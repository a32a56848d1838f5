// Package tract implements a reference tract map: the per-granule table
// that the arena allocator exposes to the segment layer so it can bind an
// address range to a segment and look segments back up by address. The
// segment subsystem proper only consumes this as an interface (TractOfAddr,
// TractFirst/TractNext, and the per-tract fields); this package supplies a
// concrete, in-memory implementation so the module is runnable end to end
// without a real arena behind it.
package tract

import (
	"sort"
	"sync"

	"github.com/DawidvC/mps-segment/traceset"
)

// PoolID is an opaque identifier for the pool that owns a tract. Pool
// implementations are outside this subsystem; the segment layer only ever
// needs to compare pool identity, never dereference it.
type PoolID uint64

// SegRef is a weak, opaque back-pointer from a tract to the segment bound
// to it. It exists so this package never imports segment (which would
// create an import cycle, since segment needs a *Map to bind tracts); the
// segment package stores a *segment.Generic here and type-asserts it back
// out in SegOf.
type SegRef any

// Tract is one arena-granule-sized unit of the address space.
type Tract struct {
	Base   uintptr
	Pool   PoolID
	Seg    SegRef
	HasSeg bool
	White  traceset.Set
	// Client is an opaque per-tract slot reserved for the pool, mirroring
	// the segment's own Client slot but at granule granularity.
	Client any
}

// Map is a granule-indexed table of tracts covering whatever address ranges
// have been touched by Bind. Unbound addresses have no entry at all, which
// TractOfAddr reports as (nil, false) the same as a bound-but-has-seg-false
// tract would via HasSeg.
type Map struct {
	granule uintptr

	mu     sync.Mutex
	tracts map[uintptr]*Tract
	bases  []uintptr // kept sorted; rebuilt lazily on Bind of a new base
	dirty  bool
}

// NewMap returns an empty tract map with the given granule size. granule
// must be a positive power of two.
func NewMap(granule uintptr) *Map {
	if granule == 0 || granule&(granule-1) != 0 {
		panic("tract: granule must be a positive power of two")
	}
	return &Map{
		granule: granule,
		tracts:  make(map[uintptr]*Tract),
	}
}

// Granule returns the map's granule size.
func (m *Map) Granule() uintptr {
	return m.granule
}

// Floor rounds addr down to the nearest granule boundary.
func (m *Map) Floor(addr uintptr) uintptr {
	return addr &^ (m.granule - 1)
}

// Bind binds the granule-aligned tract at base to seg, pool, and white,
// creating the tract record if this base has never been touched before.
func (m *Map) Bind(base uintptr, pool PoolID, seg SegRef, white traceset.Set) {
	if base%m.granule != 0 {
		panic("tract: Bind called with unaligned base")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracts[base]
	if !ok {
		t = &Tract{Base: base}
		m.tracts[base] = t
		m.dirty = true
	}
	t.Pool = pool
	t.Seg = seg
	t.HasSeg = true
	t.White = white
}

// Unbind clears the segment binding of the tract at base, if any. The
// tract record itself (and any client slot) is left in place, matching the
// real tract map's policy of only invalidating seg/has_seg on free, not
// discarding granule bookkeeping.
func (m *Map) Unbind(base uintptr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracts[base]
	if !ok {
		return
	}
	t.Seg = nil
	t.HasSeg = false
}

// TractOfAddr returns the tract covering addr, if one has been bound.
func (m *Map) TractOfAddr(addr uintptr) (*Tract, bool) {
	base := m.Floor(addr)
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracts[base]
	return t, ok
}

// TractFirst returns the tract with the lowest base address, if any tract
// has ever been bound.
func (m *Map) TractFirst() (*Tract, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resort()
	if len(m.bases) == 0 {
		return nil, false
	}
	return m.tracts[m.bases[0]], true
}

// TractNext returns the tract with the smallest base strictly greater than
// base, if one exists.
func (m *Map) TractNext(base uintptr) (*Tract, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resort()
	i := sort.Search(len(m.bases), func(i int) bool { return m.bases[i] > base })
	if i == len(m.bases) {
		return nil, false
	}
	return m.tracts[m.bases[i]], true
}

func (m *Map) resort() {
	if !m.dirty && len(m.bases) == len(m.tracts) {
		return
	}
	m.bases = m.bases[:0]
	for b := range m.tracts {
		m.bases = append(m.bases, b)
	}
	sort.Slice(m.bases, func(i, j int) bool { return m.bases[i] < m.bases[j] })
	m.dirty = false
}

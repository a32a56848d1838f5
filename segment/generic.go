// Package segment implements the generic segment: the arena-aligned address
// range that carries colour, rank, and shield bookkeeping on behalf of every
// pool, plus the class registry subclasses hang their own state off of. The
// GC-capable subclass lives in package gcseg; this package only knows the
// fields and operations every segment has regardless of class.
package segment

import (
	"fmt"
	"io"

	"github.com/gostdlib/base/context"

	"github.com/DawidvC/mps-segment/access"
	"github.com/DawidvC/mps-segment/arena"
	ierrors "github.com/DawidvC/mps-segment/internal/errors"
	"github.com/DawidvC/mps-segment/internal/invariant"
	"github.com/DawidvC/mps-segment/rankset"
	"github.com/DawidvC/mps-segment/refset"
	"github.com/DawidvC/mps-segment/tract"
	"github.com/DawidvC/mps-segment/traceset"
)

// Generic is the fields and bookkeeping common to every segment regardless
// of class. Subclasses (gcseg.Ext) hang their extra state off Ext rather
// than embedding Generic, so the class vector's function slots can take a
// *Generic uniformly and reach into Ext only when the slot is class-aware.
type Generic struct {
	arena *arena.Arena
	pool  arena.PoolID
	class *Class

	base  uintptr
	limit uintptr

	rankSet rankset.Set
	white   traceset.Set
	grey    traceset.Set
	nailed  traceset.Set

	pm    access.Set
	sm    access.Set
	depth int

	control any // the control-pool block backing this header, returned to the arena on Free

	// Ext is the class-specific extension. nil for Seg; *gcseg.Ext for
	// SegGC and any further subclass that needs more than colour/shield.
	Ext any
}

// Class returns the segment's class.
func (g *Generic) Class() *Class { return g.class }

// Arena returns the arena the segment was allocated from.
func (g *Generic) Arena() *arena.Arena { return g.arena }

// Pool returns the pool the segment belongs to.
func (g *Generic) Pool() arena.PoolID { return g.pool }

// Base returns the segment's base address. Constant-time; on the barrier
// hot path.
func (g *Generic) Base() uintptr { return g.base }

// Limit returns the address one past the end of the segment. Constant-time;
// on the barrier hot path.
func (g *Generic) Limit() uintptr { return g.limit }

// Size returns the segment's size in bytes. Constant-time; on the barrier
// hot path.
func (g *Generic) Size() uintptr { return g.limit - g.base }

// Grey returns the segment's grey (trace-colour) set.
func (g *Generic) Grey() traceset.Set { return g.grey }

// White returns the segment's white (candidate-for-collection) set.
func (g *Generic) White() traceset.Set { return g.white }

// Nailed returns the segment's nailed set.
func (g *Generic) Nailed() traceset.Set { return g.nailed }

// RankSet returns the segment's rank set.
func (g *Generic) RankSet() rankset.Set { return g.rankSet }

// PM returns the segment's protection mode.
func (g *Generic) PM() access.Set { return g.pm }

// SM returns the segment's shield mode.
func (g *Generic) SM() access.Set { return g.sm }

// Depth returns the segment's shield-expose nesting depth.
func (g *Generic) Depth() int { return g.depth }

// Summary returns the segment's reference-set summary, dispatched through
// the class vector. Not reached on Seg.
func (g *Generic) Summary() refset.Set { return g.class.Summary(g) }

// Buffer returns the segment's allocation buffer, dispatched through the
// class vector. Not reached on Seg.
func (g *Generic) Buffer() any { return g.class.Buffer(g) }

// P returns the segment's client slot, dispatched through the class vector.
// Not reached on Seg.
func (g *Generic) P() any { return g.class.P(g) }

// Allocate acquires size bytes of address space from a (honoring pref),
// borrows a block from the arena's control pool for the segment header,
// binds every tract in the range to the new segment, zeroes collector
// state, and finally calls class.Init. Size must be a positive multiple of
// the arena's granule. On any failure, already-acquired address space and
// control storage are released before the error is returned.
func Allocate(ctx context.Context, a *arena.Arena, class *Class, pref arena.Pref, size uintptr, pool arena.PoolID) (*Generic, error) {
	ctx, end := a.Events.AllocSpan(ctx, class.Name)
	var err error
	defer func() { end(err) }()

	if size == 0 || size%a.Granule() != 0 {
		err = ierrors.E(ctx, ierrors.TypeBadClass, errBadSize)
		return nil, err
	}

	ctx, leave := a.Enter(ctx)
	defer leave()

	var base uintptr
	base, err = a.Alloc(ctx, pref, size)
	if err != nil {
		return nil, err
	}

	var control any
	control, err = a.ControlAlloc(ctx, 0)
	if err != nil {
		a.Free(base, size)
		return nil, err
	}

	g := &Generic{
		arena:   a,
		pool:    pool,
		class:   class,
		base:    base,
		limit:   base + size,
		control: control,
	}

	granule := a.Granule()
	for t := base; t < g.limit; t += granule {
		a.Tracts.Bind(t, pool, g, g.white)
	}

	if err = class.Init(ctx, g); err != nil {
		for t := base; t < g.limit; t += granule {
			a.Tracts.Unbind(t)
		}
		a.ControlFree(ctx, control)
		a.Free(base, size)
		return nil, err
	}

	return g, nil
}

var errBadSize = fmt.Errorf("segment: size must be a positive multiple of the arena granule")

// Free lowers the shield if any barrier is in force, calls class.Finish,
// clears the rank set, flushes the shield queue, unbinds every tract, and
// releases the control-pool block and the address range. Panics if
// depth = 0, sm = ∅, and pm = ∅ does not hold once Finish returns.
func Free(ctx context.Context, g *Generic) {
	a := g.arena
	defer a.Events.Free(ctx, g.class.Name)

	ctx, leave := a.Enter(ctx)
	defer leave()

	if !g.sm.IsEmpty() {
		a.Shield.Lower(g, g.sm)
		g.sm = access.Empty
	}

	g.class.Finish(ctx, g)

	g.rankSet = rankset.Empty

	a.Shield.Flush()

	invariant.Check(g.depth == 0 && g.sm.IsEmpty() && g.pm.IsEmpty(),
		"segment: finish-time invariant violated: depth=%d sm=%v pm=%v", g.depth, g.sm, g.pm)

	granule := a.Granule()
	for t := g.base; t < g.limit; t += granule {
		a.Tracts.Unbind(t)
	}

	a.ControlFree(ctx, g.control)
	a.Free(g.base, g.Size())
}

// SetWhiteTracts writes white into every tract of g and into g.white,
// keeping the two in lock-step. Both Seg and SegGC use this as their
// set_white slot; SegGC never overrides it because it needs no class-aware
// behavior.
func SetWhiteTracts(g *Generic, white traceset.Set) {
	granule := g.arena.Granule()
	for t := g.base; t < g.limit; t += granule {
		tr, ok := g.arena.Tracts.TractOfAddr(t)
		invariant.Check(ok && tr.HasSeg, "segment: tract at %#x not bound during set_white", t)
		tr.White = white
	}
	g.white = white
}

// SetGrey dispatches to the class's set_grey slot after checking the
// generic precondition that a segment's colour is only meaningful once it
// has a rank.
func (g *Generic) SetGrey(grey traceset.Set) {
	invariant.Check(!g.rankSet.IsEmpty(), "segment: set_grey requires a non-empty rank set")
	g.class.SetGrey(g, grey)
}

// SetWhite dispatches to the class's set_white slot.
func (g *Generic) SetWhite(white traceset.Set) {
	g.class.SetWhite(g, white)
}

// SetRankSet dispatches to the class's set_rank_set slot after checking
// that r is empty or a singleton.
func (g *Generic) SetRankSet(r rankset.Set) {
	invariant.Check(r.IsEmpty() || r.IsSingleton(), "segment: rank set must be empty or a singleton, got %v", r)
	g.class.SetRankSet(g, r)
}

// SetSummary dispatches to the class's set_summary slot after checking the
// generic precondition that a summary is only meaningful once the segment
// has a rank.
func (g *Generic) SetSummary(s refset.Set) {
	invariant.Check(!g.rankSet.IsEmpty(), "segment: set_summary requires a non-empty rank set")
	g.class.SetSummary(g, s)
}

// SetRankAndSummary dispatches to the class's fused set_rank_and_summary
// slot after checking r = ∅ ⇒ s = ∅, the precondition that lets the two
// fields change atomically without ever observing an invalid intermediate
// rank/summary combination.
func (g *Generic) SetRankAndSummary(r rankset.Set, s refset.Set) {
	invariant.Check(r.IsEmpty() || r.IsSingleton(), "segment: rank set must be empty or a singleton, got %v", r)
	invariant.Check(!r.IsEmpty() || s.IsEmpty(), "segment: rank set empty requires summary empty")
	g.class.SetRankAndSummary(g, r, s)
}

// SetBuffer dispatches to the class's set_buffer slot.
func (g *Generic) SetBuffer(b any) { g.class.SetBuffer(g, b) }

// SetP dispatches to the class's set_p slot.
func (g *Generic) SetP(p any) { g.class.SetP(g, p) }

// ClassSetGrey and ClassSetRankSet write the raw grey/rank-set fields.
// They exist for class slot implementations living in other packages
// (gcseg's set_grey, set_rank_set, set_rank_and_summary) that need to
// mutate state segment.Generic otherwise keeps unexported; ordinary
// callers should go through SetGrey/SetRankSet instead, which carry the
// generic-layer preconditions these do not.

// ClassSetGrey sets g's raw grey field.
func (g *Generic) ClassSetGrey(grey traceset.Set) { g.grey = grey }

// ClassSetRankSet sets g's raw rank-set field.
func (g *Generic) ClassSetRankSet(r rankset.Set) { g.rankSet = r }

// ClassSetSM sets g's raw shield-mode field. gcseg's set_grey/set_rank_set/
// set_rank_and_summary call this right alongside the matching
// Shield.Raise/Lower call, so SM() always reflects what the shield
// implementation was actually told.
func (g *Generic) ClassSetSM(sm access.Set) { g.sm = sm }

// SegOf returns the segment bound to the tract at addr, if any.
func SegOf(a *arena.Arena, addr uintptr) (*Generic, bool) {
	t, ok := a.Tracts.TractOfAddr(addr)
	if !ok || !t.HasSeg {
		return nil, false
	}
	g, ok := t.Seg.(*Generic)
	return g, ok
}

// First returns the lowest-based live segment in a, if any.
func First(a *arena.Arena) (*Generic, bool) {
	t, ok := a.Tracts.TractFirst()
	if !ok {
		return nil, false
	}
	return firstSegFrom(a, t)
}

// Next returns the next live segment in a after the one based at base, in
// address order. It skips to the last tract of a multi-tract segment before
// continuing, so iteration over N segments of M tracts each costs O(N+M),
// not O(N*M).
func Next(a *arena.Arena, base uintptr) (*Generic, bool) {
	g, ok := SegOf(a, base)
	cursor := base
	if ok {
		cursor = g.limit - a.Granule()
	}
	t, ok := a.Tracts.TractNext(cursor)
	if !ok {
		return nil, false
	}
	return firstSegFrom(a, t)
}

func firstSegFrom(a *arena.Arena, t *tract.Tract) (*Generic, bool) {
	for {
		if t.HasSeg {
			if g, ok := t.Seg.(*Generic); ok {
				return g, true
			}
		}
		next, ok := a.Tracts.TractNext(t.Base)
		if !ok {
			return nil, false
		}
		t = next
	}
}

// Describe writes a human-readable dump of g to w, delegating
// class-specific detail to class.Describe.
func Describe(g *Generic, w io.Writer) {
	fmt.Fprintf(w, "segment %#x-%#x class=%s pool=%v rank=%v white=%v grey=%v nailed=%v pm=%v sm=%v depth=%d\n",
		g.base, g.limit, g.class.Name, g.pool, g.rankSet, g.white, g.grey, g.nailed, g.pm, g.sm, g.depth)
	g.class.Describe(g, w)
}

func baseDescribe(g *Generic, w io.Writer) {}

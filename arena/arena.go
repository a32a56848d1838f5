// Package arena provides a reference arena: the address-space allocator and
// global collector state (flipped traces, per-rank grey rings, the control
// allocator) that the segment layer consumes through interfaces. The real
// MPS arena manages reserved OS address space and a commit limit tracked
// against physical memory; this one is a granule-aligned bump allocator over
// a synthetic address space (freed ranges are returned to the commit
// accounting but their addresses are not reused), enough to drive the segment and
// gcseg packages' tests end to end without an OS binding.
package arena

import (
	"sync"

	csync "github.com/gostdlib/base/concurrency/sync"
	"github.com/gostdlib/base/context"

	ierrors "github.com/DawidvC/mps-segment/internal/errors"
	"github.com/DawidvC/mps-segment/internal/invariant"
	"github.com/DawidvC/mps-segment/rankset"
	"github.com/DawidvC/mps-segment/ring"
	"github.com/DawidvC/mps-segment/segevents"
	"github.com/DawidvC/mps-segment/shield"
	"github.com/DawidvC/mps-segment/tract"
	"github.com/DawidvC/mps-segment/traceset"
)

// Pref is a placement preference for an allocation. The reference allocator
// ignores it beyond honoring a non-zero Hint as "allocate at or above this
// address if possible"; a real arena would use it to steer NUMA/locality
// decisions.
type Pref struct {
	Hint uintptr
}

// PoolID identifies the pool an allocation belongs to. Alias of tract.PoolID
// since the two must compare equal across package boundaries.
type PoolID = tract.PoolID

type lockKey struct{}

// Arena owns a synthetic address range, the tract map over it, the
// arena-global grey rings and flipped-trace state, and the control
// allocator used for class-sized segment headers.
type Arena struct {
	granule     uintptr
	commitLimit uintptr

	mu sync.Mutex

	nextAddr  uintptr
	committed uintptr

	Tracts *tract.Map

	flipped   traceset.Set
	greyRings [4]*ring.Node // indexed by rankset.Rank; see rankset.count

	Shield shield.Shield

	// Events is optional: a nil Recorder records nothing, so an arena
	// built without observability wiring still runs.
	Events *segevents.Recorder

	control *csync.Pool[*classStorage]
}

// classStorage is the unit the control pool hands out: a fixed-capacity
// byte area big enough for any registered class's extension struct, reused
// across Allocate/Free through the arena's control pool.
type classStorage struct {
	bytes [256]byte
}

// New returns a ready-to-use Arena. base is the synthetic address the bump
// allocator starts handing out tracts from; granule is the tract size;
// commitLimit is the maximum number of bytes the arena will ever hand out
// (0 means unlimited).
func New(base, granule, commitLimit uintptr) *Arena {
	if granule == 0 || granule&(granule-1) != 0 {
		panic("arena: granule must be a positive power of two")
	}
	a := &Arena{
		granule:     granule,
		commitLimit: commitLimit,
		nextAddr:    base &^ (granule - 1),
		Tracts:      tract.NewMap(granule),
		Shield:      shield.NewMemory(),
	}
	for r := range a.greyRings {
		a.greyRings[r] = ring.New()
	}
	a.control = csync.NewPool[*classStorage](
		context.Background(),
		"arena.control",
		func() *classStorage { return &classStorage{} },
	)
	return a
}

// Granule returns the arena's tract granularity.
func (a *Arena) Granule() uintptr { return a.granule }

// Enter acquires the arena's lock, recursively: a goroutine that already
// holds it (tracked via a context value rather than a goroutine-id based
// recursive mutex, the idiomatic Go substitute) may call Enter again
// without deadlocking. The returned leave func must be called exactly once,
// from the same goroutine, to release the level of nesting Enter acquired.
func (a *Arena) Enter(ctx context.Context) (context.Context, func()) {
	if v := ctx.Value(lockKey{}); v != nil {
		if owner, ok := v.(*Arena); ok && owner == a {
			return ctx, func() {}
		}
	}
	a.mu.Lock()
	return context.WithValue(ctx, lockKey{}, a), a.mu.Unlock
}

// FlippedTraces returns the arena-global set of traces past mutator-root
// blackening. Callers must hold the arena lock.
func (a *Arena) FlippedTraces() traceset.Set { return a.flipped }

// SetFlippedTraces updates the arena-global flipped-trace state. Callers
// must hold the arena lock; gcseg's set_grey slot reads this to decide whether to
// raise or lower the read barrier.
func (a *Arena) SetFlippedTraces(f traceset.Set) { a.flipped = f }

// GreyRing returns the sentinel of the grey ring for r. Callers must hold
// the arena lock.
func (a *Arena) GreyRing(r rankset.Rank) *ring.Node {
	return a.greyRings[r]
}

// ControlAlloc borrows a class-storage block from the control pool. The
// caller must arrange for ControlFree to be called on the same pointer when
// the owning segment is freed.
func (a *Arena) ControlAlloc(ctx context.Context, need int) (any, error) {
	if need > len(classStorage{}.bytes) {
		return nil, ierrors.E(ctx, ierrors.TypeControlPool,
			invariantTooLarge(need, len(classStorage{}.bytes)))
	}
	cs := a.control.Get(ctx)
	return cs, nil
}

// ControlFree returns a control-pool block obtained from ControlAlloc.
func (a *Arena) ControlFree(ctx context.Context, p any) {
	cs, ok := p.(*classStorage)
	invariant.Check(ok, "arena: ControlFree called with a value not returned by ControlAlloc")
	a.control.Put(ctx, cs)
}

func invariantTooLarge(need, have int) error {
	return &tooLargeErr{need: need, have: have}
}

type tooLargeErr struct{ need, have int }

func (e *tooLargeErr) Error() string {
	return "arena: class storage request exceeds control block capacity"
}

// Alloc reserves size bytes (a multiple of the granule) from the arena's
// address space, honoring pref.Hint when possible, and returns the base
// address. It does not touch the tract map; callers bind tracts themselves
// once the segment is constructed.
func (a *Arena) Alloc(ctx context.Context, pref Pref, size uintptr) (uintptr, error) {
	if size == 0 || size%a.granule != 0 {
		panic("arena: Alloc size must be a positive multiple of the granule")
	}
	if a.commitLimit != 0 && a.committed+size > a.commitLimit {
		return 0, ierrors.E(ctx, ierrors.TypeCommitLimit, errCommitLimit)
	}
	base := a.nextAddr
	if pref.Hint != 0 && pref.Hint > base {
		base = pref.Hint &^ (a.granule - 1)
	}
	a.nextAddr = base + size
	a.committed += size
	return base, nil
}

// Free releases size bytes starting at base back to the arena's commit
// accounting. The reference allocator never reclaims address space (it is a
// bump allocator), only the commit-limit bookkeeping.
func (a *Arena) Free(base, size uintptr) {
	if size > a.committed {
		panic("arena: Free size exceeds committed total")
	}
	a.committed -= size
}

var errCommitLimit = &commitLimitErr{}

type commitLimitErr struct{}

func (e *commitLimitErr) Error() string { return "arena: commit limit exceeded" }

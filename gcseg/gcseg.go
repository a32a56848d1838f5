// Package gcseg implements SegGC, the garbage-collector-capable segment
// subclass: summary, an optional allocation buffer, the pool and grey
// intrusive rings, a client slot, and the shield-raising rules tied to
// colour, rank, and summary changes.
package gcseg

import (
	"fmt"
	"io"

	"github.com/gostdlib/base/context"

	"github.com/DawidvC/mps-segment/access"
	"github.com/DawidvC/mps-segment/internal/invariant"
	"github.com/DawidvC/mps-segment/rankset"
	"github.com/DawidvC/mps-segment/refset"
	"github.com/DawidvC/mps-segment/ring"
	"github.com/DawidvC/mps-segment/segment"
	"github.com/DawidvC/mps-segment/traceset"
)

// Ext is the state SegGC adds on top of segment.Generic. It is reachable
// only via Generic.Ext; there is no embedding, so the class vector's
// function slots can stay uniform over *segment.Generic.
type Ext struct {
	summary refset.Set
	buffer  any

	poolLink *ring.Node
	greyLink *ring.Node

	client any
}

func ext(g *segment.Generic) *Ext {
	e, ok := g.Ext.(*Ext)
	invariant.Check(ok, "gcseg: segment's Ext is not a *gcseg.Ext — wrong class dispatched")
	return e
}

// PoolRing is passed to NewClass so Init/Finish can attach/detach pool_link
// without this package needing to know anything about pool implementations
// beyond "a ring to attach to".
type PoolRing = *ring.Node

// NewClass builds SegGC as a subclass of segment.Seg: it inherits SetWhite
// unchanged and overrides every slot segment.Seg leaves as "not reached".
// poolRing is the sentinel of the owning pool's segment ring; every segment
// allocated with this class attaches its pool_link there on Init and
// detaches it on Finish.
func NewClass(poolRing PoolRing) *segment.Class {
	c := segment.NewClass("SegGC", segment.Seg)

	c.Init = func(ctx context.Context, g *segment.Generic) error {
		e := &Ext{
			summary:  refset.Empty,
			buffer:   nil,
			poolLink: (&ring.Node{Owner: g}).Init(),
			greyLink: (&ring.Node{Owner: g}).Init(),
		}
		g.Ext = e
		ring.InsertAfter(poolRing, e.poolLink)
		return nil
	}

	c.Finish = func(ctx context.Context, g *segment.Generic) {
		e := ext(g)
		if !g.Grey().IsEmpty() {
			ring.Remove(e.greyLink)
		}
		invariant.Check(e.buffer == nil, "gcseg: finish called with a non-nil buffer still attached")
		ring.Remove(e.poolLink)
	}

	c.SetGrey = setGrey
	c.SetRankSet = setRankSet
	c.SetSummary = setSummary
	c.SetRankAndSummary = setRankAndSummary
	c.Summary = func(g *segment.Generic) refset.Set { return ext(g).summary }
	c.Buffer = func(g *segment.Generic) any { return ext(g).buffer }
	c.SetBuffer = func(g *segment.Generic, b any) { ext(g).buffer = b }
	c.P = func(g *segment.Generic) any { return ext(g).client }
	c.SetP = func(g *segment.Generic, p any) { ext(g).client = p }
	c.Describe = describe

	return c
}

// setGrey implements the set_grey slot: assign the new grey set, update the
// grey-ring attachment, and update the read shield against flipped traces.
// Precondition (checked by segment.Generic.SetGrey before this runs):
// rank_set ≠ ∅.
func setGrey(g *segment.Generic, grey traceset.Set) {
	e := ext(g)
	old := g.Grey()

	a := g.Arena()
	if old.IsEmpty() && !grey.IsEmpty() {
		rank := g.RankSet().Rank()
		ring.InsertAfter(a.GreyRing(rank), e.greyLink)
		a.Events.GreyAttach(context.Background(), rank.String())
	} else if !old.IsEmpty() && grey.IsEmpty() {
		ring.Remove(e.greyLink)
		a.Events.GreyDetach(context.Background(), g.RankSet().Rank().String())
	}

	g.ClassSetGrey(grey)

	flipped := a.FlippedTraces()
	wasRead := !old.Intersect(flipped).IsEmpty()
	willRead := !grey.Intersect(flipped).IsEmpty()
	switch {
	case !wasRead && willRead:
		a.Shield.Raise(g, access.Of(access.Read))
		g.ClassSetSM(g.SM().With(access.Read))
	case wasRead && !willRead:
		a.Shield.Lower(g, access.Of(access.Read))
		g.ClassSetSM(g.SM().Without(access.Read))
	}
}

// setRankSet implements the set_rank_set slot. Preconditions (caller's
// responsibility, matching the "fused vs separated mutators" design note):
// transitioning either direction requires summary = ∅.
func setRankSet(g *segment.Generic, r rankset.Set) {
	e := ext(g)
	old := g.RankSet()
	invariant.Check(e.summary.IsEmpty(), "gcseg: set_rank_set requires summary = ∅, got %v", e.summary)

	g.ClassSetRankSet(r)

	switch {
	case old.IsEmpty() && !r.IsEmpty():
		g.Arena().Shield.Raise(g, access.Of(access.Write))
		g.ClassSetSM(g.SM().With(access.Write))
	case !old.IsEmpty() && r.IsEmpty():
		g.Arena().Shield.Lower(g, access.Of(access.Write))
		g.ClassSetSM(g.SM().Without(access.Write))
	}
}

// setSummary implements the set_summary slot. Precondition: rank_set ≠ ∅.
func setSummary(g *segment.Generic, s refset.Set) {
	e := ext(g)
	invariant.Check(!g.RankSet().IsEmpty(), "gcseg: set_summary requires a non-empty rank set")

	wasStrict := e.summary.StrictSubsetOfUniversal()
	willBeStrict := s.StrictSubsetOfUniversal()
	e.summary = s

	switch {
	case !wasStrict && willBeStrict:
		g.Arena().Shield.Raise(g, access.Of(access.Write))
		g.ClassSetSM(g.SM().With(access.Write))
	case wasStrict && !willBeStrict:
		g.Arena().Shield.Lower(g, access.Of(access.Write))
		g.ClassSetSM(g.SM().Without(access.Write))
	}
}

// setRankAndSummary implements the fused set_rank_and_summary slot: it
// computes the write-shield transition from the combined (rank, summary)
// state so no intermediate state can violate the rank/summary or
// write-shield invariants — the reason this slot exists separately from
// calling set_rank_set then set_summary.
// Precondition: r = ∅ ⇒ s = ∅ (checked by segment.Generic already).
func setRankAndSummary(g *segment.Generic, r rankset.Set, s refset.Set) {
	e := ext(g)
	oldRank, oldSummary := g.RankSet(), e.summary

	wasShielded := !oldRank.IsEmpty() && oldSummary.StrictSubsetOfUniversal()
	willBe := !r.IsEmpty() && s.StrictSubsetOfUniversal()

	g.ClassSetRankSet(r)
	e.summary = s

	switch {
	case !wasShielded && willBe:
		g.Arena().Shield.Raise(g, access.Of(access.Write))
		g.ClassSetSM(g.SM().With(access.Write))
	case wasShielded && !willBe:
		g.Arena().Shield.Lower(g, access.Of(access.Write))
		g.ClassSetSM(g.SM().Without(access.Write))
	}
}

// Validate checks a SegGC segment's invariants. The critical checks catch
// corruption that always indicates a bug regardless of what else is going
// on concurrently: a non-singleton rank set, a non-empty summary with an
// empty rank set, and a negative shield depth. When strict is true, it also
// cross-checks the shield mode against the colour/rank/summary state that
// is supposed to drive it — those two checks can momentarily disagree
// with a live segment observed mid-mutation (between ClassSetRankSet and
// the shield Raise/Lower call that follows it), so callers auditing a
// running arena rather than a quiescent one should pass strict = false.
func Validate(g *segment.Generic, strict bool) error {
	if !g.RankSet().IsEmpty() && !g.RankSet().IsSingleton() {
		return fmt.Errorf("gcseg: rank set %v is non-empty and not a singleton", g.RankSet())
	}
	e := ext(g)
	if g.RankSet().IsEmpty() && !e.summary.IsEmpty() {
		return fmt.Errorf("gcseg: summary %v is non-empty with an empty rank set", e.summary)
	}
	if g.Depth() < 0 {
		return fmt.Errorf("gcseg: shield depth %d is negative", g.Depth())
	}
	if !strict {
		return nil
	}

	wantWrite := !g.RankSet().IsEmpty() && e.summary.StrictSubsetOfUniversal()
	if wantWrite != g.SM().Has(access.Write) {
		return fmt.Errorf("gcseg: write shield mode %v inconsistent with rank=%v summary=%v", g.SM(), g.RankSet(), e.summary)
	}
	wantRead := !g.Grey().Intersect(g.Arena().FlippedTraces()).IsEmpty()
	if wantRead != g.SM().Has(access.Read) {
		return fmt.Errorf("gcseg: read shield mode %v inconsistent with grey=%v flipped=%v", g.SM(), g.Grey(), g.Arena().FlippedTraces())
	}
	return nil
}

func describe(g *segment.Generic, w io.Writer) {
	e := ext(g)
	fmt.Fprintf(w, "  gcseg: summary=%v buffer=%v client=%v pool_link_attached=%v grey_link_attached=%v\n",
		e.summary, e.buffer, e.client, e.poolLink.Attached(), e.greyLink.Attached())
}

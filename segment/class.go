package segment

import (
	"io"

	"github.com/gostdlib/base/context"

	"github.com/DawidvC/mps-segment/internal/invariant"
	"github.com/DawidvC/mps-segment/rankset"
	"github.com/DawidvC/mps-segment/refset"
	"github.com/DawidvC/mps-segment/traceset"
)

// The class registry lives in this package rather than a segment/class
// sub-package: a Class's operation slots are functions over *Generic, so a
// separate package would need to import this one for that type, and this
// package needs Class for the segment's class field — an import cycle
// either way. Co-locating them is the direct fix.

// Class is an immutable operation vector. Subclassing copies a parent's
// slots and overrides only the ones that differ; a slot a class doesn't
// support points at a "not reached" stub instead of being left nil, so a
// call against the wrong class panics with a clear message rather than a
// bare nil-pointer dereference.
type Class struct {
	Name   string
	Parent *Class

	Init              func(ctx context.Context, g *Generic) error
	Finish            func(ctx context.Context, g *Generic)
	SetGrey           func(g *Generic, grey traceset.Set)
	SetWhite          func(g *Generic, white traceset.Set)
	SetRankSet        func(g *Generic, r rankset.Set)
	SetSummary        func(g *Generic, s refset.Set)
	SetRankAndSummary func(g *Generic, r rankset.Set, s refset.Set)
	Summary           func(g *Generic) refset.Set
	Buffer            func(g *Generic) any
	SetBuffer         func(g *Generic, b any)
	P                 func(g *Generic) any
	SetP              func(g *Generic, p any)
	Describe          func(g *Generic, w io.Writer)
}

// NewClass returns a new class named name, inheriting parent's slots (or, if
// parent is nil, the universal not-reached stubs). Override whichever slots
// differ on the returned value before registering it; the "next method"
// idiom is calling parent's slot function directly from inside an override.
func NewClass(name string, parent *Class) *Class {
	var c Class
	if parent != nil {
		c = *parent
	} else {
		c = Class{
			Init:              func(context.Context, *Generic) error { return nil },
			Finish:            func(context.Context, *Generic) {},
			SetGrey:           notReachedSetGrey,
			SetWhite:          SetWhiteTracts,
			SetRankSet:        notReachedSetRankSet,
			SetSummary:        notReachedSetSummary,
			SetRankAndSummary: notReachedSetRankAndSummary,
			Summary:           notReachedSummary,
			Buffer:            notReachedBuffer,
			SetBuffer:         notReachedSetBuffer,
			P:                 notReachedP,
			SetP:              notReachedSetP,
			Describe:          baseDescribe,
		}
	}
	c.Name = name
	c.Parent = parent
	return &c
}

func notReachedSetGrey(g *Generic, grey traceset.Set) {
	invariant.Unreachable("class %q does not support set_grey", g.class.Name)
}

func notReachedSetRankSet(g *Generic, r rankset.Set) {
	invariant.Unreachable("class %q does not support set_rank_set", g.class.Name)
}

func notReachedSetSummary(g *Generic, s refset.Set) {
	invariant.Unreachable("class %q does not support set_summary", g.class.Name)
}

func notReachedSetRankAndSummary(g *Generic, r rankset.Set, s refset.Set) {
	invariant.Unreachable("class %q does not support set_rank_and_summary", g.class.Name)
}

func notReachedSummary(g *Generic) refset.Set {
	invariant.Unreachable("class %q does not support summary", g.class.Name)
	return refset.Empty
}

func notReachedBuffer(g *Generic) any {
	invariant.Unreachable("class %q does not support buffer", g.class.Name)
	return nil
}

func notReachedSetBuffer(g *Generic, b any) {
	invariant.Unreachable("class %q does not support set_buffer", g.class.Name)
}

func notReachedP(g *Generic) any {
	invariant.Unreachable("class %q does not support p", g.class.Name)
	return nil
}

func notReachedSetP(g *Generic, p any) {
	invariant.Unreachable("class %q does not support set_p", g.class.Name)
}

// Seg is the base class: colour and shield bookkeeping only. Every
// reference-oriented slot (grey, rank set, summary, buffer, client slot) is
// not-reached; only SegGC (in package gcseg) fills those in.
var Seg = func() *Class {
	c := NewClass("Seg", nil)
	return c
}()

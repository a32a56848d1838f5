// Package rankset implements the small fixed-width bitset over reference
// ranks that a segment's rank field is drawn from. A segment's rank set is
// always either empty or a singleton; Set.Rank and Set.IsSingleton exist to
// let callers enforce that at the boundary rather than trusting it silently.
package rankset

import (
	"fmt"
	"strings"

	"github.com/DawidvC/mps-segment/internal/bits"
)

// Rank identifies the reference-strength class of the pointers a segment
// holds.
type Rank uint8

const (
	Ambiguous Rank = iota
	Exact
	Final
	Weak

	// count is the number of defined ranks. Keep last.
	count
)

func (r Rank) String() string {
	switch r {
	case Ambiguous:
		return "ambiguous"
	case Exact:
		return "exact"
	case Final:
		return "final"
	case Weak:
		return "weak"
	default:
		return fmt.Sprintf("rank(%d)", uint8(r))
	}
}

// Set is a bitset over Rank. The zero value is the empty set.
type Set uint8

// Empty is the empty rank set.
const Empty Set = 0

// Of builds a singleton set containing r.
func Of(r Rank) Set {
	return Set(bits.SetBit(uint8(0), uint8(r), true))
}

// Has reports whether r is a member of s.
func (s Set) Has(r Rank) bool {
	return bits.GetBit(uint8(s), uint8(r))
}

// With returns s with r added.
func (s Set) With(r Rank) Set {
	return Set(bits.SetBit(uint8(s), uint8(r), true))
}

// Without returns s with r removed.
func (s Set) Without(r Rank) Set {
	return Set(bits.ClearBit(uint8(s), uint8(r)))
}

// IsEmpty reports whether s has no members.
func (s Set) IsEmpty() bool {
	return s == Empty
}

// IsSingleton reports whether s has exactly one member, the shape a
// segment's rank set must always have when non-empty.
func (s Set) IsSingleton() bool {
	return bits.PopCount(uint8(s)) == 1
}

// Rank returns the unique member of s. It panics if s is not a singleton;
// callers must check IsSingleton first, or know it by construction (e.g. the
// set used to build a grey-ring index).
func (s Set) Rank() Rank {
	if !s.IsSingleton() {
		panic(fmt.Sprintf("rankset: Rank() called on non-singleton set %v", s))
	}
	for r := Rank(0); r < count; r++ {
		if s.Has(r) {
			return r
		}
	}
	panic("unreachable")
}

// Union returns the union of s and o.
func (s Set) Union(o Set) Set {
	return s | o
}

// Intersect returns the intersection of s and o.
func (s Set) Intersect(o Set) Set {
	return s & o
}

func (s Set) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	var parts []string
	for r := Rank(0); r < count; r++ {
		if s.Has(r) {
			parts = append(parts, r.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

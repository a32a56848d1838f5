// Package traceset implements the fixed-width bitset over trace identifiers
// that the generic segment's grey field and the arena's flipped-traces state
// are drawn from.
package traceset

import (
	"fmt"

	"github.com/DawidvC/mps-segment/internal/bits"
)

// Limit is the maximum number of traces a single arena can run concurrently.
// A trace's identifier must satisfy 0 <= id < Limit.
const Limit = 64

// ID identifies one trace.
type ID uint8

// Set is a bitset over trace IDs 0..Limit-1. The zero value is the empty set.
type Set uint64

// Empty is the empty trace set.
const Empty Set = 0

// Universal is the set containing every representable trace ID. It is used
// only by tests exercising the "equal to universal" property; live arenas
// rarely run 64 concurrent traces.
const Universal Set = ^Set(0)

// Of builds a singleton set containing id. It panics if id >= Limit.
func Of(id ID) Set {
	checkID(id)
	return Set(bits.SetBit(uint64(0), uint8(id), true))
}

func checkID(id ID) {
	if id >= Limit {
		panic(fmt.Sprintf("traceset: id %d out of range [0,%d)", id, Limit))
	}
}

// Has reports whether id is a member of s.
func (s Set) Has(id ID) bool {
	checkID(id)
	return bits.GetBit(uint64(s), uint8(id))
}

// With returns s with id added.
func (s Set) With(id ID) Set {
	checkID(id)
	return Set(bits.SetBit(uint64(s), uint8(id), true))
}

// Without returns s with id removed.
func (s Set) Without(id ID) Set {
	checkID(id)
	return Set(bits.ClearBit(uint64(s), uint8(id)))
}

// Union returns the union of s and o.
func (s Set) Union(o Set) Set {
	return s | o
}

// Intersect returns the intersection of s and o.
func (s Set) Intersect(o Set) Set {
	return s & o
}

// IsEmpty reports whether s has no members.
func (s Set) IsEmpty() bool {
	return s == Empty
}

// IsSingleton reports whether s has exactly one member.
func (s Set) IsSingleton() bool {
	return bits.PopCount(uint64(s)) == 1
}

// IsUniversal reports whether s equals Universal.
func (s Set) IsUniversal() bool {
	return s == Universal
}

// Subset reports whether every member of s is also a member of o.
func (s Set) Subset(o Set) bool {
	return s&o == s
}

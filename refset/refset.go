// Package refset implements the reference set ("summary") — a conservative
// approximation of the set of zones a segment's references point into. It is
// a zone bitmap: address space is striped into 64 zones by a handful of
// low-order bits above the granule, and a summary records which zones have
// been observed, never which exact addresses.
package refset

import "github.com/DawidvC/mps-segment/internal/bits"

// ZoneShift is the bit position of the lowest zone-stripe bit. Addresses
// that differ only below this bit fall in the same zone.
const ZoneShift = 20

// zoneMask selects the 6 zone-stripe bits (64 zones) starting at ZoneShift.
const zoneMask = uint64(0x3f) << ZoneShift

// Set is a conservative reference set: a 64-bit zone bitmap. The zero value
// is Empty.
type Set uint64

// Empty is the reference set containing no zones.
const Empty Set = 0

// Universal is the reference set that conservatively covers every zone. A
// summary of Universal means "no information" — the write barrier never
// needs to trap on it since nothing narrower can be assumed.
const Universal Set = ^Set(0)

// AddAddr returns s with the zone containing addr added.
func AddAddr(s Set, addr uintptr) Set {
	zone := (uint64(addr) & zoneMask) >> ZoneShift
	return Set(bits.SetBit(uint64(s), uint8(zone), true))
}

// Union returns the union of s and o.
func (s Set) Union(o Set) Set {
	return s | o
}

// Intersect returns the intersection of s and o.
func (s Set) Intersect(o Set) Set {
	return s & o
}

// IsEmpty reports whether s has no zones set.
func (s Set) IsEmpty() bool {
	return s == Empty
}

// IsUniversal reports whether s covers every zone.
func (s Set) IsUniversal() bool {
	return s == Universal
}

// StrictSubsetOfUniversal reports whether s is a proper subset of Universal —
// the condition that decides whether the write barrier must be raised: a
// summary that is strictly narrower than "no information" is worth
// protecting against.
func (s Set) StrictSubsetOfUniversal() bool {
	return s != Universal
}

// Package bits provides generic bit-packing helpers used by the small fixed-width
// bitsets (rankset, traceset, access, refset) that make up the segment layer's
// data model. Adapted from the claw wire-format header packing of the same name;
// the byte-slice variant and the unsafe conversions it leaned on aren't needed
// here since our bitsets are always in-register words.
package bits

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// GetBit gets a single bit value from "store" in position "pos". true if set, false if not.
func GetBit[U constraints.Unsigned](store U, pos uint8) bool {
	switch any(store).(type) {
	case uint8:
		if pos > 7 {
			panic(fmt.Sprintf("can't GetBit() a uint8 position %d", pos))
		}
	case uint16:
		if pos > 15 {
			panic(fmt.Sprintf("can't GetBit() a uint16 position %d", pos))
		}
	case uint32:
		if pos > 31 {
			panic(fmt.Sprintf("can't GetBit() a uint32 position %d", pos))
		}
	case uint64:
		if pos > 63 {
			panic(fmt.Sprintf("can't GetBit() a uint64 position %d", pos))
		}
	}
	return store&(1<<pos) != 0
}

// SetBit sets a single bit in "store" at position "pos" to value "val". If val is true,
// the bit is set to 1, if false, it is set to 0.
func SetBit[U constraints.Unsigned](store U, pos uint8, val bool) U {
	switch any(store).(type) {
	case uint8:
		if pos > 7 {
			panic(fmt.Sprintf("can't SetBit() a uint8 position %d", pos))
		}
	case uint16:
		if pos > 15 {
			panic(fmt.Sprintf("can't SetBit() a uint16 position %d", pos))
		}
	case uint32:
		if pos > 31 {
			panic(fmt.Sprintf("can't SetBit() a uint32 position %d", pos))
		}
	case uint64:
		if pos > 63 {
			panic(fmt.Sprintf("can't SetBit() a uint64 position %d", pos))
		}
	}
	if val {
		return store | (1 << pos)
	}

	return store & ^(1 << pos)
}

// ClearBit clears the bit at pos in store.
func ClearBit[U constraints.Unsigned](store U, pos uint8) U {
	store &^= (1 << pos)
	return store
}

// PopCount returns the number of set bits in store. Used by the rank/trace sets
// to implement their singleton checks.
func PopCount[U constraints.Unsigned](store U) int {
	switch v := any(store).(type) {
	case uint8:
		return bits.OnesCount8(v)
	case uint16:
		return bits.OnesCount16(v)
	case uint32:
		return bits.OnesCount32(v)
	case uint64:
		return bits.OnesCount64(v)
	default:
		return bits.OnesCount64(uint64(store))
	}
}

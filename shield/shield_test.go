package shield

import (
	"testing"

	"github.com/DawidvC/mps-segment/access"
)

func TestRaiseLowerAndCurrent(t *testing.T) {
	m := NewMemory()
	h := "segment-a"

	if !m.Current(h).IsEmpty() {
		t.Fatalf("expected no mode in force before any Raise")
	}

	m.Raise(h, access.Of(access.Read))
	if !m.Current(h).Has(access.Read) || m.Current(h).Has(access.Write) {
		t.Fatalf("Current(h) = %v, want only read", m.Current(h))
	}

	m.Raise(h, access.Of(access.Write))
	if m.Current(h) != access.Both {
		t.Fatalf("Current(h) = %v, want %v", m.Current(h), access.Both)
	}

	m.Lower(h, access.Of(access.Read))
	if m.Current(h).Has(access.Read) || !m.Current(h).Has(access.Write) {
		t.Fatalf("Current(h) after lowering read = %v, want only write", m.Current(h))
	}

	m.Lower(h, access.Of(access.Write))
	if !m.Current(h).IsEmpty() {
		t.Fatalf("expected no mode in force once both are lowered, got %v", m.Current(h))
	}
}

func TestLowerOnUnraisedHandleIsNoop(t *testing.T) {
	m := NewMemory()
	m.Lower("never-raised", access.Both)
	if !m.Current("never-raised").IsEmpty() {
		t.Fatalf("expected lowering an unraised handle to stay empty")
	}
}

func TestIndependentHandles(t *testing.T) {
	m := NewMemory()
	m.Raise("a", access.Of(access.Write))
	if !m.Current("b").IsEmpty() {
		t.Fatalf("expected handle b unaffected by a Raise on handle a")
	}
}

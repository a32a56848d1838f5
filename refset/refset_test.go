package refset

import "testing"

func TestAddAddrAndUnion(t *testing.T) {
	s := AddAddr(Empty, 0)
	s2 := AddAddr(s, uintptr(1)<<uint(ZoneShift+2))
	u := s.Union(s2)
	if u.IsEmpty() {
		t.Fatalf("expected non-empty union, got %v", u)
	}
	if !u.StrictSubsetOfUniversal() {
		t.Fatalf("expected a two-zone set to remain a strict subset of Universal")
	}
}

func TestUniversal(t *testing.T) {
	if !Universal.IsUniversal() {
		t.Errorf("Universal.IsUniversal() = false, want true")
	}
	if Universal.StrictSubsetOfUniversal() {
		t.Errorf("Universal.StrictSubsetOfUniversal() = true, want false")
	}
	if !Empty.StrictSubsetOfUniversal() {
		t.Errorf("Empty.StrictSubsetOfUniversal() = false, want true")
	}
}

func TestIntersect(t *testing.T) {
	a := AddAddr(Empty, 0)
	b := AddAddr(Empty, 0)
	if a.Intersect(b) != a {
		t.Errorf("same-zone sets should intersect to themselves: got %v, want %v", a.Intersect(b), a)
	}
}

package ring

import "testing"

func TestDetachedIsRingOfOne(t *testing.T) {
	n := (&Node{}).Init()
	if n.Attached() {
		t.Fatalf("freshly initialized node reports Attached() = true")
	}
	if n.Next() != n || n.Prev() != n {
		t.Fatalf("freshly initialized node should be self-linked")
	}
}

func TestInsertAndRemove(t *testing.T) {
	sentinel := New()
	a := (&Node{Owner: "a"}).Init()
	b := (&Node{Owner: "b"}).Init()

	InsertAfter(sentinel, a)
	InsertAfter(sentinel, b)

	if Len(sentinel) != 2 {
		t.Fatalf("Len() = %d, want 2", Len(sentinel))
	}
	if !a.Attached() || !b.Attached() {
		t.Fatalf("expected both nodes attached")
	}

	// InsertAfter always inserts right after the target, so b ends up first.
	var order []string
	Each(sentinel, func(n *Node) { order = append(order, n.Owner.(string)) })
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("ring order = %v, want [b a]", order)
	}

	Remove(a)
	if a.Attached() {
		t.Fatalf("expected a detached after Remove")
	}
	if Len(sentinel) != 1 {
		t.Fatalf("Len() after Remove = %d, want 1", Len(sentinel))
	}

	// Removing twice is a no-op.
	Remove(a)
	if Len(sentinel) != 1 {
		t.Fatalf("Len() after double Remove = %d, want 1", Len(sentinel))
	}
}

func TestInsertAfterPanicsOnAlreadyAttached(t *testing.T) {
	sentinel := New()
	a := (&Node{}).Init()
	InsertAfter(sentinel, a)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic inserting an already-attached node")
		}
	}()
	InsertAfter(sentinel, a)
}

// Package ring implements the intrusive doubly-linked ring used for the
// GC segment's pool_link and grey_link fields. A ring is a set of Nodes
// linked circularly with no distinguished head; a freshly-initialized or
// freshly-removed Node is a ring of one — itself — which doubles as the
// "detached" state the attachment invariants (pool membership, grey-ring
// membership) are built on. Adapted from the standard library's
// container/ring, generalized from a fixed-size pre-allocated ring to
// one grown and shrunk one node at a time via InsertAfter/Remove, the shape an
// intrusive per-segment link needs.
package ring

// Node is one element of a ring, or a ring of one when self-linked.
// Embed it in a struct to make that struct ring-attachable; the zero value
// is not ready to use, call Init first.
type Node struct {
	next, prev *Node
	// Owner lets a ring walker recover the embedding value without an
	// unsafe cast. Set it once, at construction, and never mutate it.
	Owner any
}

// Init makes n a detached ring of one and returns it.
func (n *Node) Init() *Node {
	n.next = n
	n.prev = n
	return n
}

// Attached reports whether n has been inserted into some ring other than
// itself.
func (n *Node) Attached() bool {
	return n.next != nil && n.next != n
}

// Next returns the next node in the ring. n must be non-nil and initialized.
func (n *Node) Next() *Node {
	return n.next
}

// Prev returns the previous node in the ring. n must be non-nil and initialized.
func (n *Node) Prev() *Node {
	return n.prev
}

// InsertAfter splices n into the ring immediately after at. n must currently
// be detached (a ring of one); at may be any node of the target ring,
// including a sentinel created with New.
func InsertAfter(at, n *Node) {
	if n.Attached() {
		panic("ring: InsertAfter called on an already-attached node")
	}
	next := at.next
	at.next = n
	n.prev = at
	n.next = next
	next.prev = n
}

// Remove detaches n from whatever ring it is in, leaving it as a ring of
// one. Removing an already-detached node is a no-op.
func Remove(n *Node) {
	if !n.Attached() {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.Init()
}

// New returns a fresh, detached sentinel node to anchor a ring. A sentinel
// never itself represents a live member — only nodes inserted via
// InsertAfter do — so its Owner is left nil.
func New() *Node {
	return (&Node{}).Init()
}

// Each calls visit for every node in the ring anchored at sentinel, in
// ring order, not including the sentinel itself. visit must not mutate the
// ring; collect nodes to remove and remove them after Each returns.
func Each(sentinel *Node, visit func(*Node)) {
	for n := sentinel.Next(); n != sentinel; n = n.Next() {
		visit(n)
	}
}

// Len counts the nodes in the ring anchored at sentinel, not including the
// sentinel itself. O(n); intended for tests and Describe, not the hot path.
func Len(sentinel *Node) int {
	n := 0
	Each(sentinel, func(*Node) { n++ })
	return n
}

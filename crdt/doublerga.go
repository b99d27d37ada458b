package crdt

import (
	"sort"
	"strings"
)

// +-----------+
// | DoubleRGA |
// +-----------+

// The DoubleRGA variants sort siblings with explicit tree comparators
// instead of a scan with a lookahead flag. Every stored item caches links
// to its tree parents; the links point at items integrated earlier, so the
// graph is acyclic and depths grow monotonically with integration order.
// Holding items by pointer keeps the links valid across splices.

// integrateDoubleRGA1 places an item using a comparator over the
// originLeft tree, refined by a secondary order over the originRight tree
// restricted to same-left siblings.
func integrateDoubleRGA1(d *Doc, it *Item, hint int) error {
	if err := d.checkSeq(it); err != nil {
		return err
	}
	left, err := d.leftIndex(it.OriginLeft, hint-1)
	if err != nil {
		return err
	}
	right, err := d.rightIndex(it.OriginRight, hint)
	if err != nil {
		return err
	}

	if !it.OriginLeft.IsNil() {
		p := d.Content[left]
		it.leftParent = p
		it.leftDepth = p.leftDepth + 1
	}
	if !it.OriginRight.IsNil() {
		// The right link is only kept when it stays inside the sibling
		// group, i.e. the right origin hangs off the same left origin.
		r := d.Content[right]
		if r.OriginLeft == it.OriginLeft {
			it.rightParent = r
			it.rightDepth = r.rightDepth + 1
		}
	}

	lo := left + 1
	k := sort.Search(right-lo, func(k int) bool {
		return doubleRGA1Cmp(it, d.Content[lo+k]) < 0
	})
	d.commit(it, lo+k)
	return nil
}

// doubleRGA1Cmp returns the relative document order of two distinct items.
func doubleRGA1Cmp(a, b *Item) int {
	x, y := a, b
	// Equalize depth in the originLeft tree.
	for x.leftDepth > y.leftDepth {
		x = x.leftParent
	}
	for y.leftDepth > x.leftDepth {
		y = y.leftParent
	}
	if x == y {
		// Ancestor and descendant: the deeper one sorts later.
		if a.leftDepth > b.leftDepth {
			return +1
		}
		return -1
	}
	// Climb in lockstep to siblings under a common left parent.
	for x.leftParent != y.leftParent {
		x = x.leftParent
		y = y.leftParent
	}
	return rightTreeCmp(x, y)
}

// rightTreeCmp orders two same-left siblings by their originRight chains.
// The sense is reversed: an item hanging deeper off a right origin sits
// further left.
func rightTreeCmp(a, b *Item) int {
	x, y := a, b
	for x.rightDepth > y.rightDepth {
		x = x.rightParent
	}
	for y.rightDepth > x.rightDepth {
		y = y.rightParent
	}
	if x == y {
		if a.rightDepth > b.rightDepth {
			return -1
		}
		return +1
	}
	for x.rightParent != y.rightParent {
		x = x.rightParent
		y = y.rightParent
	}
	return strings.Compare(x.ID.Agent, y.ID.Agent)
}

// integrateDoubleRGA2 places an item using a single parent-with-direction
// tree folded from both origins.
func integrateDoubleRGA2(d *Doc, it *Item, hint int) error {
	if err := d.checkSeq(it); err != nil {
		return err
	}
	left, err := d.leftIndex(it.OriginLeft, hint-1)
	if err != nil {
		return err
	}
	right, err := d.rightIndex(it.OriginRight, hint)
	if err != nil {
		return err
	}

	// Parent selection: hang off the left origin, unless the right origin
	// is itself a same-left sibling, in which case hang off it from the
	// right.
	it.parentLeft = true
	if !it.OriginRight.IsNil() {
		if r := d.Content[right]; r.OriginLeft == it.OriginLeft {
			it.parent = r
			it.parentLeft = false
		}
	}
	if it.parent == nil && !it.OriginLeft.IsNil() {
		it.parent = d.Content[left]
	}
	if it.parent != nil {
		it.depth = it.parent.depth + 1
	}

	lo := left + 1
	k := sort.Search(right-lo, func(k int) bool {
		return doubleRGA2Cmp(it, d.Content[lo+k]) < 0
	})
	d.commit(it, lo+k)
	return nil
}

// doubleRGA2Cmp returns the relative document order of two distinct items
// in the unified tree. A child hangs right of a left parent and left of a
// right parent; same-direction siblings order by agent ascending, and a
// right child sorts before a left child.
func doubleRGA2Cmp(a, b *Item) int {
	x, y := a, b
	var xDir, yDir bool
	for x.depth > y.depth {
		xDir = x.parentLeft
		x = x.parent
	}
	for y.depth > x.depth {
		yDir = y.parentLeft
		y = y.parent
	}
	if x == y {
		// Ancestor and descendant: the deeper one lies in the direction
		// of the last step taken towards the ancestor.
		if a.depth > b.depth {
			if xDir {
				return +1
			}
			return -1
		}
		if yDir {
			return -1
		}
		return +1
	}
	for x.parent != y.parent {
		x = x.parent
		y = y.parent
	}
	if x.parentLeft != y.parentLeft {
		if x.parentLeft {
			return +1
		}
		return -1
	}
	return strings.Compare(x.ID.Agent, y.ID.Agent)
}

package crdt

// +-----------+
// | Automerge |
// +-----------+

// integrateAutomerge orders children of the same parent by descending seq,
// with ascending agent as tiebreak, so that subtrees appear contiguously in
// document order. The right origin is carried but never consulted.
//
// Interoperability note: the Automerge reference implementation orders
// same-seq siblings by descending agent. An adapter bridging to it must
// invert the agent order on the wire.
func integrateAutomerge(d *Doc, it *Item, hint int) error {
	if err := d.checkSeq(it); err != nil {
		return err
	}
	parent, err := d.leftIndex(it.OriginLeft, hint-1)
	if err != nil {
		return err
	}

	dest := parent + 1
	for ; dest < len(d.Content); dest++ {
		o := d.Content[dest]
		if it.Seq > o.Seq {
			break
		}
		oparent, err := d.leftIndex(o.OriginLeft, -1)
		if err != nil {
			return err
		}
		if oparent < parent {
			break
		}
		if oparent == parent && it.Seq == o.Seq && it.ID.Agent < o.ID.Agent {
			break
		}
	}
	d.commit(it, dest)
	return nil
}

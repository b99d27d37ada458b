package crdt

// +-------+
// | Sync9 |
// +-------+

// Sync9 positions are parent references rather than left/right origin
// pairs: each item names the item it attaches to (OriginLeft) and whether
// it attaches to the end of that item's splittable span or to its start.
// Attaching to the start of an item that still carries content splits the
// item: a content-less copy is spliced directly before it and becomes the
// left-end sentinel of the span. Sentinels are structural, not garbage:
// GetArray filters them out, but they stay in the content forever.

// integrateSync9 places an item under its span parent.
func integrateSync9(d *Doc, it *Item, hint int) error {
	if err := d.checkSeq(it); err != nil {
		return err
	}
	parent := -1
	if !it.OriginLeft.IsNil() {
		var err error
		parent, err = d.findByID(it.OriginLeft, it.InsertAfter, hint-1)
		if err != nil {
			return err
		}
	}

	if !it.InsertAfter && parent >= 0 && d.Content[parent].Content != nil {
		// First insertion at the start of an unsplit span: split the
		// parent and land directly after the new sentinel.
		p := d.Content[parent]
		sentinel := &Item{
			ID:          p.ID,
			OriginLeft:  p.OriginLeft,
			OriginRight: p.OriginRight,
			Deleted:     p.Deleted,
			Seq:         p.Seq,
			InsertAfter: p.InsertAfter,
		}
		d.splice(sentinel, parent)
		d.commit(it, parent+1)
		return nil
	}

	dest := parent + 1
	for ; dest < len(d.Content); dest++ {
		o := d.Content[dest]
		oparent := -1
		if !o.OriginLeft.IsNil() {
			var err error
			oparent, err = d.findByID(o.OriginLeft, o.InsertAfter, -1)
			if err != nil {
				return err
			}
		}
		if oparent < parent {
			break
		}
		if oparent == parent && it.ID.Agent < o.ID.Agent {
			break
		}
	}
	d.commit(it, dest)
	return nil
}

// localInsertSync9 synthesises a span attachment for an insertion at
// visible position pos.
//
// The insertion gap is found with the walk stuck to its left end, so it can
// resolve inside a run of content-less sentinels. The attachment is then
// one of:
//
//   - end of document: attach after the last item (or the boundary);
//   - a span opening at the gap: attach at the start of the first
//     content-bearing item, splitting it if it has not been split yet;
//   - a span boundary inside an already-open span: attach after the
//     preceding visible item.
//
// The last case is detected by the first copy of the following item lying
// before the gap, which means the gap's left neighbour is itself part of
// that item's span prefix.
func localInsertSync9(a *Algorithm, d *Doc, agent string, pos int, content any) error {
	i, err := d.findPos(pos, true)
	if err != nil {
		return err
	}
	it := &Item{
		ID:      Id{Agent: agent, Seq: d.Version.next(agent)},
		Content: content,
		Seq:     d.MaxSeq + 1,
	}

	switch {
	case i == len(d.Content):
		if i > 0 {
			it.OriginLeft = d.Content[i-1].ID
			it.InsertAfter = true
		}
	default:
		// A sentinel always has its content-bearing copy further right,
		// so this walk stops before the end.
		j := i
		for d.Content[j].Content == nil {
			j++
		}
		first, err := d.findByID(d.Content[j].ID, false, j)
		if err != nil {
			return err
		}
		if first < i {
			it.OriginLeft = d.Content[i-1].ID
			it.InsertAfter = true
		} else {
			it.OriginLeft = d.Content[j].ID
			it.InsertAfter = false
		}
	}
	return a.integrateFn(d, it, i)
}

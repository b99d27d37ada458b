package crdt

// +--------------+
// | Yjs variants |
// +--------------+

// The routines below share a loop skeleton: scan the slots between the
// resolved origins, advancing the destination while not in scanning mode,
// and decide per occupant whether to stop, to skip, or to enter scanning
// mode (a tentative position that is only kept if the scan later confirms
// it).

// integrateYjsActual consults the agent tiebreak before the right origin,
// as the production Yjs codebase does.
func integrateYjsActual(d *Doc, it *Item, hint int) error {
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

	dest := left + 1
	scanning := false
	for i := dest; ; i++ {
		if !scanning {
			dest = i
		}
		if i == len(d.Content) || i == right {
			break
		}
		o := d.Content[i]
		oleft, err := d.leftIndex(o.OriginLeft, -1)
		if err != nil {
			return err
		}
		if oleft < left {
			break
		}
		if oleft > left {
			// Occupant hangs further right; skip its whole subtree.
			continue
		}
		if it.ID.Agent > o.ID.Agent {
			scanning = false
			continue
		}
		oright, err := d.rightIndex(o.OriginRight, -1)
		if err != nil {
			return err
		}
		if oright == right {
			break
		}
		scanning = true
	}
	d.commit(it, dest)
	return nil
}

// integrateYjsMod consults the right origin before the agent tiebreak,
// which resolves several interleaving conflicts that YjsActual does not.
func integrateYjsMod(d *Doc, it *Item, hint int) error {
	return integrateYjsStyle(d, it, hint, (*Doc).occupantRight)
}

// integrateDoubleRGAEquiv is YjsMod with one twist: any right origin
// (the new item's or an occupant's) whose item has a different left origin
// than its bearer is treated as null for the whole placement decision.
// This reproduces DoubleRGA2's behaviour in the YjsMod placement style.
func integrateDoubleRGAEquiv(d *Doc, it *Item, hint int) error {
	return integrateYjsStyle(d, it, hint, (*Doc).occupantSiblingRight)
}

// integrateYjsStyle is the YjsMod placement loop with a pluggable
// right-origin resolver.
func integrateYjsStyle(d *Doc, it *Item, hint int, orightOf func(*Doc, *Item, int) (int, error)) error {
	if err := d.checkSeq(it); err != nil {
		return err
	}
	left, err := d.leftIndex(it.OriginLeft, hint-1)
	if err != nil {
		return err
	}
	right, err := orightOf(d, it, hint)
	if err != nil {
		return err
	}

	dest := left + 1
	scanning := false
	for i := dest; ; i++ {
		if !scanning {
			dest = i
		}
		if i == len(d.Content) || i == right {
			break
		}
		o := d.Content[i]
		oleft, err := d.leftIndex(o.OriginLeft, -1)
		if err != nil {
			return err
		}
		if oleft < left {
			break
		}
		if oleft > left {
			continue
		}
		oright, err := orightOf(d, o, -1)
		if err != nil {
			return err
		}
		if oright < right {
			scanning = true
			continue
		}
		if oright == right && it.ID.Agent < o.ID.Agent {
			break
		}
		scanning = false
	}
	d.commit(it, dest)
	return nil
}

// occupantRight resolves an item's right origin, boundary included.
func (d *Doc) occupantRight(it *Item, hint int) (int, error) {
	return d.rightIndex(it.OriginRight, hint)
}

// occupantSiblingRight resolves an item's right origin, masking it to the
// boundary when the referenced item is not a sibling under the same left
// origin.
func (d *Doc) occupantSiblingRight(it *Item, hint int) (int, error) {
	if it.OriginRight.IsNil() {
		return len(d.Content), nil
	}
	i, err := d.findByID(it.OriginRight, false, hint)
	if err != nil {
		return 0, err
	}
	if d.Content[i].OriginLeft != it.OriginLeft {
		return len(d.Content), nil
	}
	return i, nil
}

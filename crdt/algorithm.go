package crdt

import "fmt"

// +------------+
// | Algorithms |
// +------------+

// Algorithm is the capability record of one integration variant: how to
// generate a local insertion, how to place a foreign item, and which of the
// documented interleaving scenarios the variant is excluded from.
//
// Algorithms are fixed package-level records; a caller picks one at
// construction time and uses it for the whole life of a document. Mixing
// algorithms on one document produces garbage.
type Algorithm struct {
	// Name of the variant, for test output and diagnostics.
	Name string

	integrateFn func(d *Doc, it *Item, hint int) error
	// insertFn overrides the shared origin synthesis. Only Sync9 sets it.
	insertFn func(a *Algorithm, d *Doc, agent string, pos int, content any) error
	// annotate renders the variant-specific item fields in PrintDoc.
	annotate func(it *Item) string
	skip     map[string]bool
}

var (
	// YjsActual places concurrent siblings the way the production Yjs
	// codebase does, consulting the agent tiebreak before the right origin.
	YjsActual = &Algorithm{
		Name:        "yjs-actual",
		integrateFn: integrateYjsActual,
		skip:        tags("interleaving-backward", "tails"),
	}
	// YjsMod consults the right origin before the agent tiebreak, which
	// resolves several interleaving conflicts that YjsActual does not.
	YjsMod = &Algorithm{
		Name:        "yjs-mod",
		integrateFn: integrateYjsMod,
	}
	// Automerge orders same-parent siblings by descending seq, breaking
	// ties by ascending agent.
	Automerge = &Algorithm{
		Name:        "automerge",
		integrateFn: integrateAutomerge,
		annotate:    func(it *Item) string { return fmt.Sprintf(" seq=%d", it.Seq) },
		skip:        tags("interleaving-backward", "tails"),
	}
	// Sync9 attaches items to the start or end of a parent's splittable
	// span, materializing splits as content-less sentinels.
	Sync9 = &Algorithm{
		Name:        "sync9",
		integrateFn: integrateSync9,
		insertFn:    localInsertSync9,
		annotate: func(it *Item) string {
			if it.InsertAfter {
				return " after"
			}
			return " start"
		},
	}
	// DoubleRGA1 sorts siblings with a comparator over the originLeft tree,
	// refined by a secondary order over the originRight tree.
	DoubleRGA1 = &Algorithm{
		Name:        "double-rga-1",
		integrateFn: integrateDoubleRGA1,
		annotate: func(it *Item) string {
			return fmt.Sprintf(" ld=%d rd=%d", it.leftDepth, it.rightDepth)
		},
	}
	// DoubleRGA2 folds both origins into a single parent-with-direction
	// tree and sorts over that.
	DoubleRGA2 = &Algorithm{
		Name:        "double-rga-2",
		integrateFn: integrateDoubleRGA2,
		annotate: func(it *Item) string {
			dir := "R"
			if it.parentLeft {
				dir = "L"
			}
			return fmt.Sprintf(" d=%d %s", it.depth, dir)
		},
	}
	// DoubleRGAEquiv is YjsMod with right origins that cross span
	// boundaries treated as null. It reproduces DoubleRGA2's behaviour in
	// the YjsMod placement style.
	DoubleRGAEquiv = &Algorithm{
		Name:        "double-rga-equiv",
		integrateFn: integrateDoubleRGAEquiv,
	}
)

// Algorithms returns all registered variants.
func Algorithms() []*Algorithm {
	return []*Algorithm{YjsActual, YjsMod, Automerge, Sync9, DoubleRGA1, DoubleRGA2, DoubleRGAEquiv}
}

// Skips reports whether the variant is excluded from the tagged scenario.
func (a *Algorithm) Skips(tag string) bool {
	return a.skip[tag]
}

func tags(ts ...string) map[string]bool {
	m := make(map[string]bool, len(ts))
	for _, t := range ts {
		m[t] = true
	}
	return m
}

// Integrate places a pre-formed item into the document. It fails with
// ErrOutOfOrder when the item's seq is not the next expected from its
// agent, and with ErrNotFound when an origin is missing; in both cases the
// document is unmodified. hint is the physical index the caller most
// recently touched, or -1.
func (a *Algorithm) Integrate(d *Doc, it *Item, hint int) error {
	return a.integrateFn(d, it, hint)
}

// LocalInsert inserts content at visible position pos on behalf of agent,
// synthesising the new item's origins from the insertion gap. It fails
// with ErrOutOfRange when pos exceeds the visible length.
func (a *Algorithm) LocalInsert(d *Doc, agent string, pos int, content any) error {
	if a.insertFn != nil {
		return a.insertFn(a, d, agent, pos, content)
	}
	return localInsert(a, d, agent, pos, content)
}

// Shared origin synthesis: the new item records the items flanking the
// insertion gap, tombstones included.
func localInsert(a *Algorithm, d *Doc, agent string, pos int, content any) error {
	i, err := d.findPos(pos, false)
	if err != nil {
		return err
	}
	it := &Item{
		ID:      Id{Agent: agent, Seq: d.Version.next(agent)},
		Content: content,
		Seq:     d.MaxSeq + 1,
	}
	if i > 0 {
		it.OriginLeft = d.Content[i-1].ID
	}
	if i < len(d.Content) {
		it.OriginRight = d.Content[i].ID
	}
	return a.integrateFn(d, it, i)
}

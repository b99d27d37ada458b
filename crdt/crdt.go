/*
Package crdt is a comparative reference library of list-CRDT integration
algorithms for collaboratively edited sequences.

Replicas independently produce insertion and deletion operations against a
shared ordered list. The library merges those operations deterministically,
so that every replica which has observed the same set of operations converges
to the same visible sequence, regardless of arrival order.

Each element of the list is an item carrying the identifiers of its left and
right neighbours at the moment it was created. An integration algorithm is
the rule that, given a new item and the local log, decides where the item
must be spliced so that all replicas agree.

  # BEGIN ASCII ART

            originLeft            originRight
                v                      v
  ... [ A@0 ] [ A@1 ]  --> x <--  [ B@0 ] [ B@2 ] ...
                         (A@1, B@0)

  # END ASCII ART
  # ALT TEXT: A new item x is created between items A@1 and B@0. It records
              both neighbours as its origins. Remote replicas replay the
              placement from the origins alone, even if other items have
              squeezed into the same gap concurrently.

Seven placement rules are provided as Algorithm records: YjsActual, YjsMod,
Automerge, Sync9, DoubleRGA1, DoubleRGA2, and DoubleRGAEquiv. They share the
document store and the version bookkeeping below, and all but Sync9 share the
local operation generation; they differ in how they resolve concurrent
insertions into the same gap.
*/
package crdt

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

var (
	uuidv1 = randomUUIDv1 // Stubbed for mocking in mocks_test.go
)

// +-----------------------+
// | Basic data structures |
// +-----------------------+

// Id is the unique identifier of an item.
//
// The zero Id stands for the list boundary: the null origin to the left of
// the first element and to the right of the last one.
type Id struct {
	// Agent is the opaque identifier of the replica that created the item.
	// Agents are totally ordered lexicographically.
	Agent string
	// Seq is the order of creation of this item at its agent, starting at 0.
	Seq int
}

// IsNil reports whether the id is the boundary sentinel.
func (id Id) IsNil() bool {
	return id.Agent == ""
}

func (id Id) String() string {
	if id.IsNil() {
		return "·"
	}
	return fmt.Sprintf("%s@%d", id.Agent, id.Seq)
}

// Compare returns the relative order between ids: by agent, then by seq.
func (id Id) Compare(other Id) int {
	if c := strings.Compare(id.Agent, other.Agent); c != 0 {
		return c
	}
	return id.Seq - other.Seq
}

// Item is one logical element of the list.
//
// Content and origin fields are immutable after creation; only Deleted may
// flip, once, from false to true. Items are never removed from a document:
// deletion is tombstoning, so that remote operations can keep referencing
// the item as an origin.
type Item struct {
	// ID is the identifier of this item, unique across all replicas.
	ID Id
	// Content is the payload. A nil content marks a structural sentinel
	// (the left endpoint of a span split by Sync9), not a deleted element.
	Content any
	// OriginLeft is the id of the item immediately to the left at the time
	// of creation, or the boundary id.
	OriginLeft Id
	// OriginRight is the id of the item immediately to the right at the
	// time of creation, or the boundary id.
	OriginRight Id
	// Deleted is the tombstone flag.
	Deleted bool
	// Seq is a per-document monotone counter, strictly greater than every
	// seq the creating replica had seen locally. Only Automerge orders by
	// it; the other algorithms carry it along.
	Seq int
	// InsertAfter attaches the item to the end of originLeft's splittable
	// span rather than its start. Only Sync9 consults it.
	InsertAfter bool

	// Cached links for the DoubleRGA comparators. Derivable from the
	// origins; filled by the owning document's integrate routine.
	leftParent  *Item
	leftDepth   int
	rightParent *Item
	rightDepth  int
	parent      *Item
	parentLeft  bool
	depth       int
}

func (it *Item) String() string {
	return fmt.Sprintf("Item(%v,%v,%v,%v)", it.ID, it.OriginLeft, it.OriginRight, it.Content)
}

// clone returns a transferable copy of the item: public fields only, with
// the tombstone cleared. The merge driver does not replicate deletions.
func (it *Item) clone() *Item {
	return &Item{
		ID:          it.ID,
		Content:     it.Content,
		OriginLeft:  it.OriginLeft,
		OriginRight: it.OriginRight,
		Seq:         it.Seq,
		InsertAfter: it.InsertAfter,
	}
}

// FindStats counts id lookups resolved by the one-slot hint cache against
// those that fell back to a linear scan.
type FindStats struct {
	Hits  int
	Scans int
}

// Doc is a replicated list document.
type Doc struct {
	// Content is the ordered sequence of items, tombstones included.
	Content []*Item
	// Version maps each agent to the highest seq observed from it.
	Version Version
	// MaxSeq is the largest Automerge seq observed.
	MaxSeq int
	// Length is the number of items with content present and not deleted.
	Length int
	// Stats records the hit rate of the findByID hint cache.
	Stats FindStats
}

// NewDoc creates an initialized empty document.
func NewDoc() *Doc {
	return &Doc{
		Content: nil,
		Version: make(Version),
		MaxSeq:  -1,
	}
}

// +--------+
// | Errors |
// +--------+

// Errors returned by document operations. All of them abort the current
// operation; there is no partial-state recovery. A failed Integrate,
// LocalInsert or LocalDelete leaves the document unmodified, while a failed
// MergeInto keeps the operations it integrated before the failure. Callers
// either validate inputs beforehand with CanInsertNow or treat a failure as
// a programming error.
var (
	ErrOutOfOrder = errors.New("operation seq is not contiguous for its agent")
	ErrNotFound   = errors.New("origin item not found in document")
	ErrOutOfRange = errors.New("position past the visible end of the document")
	ErrMergeStuck = errors.New("merge pass made no progress")
)

// +------------------+
// | Position finders |
// +------------------+

// findPos walks the content left to right and returns the physical index
// where the next insertion of the pos-th visible item would sit.
//
// With stickEnd the walk returns as soon as pos is exhausted, regardless of
// the state of the item at that slot, so that the index can resolve to a
// split position inside a run of content-less spans. Without it, the walk
// skips tombstones and sentinels and lands on the pos-th visible item
// itself.
func (d *Doc) findPos(pos int, stickEnd bool) (int, error) {
	for i, it := range d.Content {
		if stickEnd && pos == 0 {
			return i, nil
		}
		if it.Content == nil || it.Deleted {
			continue
		}
		if pos == 0 {
			return i, nil
		}
		pos--
	}
	if pos == 0 {
		return len(d.Content), nil
	}
	return 0, fmt.Errorf("%w: %d items past the end", ErrOutOfRange, pos)
}

// findByID returns the physical index of the item with the given id.
//
// hint is a speculative index tried before the O(n) scan; pass -1 to
// disable it. With atEnd the match must currently carry content, so that
// the lookup resolves to the content-bearing end of a split span instead of
// its empty prefix.
func (d *Doc) findByID(id Id, atEnd bool, hint int) (int, error) {
	if hint >= 0 && hint < len(d.Content) {
		if it := d.Content[hint]; it.ID == id && (!atEnd || it.Content != nil) {
			d.Stats.Hits++
			return hint, nil
		}
	}
	d.Stats.Scans++
	for i, it := range d.Content {
		if it.ID == id && (!atEnd || it.Content != nil) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrNotFound, id)
}

// leftIndex resolves an originLeft id, mapping the boundary to -1.
func (d *Doc) leftIndex(id Id, hint int) (int, error) {
	if id.IsNil() {
		return -1, nil
	}
	return d.findByID(id, false, hint)
}

// rightIndex resolves an originRight id, mapping the boundary to the length
// of the content.
func (d *Doc) rightIndex(id Id, hint int) (int, error) {
	if id.IsNil() {
		return len(d.Content), nil
	}
	return d.findByID(id, false, hint)
}

// +-----------------+
// | Store mutations |
// +-----------------+

// splice inserts an item at the given physical index.
func (d *Doc) splice(it *Item, i int) {
	d.Content = append(d.Content, nil)
	copy(d.Content[i+1:], d.Content[i:])
	d.Content[i] = it
}

// checkSeq verifies that the item is the next expected operation from its
// agent. Operations from one agent must arrive in seq order.
func (d *Doc) checkSeq(it *Item) error {
	if expected := d.Version.next(it.ID.Agent); it.ID.Seq != expected {
		return fmt.Errorf("%w: got %v, expected seq %d", ErrOutOfOrder, it.ID, expected)
	}
	return nil
}

// commit splices the item at its destination and updates the version, the
// seq high-water mark and the visible length.
func (d *Doc) commit(it *Item, dest int) {
	d.splice(it, dest)
	d.Version[it.ID.Agent] = it.ID.Seq
	if it.Seq > d.MaxSeq {
		d.MaxSeq = it.Seq
	}
	if it.Content != nil && !it.Deleted {
		d.Length++
	}
}

// +------------+
// | Readiness  |
// +------------+

// CanInsertNow reports whether all of the item's causal dependencies are
// already integrated: the item itself is new, its predecessor from the same
// agent is present, and both origins are present.
func (d *Doc) CanInsertNow(it *Item) bool {
	id := it.ID
	return !d.Version.Contains(id) &&
		(id.Seq == 0 || d.Version.Contains(Id{Agent: id.Agent, Seq: id.Seq - 1})) &&
		d.Version.Contains(it.OriginLeft) &&
		d.Version.Contains(it.OriginRight)
}

// +------------+
// | Conversion |
// +------------+

// GetArray returns the visible content, filtering out tombstones and
// content-less sentinels.
func (d *Doc) GetArray() []any {
	out := make([]any, 0, d.Length)
	for _, it := range d.Content {
		if it.Content != nil && !it.Deleted {
			out = append(out, it.Content)
		}
	}
	return out
}

// AsString interprets the visible content as a sequence of chars.
func (d *Doc) AsString() string {
	var sb strings.Builder
	for _, it := range d.Content {
		if it.Content == nil || it.Deleted {
			continue
		}
		switch c := it.Content.(type) {
		case rune:
			sb.WriteRune(c)
		case string:
			sb.WriteString(c)
		default:
			fmt.Fprint(&sb, c)
		}
	}
	return sb.String()
}

// +-----------------------+
// | Operations - Deletion |
// +-----------------------+

// LocalDelete tombstones the item at visible position pos. Deleting an
// already-tombstoned item is a no-op, so the flip is idempotent. Deletions
// are local: the merge driver does not replicate them.
func (d *Doc) LocalDelete(agent string, pos int) error {
	i, err := d.findPos(pos, false)
	if err != nil {
		return err
	}
	if i == len(d.Content) {
		return fmt.Errorf("%w: delete at %d", ErrOutOfRange, pos)
	}
	it := d.Content[i]
	if !it.Deleted {
		it.Deleted = true
		d.Length--
	}
	return nil
}

// +-----------+
// | Utilities |
// +-----------+

// NewAgentID mints a fresh replica identifier.
func NewAgentID() string {
	return uuidv1().String()
}

// Provides a random MAC address.
func randomMAC() []byte {
	mac := make([]byte, 6)
	if _, err := io.ReadFull(rand.Reader, mac); err != nil {
		panic(err.Error())
	}
	return mac
}

// Create UUIDv1, using local timestamp as lower bits and random MAC.
func randomUUIDv1() uuid.UUID {
	uuid.SetNodeID(randomMAC())
	id, err := uuid.NewUUID()
	if err != nil {
		panic(fmt.Sprintf("creating UUIDv1: %v", err))
	}
	return id
}

package crdt_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crdtlab/list-crdts/crdt"
)

// itemKey is the transferable identity of a stored item, used to compare
// document structure across replicas. Tombstone flags are excluded: the
// merge driver does not replicate them.
type itemKey struct {
	ID         crdt.Id
	HasContent bool
}

func structure(d *crdt.Doc) []itemKey {
	keys := make([]itemKey, len(d.Content))
	for i, it := range d.Content {
		keys[i] = itemKey{ID: it.ID, HasContent: it.Content != nil}
	}
	return keys
}

// buildRandomDoc types on a few replicas and funnels everything into one
// document. No deletions.
func buildRandomDoc(t *testing.T, alg *crdt.Algorithm, r *rand.Rand) *crdt.Doc {
	t.Helper()
	agents := []string{"ann", "ben", "cho"}
	docs := make([]*crdt.Doc, len(agents))
	for i := range docs {
		docs[i] = crdt.NewDoc()
	}
	for step := 0; step < 60; step++ {
		i := r.Intn(len(docs))
		d := docs[i]
		if r.Float64() < 0.3 && len(docs) > 1 {
			j := r.Intn(len(docs))
			if j != i {
				require.NoError(t, alg.MergeInto(d, docs[j]))
			}
			continue
		}
		pos := r.Intn(d.Length + 1)
		require.NoError(t, alg.LocalInsert(d, agents[i], pos, string(rune('a'+i))))
	}
	all := crdt.NewDoc()
	for _, d := range docs {
		require.NoError(t, alg.MergeInto(all, d))
	}
	return all
}

// Importing a document into an empty one must reproduce its visible array.
func TestMergeRoundTrip(t *testing.T) {
	for _, alg := range crdt.Algorithms() {
		t.Run(alg.Name, func(t *testing.T) {
			src := buildRandomDoc(t, alg, rand.New(rand.NewSource(1740)))
			dest := crdt.NewDoc()
			require.NoError(t, alg.MergeInto(dest, src))
			assert.Empty(t, cmp.Diff(src.GetArray(), dest.GetArray()))
			assert.Equal(t, structure(src), structure(dest))
			checkInvariants(t, dest)
		})
	}
}

// Merging the same source twice must not change the destination.
func TestMergeIdempotence(t *testing.T) {
	for _, alg := range crdt.Algorithms() {
		t.Run(alg.Name, func(t *testing.T) {
			src := buildRandomDoc(t, alg, rand.New(rand.NewSource(5461)))
			dest := crdt.NewDoc()
			require.NoError(t, alg.MergeInto(dest, src))

			version := dest.Version.Clone()
			keys := structure(dest)
			require.NoError(t, alg.MergeInto(dest, src))
			assert.Empty(t, cmp.Diff(version, dest.Version))
			assert.Equal(t, keys, structure(dest))
		})
	}
}

// A source whose operations reference dependencies it does not contain is
// reported, not spun on.
func TestMergeStuck(t *testing.T) {
	src := crdt.NewDoc()
	src.Content = []*crdt.Item{{
		ID:         crdt.Id{Agent: "A", Seq: 1},
		Content:    "b",
		OriginLeft: crdt.Id{Agent: "A", Seq: 0},
	}}
	src.Version = crdt.Version{"A": 1}
	src.Length = 1

	dest := crdt.NewDoc()
	err := crdt.YjsMod.MergeInto(dest, src)
	assert.ErrorIs(t, err, crdt.ErrMergeStuck)
	assert.Empty(t, dest.Content)
}

func TestCanInsertNow(t *testing.T) {
	d := crdt.NewDoc()
	require.NoError(t, crdt.YjsMod.LocalInsert(d, "A", 0, "a"))

	tests := []struct {
		name string
		it   *crdt.Item
		want bool
	}{
		{"already integrated", &crdt.Item{ID: crdt.Id{Agent: "A", Seq: 0}}, false},
		{"next in sequence", &crdt.Item{ID: crdt.Id{Agent: "A", Seq: 1}}, true},
		{"gap in sequence", &crdt.Item{ID: crdt.Id{Agent: "A", Seq: 2}}, false},
		{"new agent", &crdt.Item{ID: crdt.Id{Agent: "B", Seq: 0}}, true},
		{
			"satisfied origin",
			&crdt.Item{ID: crdt.Id{Agent: "B", Seq: 0}, OriginLeft: crdt.Id{Agent: "A", Seq: 0}},
			true,
		},
		{
			"missing origin",
			&crdt.Item{ID: crdt.Id{Agent: "B", Seq: 0}, OriginRight: crdt.Id{Agent: "C", Seq: 0}},
			false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, d.CanInsertNow(test.it))
		})
	}
}

func TestMissingOrigin(t *testing.T) {
	for _, alg := range crdt.Algorithms() {
		t.Run(alg.Name, func(t *testing.T) {
			d := crdt.NewDoc()
			err := alg.Integrate(d, &crdt.Item{
				ID:         crdt.Id{Agent: "A", Seq: 0},
				Content:    "a",
				OriginLeft: crdt.Id{Agent: "Z", Seq: 5},
			}, -1)
			assert.ErrorIs(t, err, crdt.ErrNotFound)
			assert.Empty(t, d.Content, "document must be unmodified")
		})
	}
}

func TestOutOfRange(t *testing.T) {
	d := crdt.NewDoc()
	require.NoError(t, crdt.YjsMod.LocalInsert(d, "A", 0, "a"))

	assert.ErrorIs(t, crdt.YjsMod.LocalInsert(d, "A", 2, "b"), crdt.ErrOutOfRange)
	assert.ErrorIs(t, d.LocalDelete("A", 1), crdt.ErrOutOfRange)
	assert.Equal(t, "a", d.AsString())
}

func TestLocalDelete(t *testing.T) {
	d := crdt.NewDoc()
	require.NoError(t, crdt.YjsMod.LocalInsert(d, "A", 0, "a"))
	require.NoError(t, crdt.YjsMod.LocalInsert(d, "A", 1, "b"))

	require.NoError(t, d.LocalDelete("A", 0))
	assert.Equal(t, "b", d.AsString())
	assert.Equal(t, 1, d.Length)
	assert.Len(t, d.Content, 2, "deletion tombstones, never removes")

	// Visible positions skip tombstones, so a second delete at position 0
	// reaches the next visible item and the length drops by one again.
	require.NoError(t, d.LocalDelete("A", 0))
	assert.Equal(t, "", d.AsString())
	assert.Equal(t, 0, d.Length)
	checkInvariants(t, d)
}

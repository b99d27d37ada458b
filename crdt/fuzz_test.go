package crdt_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crdtlab/list-crdts/crdt"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(1740))
}

// Randomized multi-replica driver: three replicas edit independently and
// exchange operations at random. After every exchange the pair must agree
// on the stored structure, and at the end all histories merged in opposite
// orders must produce the same document.
func TestFuzzReplicas(t *testing.T) {
	for _, alg := range crdt.Algorithms() {
		t.Run(alg.Name, func(t *testing.T) {
			r := newRand()
			agents := []string{"a", "b", "c"}
			docs := make([]*crdt.Doc, len(agents))
			for i := range docs {
				docs[i] = crdt.NewDoc()
			}

			for step := 0; step < 1000; step++ {
				i := r.Intn(len(docs))
				d := docs[i]
				p := r.Float64()
				switch {
				case p < 0.6:
					pos := r.Intn(d.Length + 1)
					content := fmt.Sprintf("%s%d", agents[i], step)
					require.NoError(t, alg.LocalInsert(d, agents[i], pos, content))
				case p < 0.75:
					if d.Length == 0 {
						continue
					}
					require.NoError(t, d.LocalDelete(agents[i], r.Intn(d.Length)))
				default:
					j := r.Intn(len(docs))
					if j == i {
						continue
					}
					require.NoError(t, alg.MergeInto(docs[i], docs[j]))
					require.NoError(t, alg.MergeInto(docs[j], docs[i]))
					require.Equal(t, structure(docs[i]), structure(docs[j]),
						"replicas %d and %d diverged at step %d", i, j, step)
				}
				if step%100 == 0 {
					checkInvariants(t, d)
				}
			}

			forward := crdt.NewDoc()
			backward := crdt.NewDoc()
			for i := range docs {
				require.NoError(t, alg.MergeInto(forward, docs[i]))
				require.NoError(t, alg.MergeInto(backward, docs[len(docs)-1-i]))
			}
			require.Equal(t, structure(forward), structure(backward))
			require.Equal(t, forward.GetArray(), backward.GetArray())
			checkInvariants(t, forward)
			checkInvariants(t, backward)
		})
	}
}

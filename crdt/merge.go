package crdt

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// +-------+
// | Merge |
// +-------+

// MergeInto imports into dest every operation present in src and missing
// from dest. Operations are integrated as their causal dependencies become
// satisfied, over as many passes as needed. A pass that integrates nothing
// while operations remain fails with ErrMergeStuck: the source references
// dependencies it does not itself contain.
//
// Tombstone flips are not replicated; transferred items arrive undeleted.
// Merging the same source twice is a no-op.
func (a *Algorithm) MergeInto(dest, src *Doc) error {
	pending := mapset.NewThreadUnsafeSet[*Item]()
	for _, it := range src.Content {
		// Content-less sentinels are structural to src; dest re-derives
		// its own when it replays the splits.
		if it.Content == nil || dest.Version.Contains(it.ID) {
			continue
		}
		pending.Add(it)
	}

	for pending.Cardinality() > 0 {
		progress := false
		for _, it := range pending.ToSlice() {
			if !dest.CanInsertNow(it) {
				continue
			}
			if err := a.Integrate(dest, it.clone(), -1); err != nil {
				return fmt.Errorf("merging %v: %w", it.ID, err)
			}
			pending.Remove(it)
			progress = true
		}
		if !progress {
			return fmt.Errorf("%w: %d operations unresolved", ErrMergeStuck, pending.Cardinality())
		}
	}
	return nil
}

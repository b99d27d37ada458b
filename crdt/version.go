package crdt

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// +----------+
// | Versions |
// +----------+

// Version maps each agent to the highest seq observed from it.
type Version map[string]int

// Contains reports whether the identifier is in the version. The boundary
// id is in every version.
func (v Version) Contains(id Id) bool {
	if id.IsNil() {
		return true
	}
	last, ok := v[id.Agent]
	return ok && last >= id.Seq
}

// next returns the seq expected from the agent's next operation.
func (v Version) next(agent string) int {
	last, ok := v[agent]
	if !ok {
		return 0
	}
	return last + 1
}

// Clone returns an independent copy of the version.
func (v Version) Clone() Version {
	return maps.Clone(v)
}

// Agents returns the known agents in lexicographic order.
func (v Version) Agents() []string {
	agents := maps.Keys(v)
	slices.Sort(agents)
	return agents
}

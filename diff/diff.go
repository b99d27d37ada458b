// Package diff computes minimal edit scripts between strings and replays
// them onto replicated list documents, so that plain text rewrites can
// drive a CRDT replica position by position.
package diff

import (
	"fmt"
	"unicode/utf8"

	"github.com/crdtlab/list-crdts/crdt"
)

type OpType int

const (
	Keep OpType = iota
	Insert
	Delete
)

type Operation struct {
	Op   OpType
	Char rune
}

// Diff returns the sequence of keeps, insertions and deletions that
// transforms s1 into s2 with a minimal number of edits, preferring an
// insertion over a deletion on a tie.
func Diff(s1, s2 string) ([]Operation, error) {
	if !utf8.ValidString(s1) {
		return nil, fmt.Errorf("s1 is not a valid utf8 string")
	}
	if !utf8.ValidString(s2) {
		return nil, fmt.Errorf("s2 is not a valid utf8 string")
	}
	r1, r2 := []rune(s1), []rune(s2)
	m, n := len(r1), len(r2)

	// dist[i][j] is the edit distance between r1[i:] and r2[j:].
	dist := make([][]int, m+1)
	for i := range dist {
		dist[i] = make([]int, n+1)
	}
	for j := 0; j <= n; j++ {
		dist[m][j] = n - j
	}
	for i := m - 1; i >= 0; i-- {
		dist[i][n] = m - i
		for j := n - 1; j >= 0; j-- {
			if r1[i] == r2[j] {
				dist[i][j] = dist[i+1][j+1]
			} else if ins := dist[i][j+1]; ins <= dist[i+1][j] {
				dist[i][j] = 1 + ins
			} else {
				dist[i][j] = 1 + dist[i+1][j]
			}
		}
	}

	ops := make([]Operation, 0, dist[0][0])
	var i, j int
	for i < m || j < n {
		switch {
		case i < m && j < n && r1[i] == r2[j]:
			ops = append(ops, Operation{Op: Keep, Char: r1[i]})
			i++
			j++
		case i == m || (j < n && dist[i][j+1] <= dist[i+1][j]):
			ops = append(ops, Operation{Op: Insert, Char: r2[j]})
			j++
		default:
			ops = append(ops, Operation{Op: Delete, Char: r1[i]})
			i++
		}
	}
	return ops, nil
}

// Distance returns the number of inserts and deletes to transform s1 into
// s2.
func Distance(s1, s2 string) (int, error) {
	ops, err := Diff(s1, s2)
	if err != nil {
		return 0, err
	}
	var d int
	for _, op := range ops {
		if op.Op != Keep {
			d++
		}
	}
	return d, nil
}

// Apply rewrites the document's visible content into target by replaying
// the edit script as local operations under the given agent.
func Apply(alg *crdt.Algorithm, d *crdt.Doc, agent, target string) error {
	ops, err := Diff(d.AsString(), target)
	if err != nil {
		return err
	}
	pos := 0
	for _, op := range ops {
		switch op.Op {
		case Keep:
			pos++
		case Insert:
			if err := alg.LocalInsert(d, agent, pos, op.Char); err != nil {
				return err
			}
			pos++
		case Delete:
			if err := d.LocalDelete(agent, pos); err != nil {
				return err
			}
		}
	}
	return nil
}

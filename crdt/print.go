package crdt

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sanity-io/litter"
)

// +----------+
// | Printing |
// +----------+

var litterOpts = litter.Options{Compact: true}

// PrintDoc writes a diagnostic dump of the document: the version vector,
// the bookkeeping counters, and one row per item with the variant-specific
// fields of this algorithm. The format is for eyeballs, not for parsing.
func (a *Algorithm) PrintDoc(w io.Writer, d *Doc) {
	fmt.Fprintf(w, "%s: %d items, %d visible, maxSeq=%d\n", a.Name, len(d.Content), d.Length, d.MaxSeq)
	for _, agent := range d.Version.Agents() {
		fmt.Fprintf(w, "  seen %s through %d\n", agent, d.Version[agent])
	}
	tw := tabwriter.NewWriter(w, 2, 4, 1, ' ', 0)
	for i, it := range d.Content {
		content := "∅"
		if it.Content != nil {
			content = litterOpts.Sdump(it.Content)
		}
		flags := ""
		if it.Deleted {
			flags = " deleted"
		}
		extra := ""
		if a.annotate != nil {
			extra = a.annotate(it)
		}
		fmt.Fprintf(tw, "%4d\t%v\t(%v, %v)\t%s%s%s\n",
			i, it.ID, it.OriginLeft, it.OriginRight, content, flags, extra)
	}
	tw.Flush()
}

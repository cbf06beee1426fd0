// Package diagnostics provides an optional Graphviz dump of a level-2
// batch for debugging, grounded on GraphvizDBGArr in constructdbg.go.
// It is purely a developer aid: nothing in the core pipeline depends on
// it, and it is only reachable from the -dot CLI flag (cmd/sdbgcx1).
package diagnostics

import (
	"os"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"sdbgcx1/alphabet"
	"sdbgcx1/cx1"
	"sdbgcx1/sdbgerr"
)

// DumpLv2Batch writes a Graphviz digraph of buf (in the order given by
// perm) to fn: one node per distinct k-base item label (the (k-1)-suffix
// followed by the 'a' slot), one edge per item
// labelled with its predecessor/successor characters and inverted
// multiplicity. Intended for small batches only; this is a debugging
// aid, not a production visualisation.
func DumpLv2Batch(buf *cx1.Lv2Buffer, perm []int32, fn string) error {
	g := gographviz.NewGraph()
	g.SetName("G")
	g.SetDir(true)
	g.SetStrict(false)

	seen := make(map[string]bool)
	addNode := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		_ = g.AddNode("G", strconv.Quote(name), map[string]string{"shape": "record"})
	}
	for _, idx := range perm {
		addNode(itemLabel(buf, int(idx)))
	}

	for _, idx := range perm {
		item := int(idx)
		aIsReal, bIsReal := buf.Flags(item)
		from := "$"
		if bIsReal {
			from = string(alphabet.BaseToChar[buf.BwtChar(item)])
		}
		addNode(from)
		to := itemLabel(buf, item)
		attr := map[string]string{
			"label": strconv.Quote("a_real=" + strconv.FormatBool(aIsReal) + " mul=" + strconv.Itoa(int(buf.InvertedMulti(item)))),
		}
		_ = g.AddEdge(strconv.Quote(from), strconv.Quote(to), true, attr)
	}

	fp, err := os.Create(fn)
	if err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "diagnostics.DumpLv2Batch", "create "+fn, err)
	}
	defer fp.Close()
	if _, err := fp.WriteString(g.String()); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "diagnostics.DumpLv2Batch", "write "+fn, err)
	}
	return nil
}

func itemLabel(buf *cx1.Lv2Buffer, item int) string {
	bases := make([]byte, buf.K)
	for i := 0; i < buf.K; i++ {
		bases[i] = alphabet.BaseToChar[buf.Base(item, i)]
	}
	return string(bases)
}

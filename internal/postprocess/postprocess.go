// Package postprocess derives numbers, title links and the cross-reference
// index of a finished tree.
package postprocess

import (
	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/taxonomy"
)

// Run applies numbering and title binding to the tree below root and
// returns its cross-reference index.
func Run(t *doctree.Tree, root doctree.NodeID) map[string]*doctree.Node {
	Number(t, root)
	BindTitles(t, root)
	return Index(t, root)
}

// resets lists the counters zeroed when a counter advances. A chapter
// resets every other counter.
var resets = map[string][]string{
	"section": {"subsection"},
	"figure":  {"subfigure"},
	"table":   {"subtable"},
}

// Number assigns a number to every counter-tracked node in document order.
func Number(t *doctree.Tree, root doctree.NodeID) {
	counters := make(map[string]int)
	for _, c := range taxonomy.Counters() {
		counters[c] = 0
	}
	number(t, root, counters)
}

func number(t *doctree.Tree, id doctree.NodeID, counters map[string]int) {
	n := t.Node(id)
	if key := taxonomy.CounterKey(n.Species); key != "" {
		counters[key]++
		n.Number = counters[key]
		if key == "chapter" {
			for c := range counters {
				if c != "chapter" {
					counters[c] = 0
				}
			}
		}
		for _, c := range resets[key] {
			counters[c] = 0
		}
	}
	for _, c := range n.Children {
		number(t, c, counters)
	}
}

// BindTitles links every node to its first direct title child.
func BindTitles(t *doctree.Tree, root doctree.NodeID) {
	t.Walk(root, func(n *doctree.Node) bool {
		n.Title = t.FirstChild(n.ID, taxonomy.Title)
		return true
	})
}

// Index maps each label to the node carrying it. A repeated label refers to
// the last node that declares it.
func Index(t *doctree.Tree, root doctree.NodeID) map[string]*doctree.Node {
	xrefs := make(map[string]*doctree.Node)
	t.Walk(root, func(n *doctree.Node) bool {
		if n.Label != "" {
			xrefs[n.Label] = n
		}
		return true
	})
	return xrefs
}

// Package serialize writes a document tree back out as LaTeX source.
//
// The output is driven by the taxonomy and is best effort: nodes of
// unregistered species are skipped (their children are still written), and
// switch scopes may come back split differently from the source.
package serialize

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/taxonomy"
)

// Latex reconstructs the source of the subtree at id.
func Latex(t *doctree.Tree, id doctree.NodeID) string {
	w := &writer{tree: t}
	w.node(id)
	return w.b.String()
}

type writer struct {
	tree *doctree.Tree
	b    strings.Builder
}

func (w *writer) str(s ...string) {
	for _, x := range s {
		w.b.WriteString(x)
	}
}

func (w *writer) children(n *doctree.Node) {
	for _, c := range n.Children {
		w.node(c)
	}
}

// rest writes the children that are not consumed by the node's own markup.
func (w *writer) rest(n *doctree.Node, skip ...string) {
	for _, c := range n.Children {
		cn := w.tree.Node(c)
		if cn.Species == taxonomy.Title || contains(skip, cn.Species) {
			continue
		}
		w.node(c)
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// capture renders the subtree at id on its own.
func (w *writer) capture(id doctree.NodeID) string {
	return Latex(w.tree, id)
}

// inner renders the children of id except titles.
func (w *writer) inner(n *doctree.Node) string {
	sub := &writer{tree: w.tree}
	sub.rest(n)
	return sub.b.String()
}

func (w *writer) title(n *doctree.Node) (string, bool) {
	id := n.Title
	if id == doctree.None {
		id = w.tree.FirstChild(n.ID, taxonomy.Title)
	}
	if id == doctree.None {
		return "", false
	}
	sub := &writer{tree: w.tree}
	sub.children(w.tree.Node(id))
	return sub.b.String(), true
}

func (w *writer) label(n *doctree.Node) {
	if n.Label != "" {
		w.str(`\label{`, n.Label, "}")
	}
}

// name is the control sequence of a macro node.
func name(n *doctree.Node) string {
	s := taxonomy.UnstarredName(n.Species)
	if n.Attr("star") != "" {
		s += "*"
	}
	return s
}

func (w *writer) opt(n *doctree.Node) {
	if o, ok := n.Attrs["options"]; ok {
		w.str("[", o, "]")
	}
}

func (w *writer) node(id doctree.NodeID) {
	n := w.tree.Node(id)
	if !taxonomy.IsRegistered(n.Species) {
		w.children(n)
		return
	}
	genus := n.Genus()
	switch {
	case n.Species == taxonomy.Root, n.Species == taxonomy.Row, n.Species == taxonomy.Cell,
		n.Species == taxonomy.BibEntry, n.Species == taxonomy.BibField, genus == "document":
		w.children(n)
	case n.Species == taxonomy.Text, n.Species == taxonomy.Break, n.Species == taxonomy.Math,
		n.Species == taxonomy.Points:
		w.str(n.Content)
	case n.Species == taxonomy.Comment:
		w.str("%", n.Content, "\n")
	case n.Species == taxonomy.Title:
		w.str(`\title{`)
		w.children(n)
		w.str("}")
	case genus == "dispmath":
		w.str(n.Content)
	case genus == "pre":
		if n.Category == taxonomy.Environment {
			w.str(`\begin{`, n.Species, "}")
			w.opt(n)
			w.str(n.Content, `\end{`, n.Species, "}")
		} else {
			w.str(n.Content)
		}
	case genus == "markdown":
		w.str(`\begin{markdown}`, n.Content, `\end{markdown}`)
	case genus == "tabular":
		w.tabular(n)
	case n.Species == "bibliography":
		w.str(`\bibliography{`, n.Attr("source"), "}")
	case genus == "item":
		w.item(n)
	case genus == "level", genus == "heading":
		w.str(`\`, name(n))
		w.opt(n)
		if t, ok := w.title(n); ok {
			w.str("{", t, "}")
		}
		w.label(n)
		w.rest(n)
	case n.Species == "subfigure":
		w.str(`\subfigure`)
		if t, ok := w.title(n); ok {
			w.str("[", t, "]")
		}
		w.str("{", w.inner(n), "}")
		w.label(n)
	case genus == "break", genus == "space", genus == "escaped":
		w.str(`\`, name(n))
		w.opt(n)
		w.str(n.Attr("args"))
	case genus == "accent":
		w.str(`\`, n.Species, "{", n.Attr("base"), "}")
	case genus == "media":
		w.str(`\`, name(n))
		w.opt(n)
		w.str("{", n.Content, "}")
	case n.Species == "hyperref":
		w.str(`\hyperref[`, n.Content, "]{", w.inner(n), "}")
	case genus == "xref", genus == "href":
		w.str(`\`, name(n))
		w.opt(n)
		w.str("{", n.Content, "}")
		if len(n.Children) > 0 {
			w.str("{", w.inner(n), "}")
		}
	case n.Category == taxonomy.Switch:
		body := w.inner(n)
		w.str(`{\`, n.Species)
		if r := firstRune(body); unicode.IsLetter(r) {
			w.str(" ")
		}
		w.str(body, "}")
	case n.Category == taxonomy.Environment:
		w.environment(n)
	default:
		w.macro(n)
	}
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func (w *writer) item(n *doctree.Node) {
	w.str(`\`, name(n))
	if p := w.tree.FirstChild(n.ID, taxonomy.Points); p != doctree.None {
		w.str("[", w.tree.Node(p).Content, "]")
	} else if m, ok := n.Attrs["marker"]; ok {
		w.str("[", m, "]")
	}
	w.label(n)
	w.rest(n, taxonomy.Points)
}

func (w *writer) macro(n *doctree.Node) {
	w.str(`\`, name(n))
	w.opt(n)
	if len(n.Children) > 0 {
		w.str("{")
		w.children(n)
		w.str("}")
	}
	w.label(n)
}

func (w *writer) environment(n *doctree.Node) {
	w.str(`\begin{`, n.Species, "}")
	if t, ok := w.title(n); ok {
		w.str("[", t, "]")
	} else {
		w.opt(n)
	}
	w.str(n.Attr("args"))
	w.label(n)
	w.rest(n)
	w.str(`\end{`, n.Species, "}")
}

func (w *writer) tabular(n *doctree.Node) {
	w.str(`\begin{`, n.Species, "}")
	w.opt(n)
	if spec, ok := n.Attrs["spec"]; ok {
		w.str("{", spec, "}")
	}
	w.str("\n")
	bottom := 0
	for _, r := range n.Children {
		row := w.tree.Node(r)
		w.str(strings.Repeat(`\hline `, atoi(row.Attr("top"))))
		for i, c := range row.Children {
			if i > 0 {
				w.str(" & ")
			}
			w.str(w.capture(c))
		}
		w.str(` \\`, "\n")
		bottom = atoi(row.Attr("bottom"))
	}
	if bottom > 0 {
		w.str(strings.TrimSpace(strings.Repeat(`\hline `, bottom)), "\n")
	}
	w.str(`\end{`, n.Species, "}")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

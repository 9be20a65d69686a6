// Package doctree holds the structural document tree as an arena of nodes.
//
// Nodes are addressed by NodeID; a node's parent is stored as an index and
// its children as an ordered index list. IDs are allocated by the Tree in
// creation order, so two builds of the same input produce identical trees.
package doctree

import (
	"strings"

	"github.com/dgallion1/texgest/internal/taxonomy"
)

// NodeID addresses a node within its Tree.
type NodeID int

// None is the zero reference for optional node links.
const None NodeID = -1

// Node is one element of the document tree.
type Node struct {
	ID       NodeID
	Species  string            // registered or synthesized name, e.g. "chapter"
	Category taxonomy.Category // capability tag
	Parent   NodeID            // None for the root or detached nodes
	Children []NodeID          // document order

	Label   string // set by \label
	Number  int    // set by numbering; 0 when unnumbered
	Title   NodeID // set by title binding; None when absent
	Content string // raw payload of leaf nodes
	Width   int    // percentage width of media nodes

	Attrs map[string]string
}

// Attr returns the attribute value for key, or "".
func (n *Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// Genus returns the registered genus of the node's species.
func (n *Node) Genus() string {
	return taxonomy.GenusOf(n.Species)
}

// Tree owns every node created for one document.
type Tree struct {
	nodes []*Node
	Root  NodeID
}

// New returns an empty tree with no root.
func New() *Tree {
	return &Tree{Root: None}
}

// Create allocates a node for species. Registered species carry their
// registered category; anything else is tagged with fallback.
func (t *Tree) Create(species string, fallback taxonomy.Category) NodeID {
	cat := taxonomy.FamilyOf(species)
	if cat == taxonomy.Unregistered {
		cat = fallback
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &Node{
		ID:       id,
		Species:  species,
		Category: cat,
		Parent:   None,
		Title:    None,
	})
	return id
}

// CreateContent allocates a content leaf carrying text.
func (t *Tree) CreateContent(species, content string) NodeID {
	id := t.Create(species, taxonomy.Content)
	t.nodes[id].Content = content
	return id
}

// Node returns the node for id. It panics on an id from another tree.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes[id]
}

// Len is the number of allocated nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Append attaches child as the last child of parent.
func (t *Tree) Append(parent, child NodeID) {
	c := t.nodes[child]
	if c.Parent != None {
		panic("doctree: node already attached")
	}
	c.Parent = parent
	p := t.nodes[parent]
	p.Children = append(p.Children, child)
}

// SetAttr records a string attribute on a node.
func (t *Tree) SetAttr(id NodeID, key, value string) {
	n := t.nodes[id]
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// Walk visits id and its descendants depth first in document order. When fn
// returns false the node's children are skipped.
func (t *Tree) Walk(id NodeID, fn func(*Node) bool) {
	n := t.nodes[id]
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		t.Walk(c, fn)
	}
}

// Phenotypes returns every node of the given species below (and including)
// id, in document order.
func (t *Tree) Phenotypes(id NodeID, species string) []*Node {
	var out []*Node
	t.Walk(id, func(n *Node) bool {
		if n.Species == species {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FirstChild returns the first direct child of id with the given species.
func (t *Tree) FirstChild(id NodeID, species string) NodeID {
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Species == species {
			return c
		}
	}
	return None
}

// PlainText concatenates the content of every leaf below id.
func (t *Tree) PlainText(id NodeID) string {
	var b strings.Builder
	t.Walk(id, func(n *Node) bool {
		if g := n.Attr("glyph"); g != "" {
			b.WriteString(g)
			return false
		}
		b.WriteString(n.Content)
		return true
	})
	return strings.TrimSpace(b.String())
}

// TitleText is the plain text of the node's bound title, or "".
func (t *Tree) TitleText(id NodeID) string {
	n := t.nodes[id]
	if n.Title == None {
		return ""
	}
	return t.PlainText(n.Title)
}

// Package markdown converts the body of a markdown environment into tree
// nodes using goldmark.
package markdown

import (
	"bytes"
	"strings"

	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/taxonomy"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// headings maps a markdown heading level to an unnumbered heading species.
var headings = []string{"sectionstar", "subsectionstar", "subsubsectionstar"}

// Convert parses src and appends the resulting nodes to parent.
//
// Headings become starred headings with titles, paragraphs become text
// separated by breaks, code blocks become verbatim nodes and lists become
// itemize or enumerate lists.
func Convert(t *doctree.Tree, parent doctree.NodeID, src string) {
	b := []byte(src)
	doc := goldmark.New().Parser().Parse(text.NewReader(b))
	c := &converter{tree: t, src: b}
	c.blocks(parent, doc)
}

type converter struct {
	tree *doctree.Tree
	src  []byte
}

func (c *converter) blocks(parent doctree.NodeID, n ast.Node) {
	first := true
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if !first {
			c.tree.Append(parent, c.tree.CreateContent(taxonomy.Break, "\n\n"))
		}
		first = false
		c.block(parent, child)
	}
}

func (c *converter) block(parent doctree.NodeID, n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		level := min(node.Level, len(headings)) - 1
		h := c.tree.Create(headings[level], taxonomy.Macro)
		title := c.tree.Create(taxonomy.Title, taxonomy.Content)
		c.tree.Append(title, c.tree.CreateContent(taxonomy.Text, extractText(n, c.src)))
		c.tree.Append(h, title)
		c.tree.Append(parent, h)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		v := c.tree.Create("verbatim", taxonomy.Environment)
		c.tree.Node(v).Content = "\n" + lines(n, c.src)
		if fc, ok := node.(*ast.FencedCodeBlock); ok && fc.Info != nil {
			c.tree.SetAttr(v, "language", string(fc.Language(c.src)))
		}
		c.tree.Append(parent, v)
	case *ast.List:
		species := "itemize"
		if node.IsOrdered() {
			species = "enumerate"
		}
		l := c.tree.Create(species, taxonomy.Environment)
		for li := node.FirstChild(); li != nil; li = li.NextSibling() {
			item := c.tree.Create("item", taxonomy.Macro)
			c.tree.Append(item, c.tree.CreateContent(taxonomy.Text, " "+extractText(li, c.src)+"\n"))
			c.tree.Append(l, item)
		}
		c.tree.Append(parent, l)
	case *ast.Blockquote:
		q := c.tree.Create("quote", taxonomy.Environment)
		c.blocks(q, n)
		c.tree.Append(parent, q)
	case *ast.ThematicBreak:
		c.tree.Append(parent, c.tree.Create("bigskip", taxonomy.Macro))
	default:
		if t := extractText(n, c.src); t != "" {
			c.tree.Append(parent, c.tree.CreateContent(taxonomy.Text, t))
		}
	}
}

func lines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	l := n.Lines()
	for i := 0; i < l.Len(); i++ {
		seg := l.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		buf.WriteString(lines(n, src))
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			if buf.Len() > 0 && c.Type() == ast.TypeBlock {
				buf.WriteByte(' ')
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}

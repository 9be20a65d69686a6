// Package markup dumps a document tree as an element tree, one element per
// node, for inspecting how a source was structured.
package markup

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/taxonomy"
)

// Render writes the subtree at id to w.
func Render(w io.Writer, t *doctree.Tree, id doctree.NodeID) error {
	return html.Render(w, Element(t, id))
}

// String renders the subtree at id and returns it.
func String(t *doctree.Tree, id doctree.NodeID) (string, error) {
	var b strings.Builder
	if err := Render(&b, t, id); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Element converts the subtree at id into an html node tree. Text, break
// and comment leaves become character data; every other node becomes an
// element named after its species.
func Element(t *doctree.Tree, id doctree.NodeID) *html.Node {
	n := t.Node(id)
	switch n.Species {
	case taxonomy.Text, taxonomy.Break:
		return &html.Node{Type: html.TextNode, Data: n.Content}
	case taxonomy.Comment:
		return &html.Node{Type: html.CommentNode, Data: n.Content}
	}

	e := &html.Node{Type: html.ElementNode}
	e.Data, e.Attr = tagName(n.Species)
	if n.Number > 0 {
		e.Attr = append(e.Attr, html.Attribute{Key: "number", Val: strconv.Itoa(n.Number)})
	}
	if n.Label != "" {
		e.Attr = append(e.Attr, html.Attribute{Key: "label", Val: n.Label})
	}
	if title := t.TitleText(id); title != "" {
		e.Attr = append(e.Attr, html.Attribute{Key: "title", Val: doctree.Slug(title)})
	}
	if n.Width > 0 {
		e.Attr = append(e.Attr, html.Attribute{Key: "width", Val: strconv.Itoa(n.Width)})
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.Attr = append(e.Attr, html.Attribute{Key: k, Val: n.Attrs[k]})
	}

	if n.Content != "" && len(n.Children) == 0 {
		e.AppendChild(&html.Node{Type: html.TextNode, Data: n.Content})
	}
	for _, c := range n.Children {
		e.AppendChild(Element(t, c))
	}
	return e
}

// tagName maps a species to an element name. Symbol species such as \\ or
// \, have no valid name and become <symbol name="...">.
func tagName(species string) (string, []html.Attribute) {
	name := strings.ReplaceAll(strings.TrimPrefix(species, "#"), "*", "star")
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "symbol", []html.Attribute{{Key: "name", Val: species}}
		}
	}
	if name == "" {
		return "symbol", []html.Attribute{{Key: "name", Val: species}}
	}
	return name, nil
}

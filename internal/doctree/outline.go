package doctree

import (
	"fmt"
	"strings"
	"unicode"
)

// Outline is a nested, serialization friendly view of a subtree.
type Outline struct {
	ID       int               `json:"id" yaml:"id"`
	Species  string            `json:"species" yaml:"species"`
	Category string            `json:"category" yaml:"category"`
	Genus    string            `json:"genus,omitempty" yaml:"genus,omitempty"`
	Number   int               `json:"number,omitempty" yaml:"number,omitempty"`
	Label    string            `json:"label,omitempty" yaml:"label,omitempty"`
	Title    string            `json:"title,omitempty" yaml:"title,omitempty"`
	Content  string            `json:"content,omitempty" yaml:"content,omitempty"`
	Width    int               `json:"width,omitempty" yaml:"width,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Children []*Outline        `json:"children,omitempty" yaml:"children,omitempty"`
}

// Outline builds the nested view rooted at id.
func (t *Tree) Outline(id NodeID) *Outline {
	n := t.nodes[id]
	o := &Outline{
		ID:       int(n.ID),
		Species:  n.Species,
		Category: n.Category.String(),
		Genus:    n.Genus(),
		Number:   n.Number,
		Label:    n.Label,
		Title:    t.TitleText(id),
		Content:  n.Content,
		Width:    n.Width,
	}
	if len(n.Attrs) > 0 {
		o.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			o.Attrs[k] = v
		}
	}
	for _, c := range n.Children {
		o.Children = append(o.Children, t.Outline(c))
	}
	return o
}

// Slug lowercases s and collapses every run of non-alphanumerics into a
// single hyphen.
func Slug(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
			continue
		}
		hyphen = true
	}
	return b.String()
}

// Text renders the outline as an indented listing, one node per line.
func (o *Outline) Text() string {
	var b strings.Builder
	o.text(&b, 0)
	return b.String()
}

func (o *Outline) text(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(o.Species)
	if o.Number > 0 {
		fmt.Fprintf(b, " %d", o.Number)
	}
	if o.Title != "" {
		fmt.Fprintf(b, " %q", o.Title)
	}
	if o.Label != "" {
		b.WriteString(" #" + o.Label)
	}
	if o.Content != "" && len(o.Children) == 0 {
		fmt.Fprintf(b, " %q", abbreviate(o.Content, 40))
	}
	b.WriteByte('\n')
	for _, c := range o.Children {
		c.text(b, depth+1)
	}
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

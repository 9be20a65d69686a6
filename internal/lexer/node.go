// Package lexer turns LaTeX source into a flat sequence of lexical nodes.
//
// Tokenize scans the source with a state-function scanner and reads macro
// arguments according to the argument patterns in the taxonomy, so the
// result already groups each macro with its arguments and each environment
// with its body. Latex reverses the process exactly.
package lexer

import "strings"

// Node is one lexical node.
type Node interface {
	// Latex reconstructs the source text of the node.
	Latex() string
}

// Chars is a run of ordinary text.
type Chars struct {
	Text string
}

// Comment is a '%' comment without its marker or line end.
type Comment struct {
	Text string
}

// Macro is a control sequence with the arguments its pattern calls for.
type Macro struct {
	Name string
	Opt  *Group   // first optional argument, if present
	Opts []*Group // every optional argument in order
	Args []*Group // mandatory arguments in order
	Raw  string
}

// Environment is a \begin{name} ... \end{name} block.
type Environment struct {
	Name    string
	Options []*Group
	Args    []*Group
	Body    []Node
	RawBody string
	Raw     string
}

// Math is an inline $...$ or display $$...$$ region.
type Math struct {
	Display bool
	Body    []Node
	Raw     string
}

// Group is a brace-delimited group, or a single token read as an argument.
type Group struct {
	Body []Node
}

func (c *Chars) Latex() string       { return c.Text }
func (c *Comment) Latex() string     { return "%" + c.Text + "\n" }
func (m *Macro) Latex() string       { return m.Raw }
func (e *Environment) Latex() string { return e.Raw }
func (m *Math) Latex() string        { return m.Raw }
func (g *Group) Latex() string       { return "{" + Latex(g.Body) + "}" }

// Latex concatenates the source text of nodes.
func Latex(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Latex())
	}
	return b.String()
}

// Text returns the concatenated text of g when it holds only characters.
func (g *Group) Text() (string, bool) {
	var b strings.Builder
	for _, n := range g.Body {
		c, ok := n.(*Chars)
		if !ok {
			return "", false
		}
		b.WriteString(c.Text)
	}
	return b.String(), true
}

// Inner is the source text of the group without its braces.
func (g *Group) Inner() string {
	return Latex(g.Body)
}

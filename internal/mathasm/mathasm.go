// Package mathasm flattens the lexical nodes of a math region into one
// source string with unambiguous sub- and superscript targets.
package mathasm

import (
	"strings"

	"github.com/dgallion1/texgest/internal/lexer"
)

// Mode is the display category of a math region.
type Mode int

const (
	Inline  Mode = iota // $...$ or \(...\)
	Display             // \[...\] or displaymath
	Named               // \begin{env}...\end{env}
)

func (m Mode) String() string {
	switch m {
	case Display:
		return "display"
	case Named:
		return "named"
	}
	return "inline"
}

// Options are the three independent normalization flags.
type Options struct {
	StrictBraces      bool // brace macro and single-character script targets
	NonBreakingSpaces bool // replace spaces with ~
	StrictDelimiters  bool // use \( \) and \begin{displaymath} forms
}

// Region is an assembled math region.
type Region struct {
	Mode  Mode
	Env   string // environment name for Named regions
	Body  string
	Open  string
	Close string
}

// String is the region's source text, delimiters included.
func (r Region) String() string {
	return r.Open + r.Body + r.Close
}

// Assemble builds a region from body. env names the environment for Named
// regions and is ignored otherwise.
func Assemble(body []lexer.Node, mode Mode, env string, opts Options) Region {
	var b strings.Builder
	writeNodes(&b, body, opts)
	text := b.String()
	if opts.StrictBraces {
		text = braceScripts(text)
	}
	if opts.NonBreakingSpaces {
		text = strings.ReplaceAll(text, " ", "~")
	}
	r := Region{Mode: mode, Env: env, Body: text}
	r.Open, r.Close = delimiters(mode, env, opts.StrictDelimiters)
	return r
}

func delimiters(mode Mode, env string, strict bool) (string, string) {
	switch mode {
	case Named:
		return `\begin{` + env + `}`, `\end{` + env + `}`
	case Display:
		if strict {
			return `\begin{displaymath}`, `\end{displaymath}`
		}
		return `\[`, `\]`
	}
	if strict {
		return `\(`, `\)`
	}
	return "$", "$"
}

// writeNodes reconstructs nodes. A group or macro that directly follows a
// '_' or '^' is the script target: groups keep their braces, and macros gain
// braces in strict mode.
func writeNodes(b *strings.Builder, nodes []lexer.Node, opts Options) {
	script := false
	for _, n := range nodes {
		switch n := n.(type) {
		case *lexer.Group:
			b.WriteByte('{')
			writeNodes(b, n.Body, opts)
			b.WriteByte('}')
		case *lexer.Macro:
			if script && opts.StrictBraces {
				b.WriteString("{" + n.Raw + "}")
			} else {
				b.WriteString(n.Raw)
			}
		default:
			b.WriteString(n.Latex())
		}
		script = endsWithScript(n)
	}
}

func endsWithScript(n lexer.Node) bool {
	c, ok := n.(*lexer.Chars)
	if !ok || c.Text == "" {
		return false
	}
	last := c.Text[len(c.Text)-1]
	if last != '_' && last != '^' {
		return false
	}
	return len(c.Text) < 2 || c.Text[len(c.Text)-2] != '\\'
}

// braceScripts wraps single alphanumeric script targets: x_1 becomes x_{1}.
// Escaped markers (\_) are left alone.
func braceScripts(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		b.WriteByte(c)
		if c != '_' && c != '^' {
			continue
		}
		if i > 0 && s[i-1] == '\\' {
			continue
		}
		if i+1 < len(s) && isAlnum(s[i+1]) {
			b.WriteByte('{')
			b.WriteByte(s[i+1])
			b.WriteByte('}')
			i++
		}
	}
	return b.String()
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

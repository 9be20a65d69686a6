// Package tabular parses the body of a tabular environment into a grid of
// row and cell nodes.
package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/taxonomy"
	"github.com/dgallion1/texgest/internal/texerr"
)

// Column is one column of a column specification.
type Column struct {
	Align string // l, c, r, or p/m/b for paragraph columns
	Width string // width argument of paragraph columns
	Left  int    // vertical rules before the column
	Right int    // vertical rules after the last column
}

// Limits on *{n}{...} expansion. A nested repeat multiplies, so the
// expanded specification is bounded as well as each count.
const (
	MaxRepeat      = 1000
	maxExpandedLen = 1 << 16
)

// ParseSpec reads a column specification such as "|lc|p{3cm}|".
func ParseSpec(spec string) ([]Column, error) {
	var (
		cols []Column
		bars int
	)
	for i := 0; i < len(spec); i++ {
		c := spec[i]
		switch {
		case c == '|':
			bars++
		case c == ' ' || c == '\t' || c == '\n':
		case c == 'l' || c == 'c' || c == 'r' || c == 'X':
			cols = append(cols, Column{Align: string(c), Left: bars})
			bars = 0
		case c == 'p' || c == 'm' || c == 'b':
			arg, n, err := braced(spec, i+1)
			if err != nil {
				return nil, err
			}
			cols = append(cols, Column{Align: string(c), Width: arg, Left: bars})
			bars = 0
			i = n - 1
		case c == '@' || c == '!' || c == '>' || c == '<':
			_, n, err := braced(spec, i+1)
			if err != nil {
				return nil, err
			}
			i = n - 1
		case c == '*':
			count, n, err := braced(spec, i+1)
			if err != nil {
				return nil, err
			}
			inner, m, err := braced(spec, n)
			if err != nil {
				return nil, err
			}
			k, err := strconv.Atoi(strings.TrimSpace(count))
			if err != nil || k < 0 || k > MaxRepeat {
				return nil, fmt.Errorf("%w: repeat count %q in %q", texerr.ErrMalformedTabularSpec, count, spec)
			}
			if len(spec)-(m-i)+k*len(inner) > maxExpandedLen {
				return nil, fmt.Errorf("%w: %q expands past %d bytes", texerr.ErrMalformedTabularSpec, spec[i:m], maxExpandedLen)
			}
			spec = spec[:i] + strings.Repeat(inner, k) + spec[m:]
			i--
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", texerr.ErrMalformedTabularSpec, c, spec)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no columns in %q", texerr.ErrMalformedTabularSpec, spec)
	}
	cols[len(cols)-1].Right = bars
	return cols, nil
}

// braced reads the {...} argument starting at spec[i] and returns its
// contents and the index just past the closing brace.
func braced(spec string, i int) (string, int, error) {
	if i >= len(spec) || spec[i] != '{' {
		return "", 0, fmt.Errorf("%w: expected { at offset %d of %q", texerr.ErrMalformedTabularSpec, i, spec)
	}
	depth := 0
	for j := i; j < len(spec); j++ {
		switch spec[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return spec[i+1 : j], j + 1, nil
			}
		}
	}
	return "", 0, fmt.Errorf("%w: unbalanced braces in %q", texerr.ErrMalformedTabularSpec, spec)
}

// Row is one table row before its cells are built.
type Row struct {
	Top    int // horizontal rules above the row
	Bottom int // horizontal rules below the row
	Cells  []string
}

var rules = []string{`\hline`, `\toprule`, `\midrule`, `\bottomrule`}

// SplitRows splits a table body on \\ and each row on &, counting and
// removing horizontal rules. A trailing row holding only rules becomes the
// bottom border of the row before it.
func SplitRows(body string) []Row {
	var rows []Row
	for _, text := range splitTop(body, true) {
		top := 0
		for _, rule := range rules {
			top += strings.Count(text, rule)
			text = strings.ReplaceAll(text, rule, "")
		}
		var cells []string
		for _, c := range splitTop(text, false) {
			cells = append(cells, strings.TrimSpace(c))
		}
		rows = append(rows, Row{Top: top, Cells: cells})
	}
	if n := len(rows); n > 1 && rows[n-1].empty() {
		rows[n-2].Bottom = rows[n-1].Top
		rows = rows[:n-1]
	}
	if len(rows) == 1 && rows[0].empty() && rows[0].Top == 0 {
		return nil
	}
	return rows
}

func (r Row) empty() bool {
	return len(r.Cells) == 1 && r.Cells[0] == ""
}

// splitTop splits s on row separators (\\) or cell separators (&) that are
// neither escaped nor inside braces. A [..] spacing option directly after a
// row separator is dropped.
func splitTop(s string, rows bool) []string {
	var (
		parts []string
		start int
		depth int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '{':
			depth++
		case c == '}':
			depth--
		case c == '\\' && i+1 < len(s):
			if rows && depth == 0 && s[i+1] == '\\' {
				parts = append(parts, s[start:i])
				i += 2
				if i < len(s) && s[i] == '[' {
					if rb := strings.IndexByte(s[i:], ']'); rb > 0 {
						i += rb + 1
					}
				}
				start = i
				i--
				continue
			}
			i++
		case c == '&' && !rows && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// Filler builds the children of a cell from its source text.
type Filler func(cell doctree.NodeID, text string) error

// Build creates a tabular node of the given species with row and cell
// children. Cells beyond the declared columns are left aligned.
func Build(t *doctree.Tree, species, spec string, cols []Column, body string, fill Filler) (doctree.NodeID, error) {
	tab := t.Create(species, taxonomy.Environment)
	if spec != "" {
		t.SetAttr(tab, "spec", spec)
	}
	for ri, r := range SplitRows(body) {
		row := t.Create(taxonomy.Row, taxonomy.Content)
		if r.Top > 0 {
			t.SetAttr(row, "top", strconv.Itoa(r.Top))
		}
		if r.Bottom > 0 {
			t.SetAttr(row, "bottom", strconv.Itoa(r.Bottom))
		}
		for ci, text := range r.Cells {
			cell := t.Create(taxonomy.Cell, taxonomy.Content)
			col := Column{Align: "l"}
			if ci < len(cols) {
				col = cols[ci]
			}
			t.SetAttr(cell, "align", col.Align)
			if col.Left > 0 {
				t.SetAttr(cell, "left", strconv.Itoa(col.Left))
			}
			if col.Right > 0 {
				t.SetAttr(cell, "right", strconv.Itoa(col.Right))
			}
			if err := fill(cell, text); err != nil {
				return doctree.None, fmt.Errorf("row %d cell %d: %w", ri+1, ci+1, err)
			}
			t.Append(row, cell)
		}
		t.Append(tab, row)
	}
	return tab, nil
}

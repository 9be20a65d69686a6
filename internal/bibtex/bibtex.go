// Package bibtex reads BibTeX databases into ordered entries.
package bibtex

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	nbib "github.com/nickng/bibtex"
)

// Field is one name = value pair of an entry, with the value's outer
// delimiters removed.
type Field struct {
	Name  string
	Value string
}

// Entry is a single @type{key, ...} record.
type Entry struct {
	Type   string
	Key    string
	Fields []Field
}

// Get returns the value of the named field, or "".
func (e Entry) Get(name string) string {
	for _, f := range e.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Parse reads every entry in src in source order. Fields are sorted by
// name, @string abbreviations are expanded and runs of whitespace in values
// collapse to one space. Text outside entries is ignored.
func Parse(src string) ([]Entry, error) {
	db, err := nbib.Parse(strings.NewReader(entriesOnly(src)))
	if err != nil {
		return nil, fmt.Errorf("bibtex: %w", err)
	}
	entries := make([]Entry, 0, len(db.Entries))
	for _, be := range db.Entries {
		if strings.TrimSpace(be.CiteName) == "" {
			return nil, fmt.Errorf("bibtex: @%s entry without a key", be.Type)
		}
		e := Entry{Type: strings.ToLower(be.Type), Key: be.CiteName}
		for name, v := range be.Fields {
			if v == nil {
				continue
			}
			e.Fields = append(e.Fields, Field{
				Name:  strings.ToLower(name),
				Value: strings.Join(strings.Fields(v.String()), " "),
			})
		}
		sort.Slice(e.Fields, func(i, j int) bool { return e.Fields[i].Name < e.Fields[j].Name })
		entries = append(entries, e)
	}
	return entries, nil
}

// entriesOnly keeps the @type{...} and @type(...) blocks of src and drops
// everything else, which BibTeX treats as comment text. That includes an @
// not followed by an identifier and an opening delimiter, such as one in an
// email address. @comment and @preamble blocks are dropped too, and
// @type(...) is rewritten as @type{...}. An unterminated block is kept as is
// so the parser reports it.
func entriesOnly(src string) string {
	var b strings.Builder
	for i := 0; i < len(src); {
		at := strings.IndexByte(src[i:], '@')
		if at < 0 {
			break
		}
		start := i + at
		j := start + 1
		for j < len(src) && (src[j] == '_' || unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j]))) {
			j++
		}
		typ := strings.ToLower(src[start+1 : j])
		for j < len(src) && unicode.IsSpace(rune(src[j])) {
			j++
		}
		if typ == "" || j >= len(src) || (src[j] != '{' && src[j] != '(') {
			i = start + 1
			continue
		}
		end := closing(src, j)
		if end < 0 {
			b.WriteString(src[start:])
			break
		}
		switch {
		case typ == "comment" || typ == "preamble":
		case src[j] == '(':
			b.WriteString(src[start:j])
			b.WriteByte('{')
			b.WriteString(src[j+1 : end-1])
			b.WriteString("}\n")
		default:
			b.WriteString(src[start:end])
			b.WriteByte('\n')
		}
		i = end
	}
	return b.String()
}

// closing returns the index just past the delimiter that closes src[open],
// or -1.
func closing(src string, open int) int {
	closer := byte('}')
	if src[open] == '(' {
		closer = ')'
	}
	depth := 0
	for k := open; k < len(src); k++ {
		switch c := src[k]; {
		case c == '{' || (closer == ')' && c == '('):
			depth++
		case c == '}' || (closer == ')' && c == ')'):
			depth--
			if depth == 0 {
				if c != closer {
					return -1
				}
				return k + 1
			}
		}
	}
	return -1
}

// Package preprocess applies the fixed source rewrites that run before
// tokenizing: \def expansion, backtick quotes and $$ display math.
package preprocess

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Source applies every rewrite in order.
func Source(text string) (string, error) {
	text, err := ExpandDefs(text)
	if err != nil {
		return "", err
	}
	text = ReplaceBackticks(text)
	return ReplaceDoubleDollars(text), nil
}

var defPattern = regexp.MustCompile(`\\def\s*\\([A-Za-z]+)\s*`)

// ExpandDefs removes each \def\name{body} and replaces later uses of \name
// with body. A use must not be followed by a letter, so \it does not match
// \item.
func ExpandDefs(text string) (string, error) {
	type def struct{ name, body string }
	var defs []def
	for {
		m := defPattern.FindStringSubmatchIndex(text)
		if m == nil {
			break
		}
		open := m[1]
		if open >= len(text) || text[open] != '{' {
			return "", fmt.Errorf("preprocess: \\def\\%s: body must start with {", text[m[2]:m[3]])
		}
		depth, i := 0, open
		for ; i < len(text); i++ {
			if text[i] == '{' {
				depth++
			} else if text[i] == '}' {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		if depth != 0 {
			return "", fmt.Errorf("preprocess: \\def\\%s: unbalanced braces", text[m[2]:m[3]])
		}
		defs = append(defs, def{name: text[m[2]:m[3]], body: text[open+1 : i]})
		text = text[:m[0]] + text[i+1:]
	}
	for _, d := range defs {
		text = replaceControlWord(text, d.name, d.body)
	}
	return text, nil
}

func replaceControlWord(text, name, body string) string {
	word := `\` + name
	var b strings.Builder
	for {
		i := strings.Index(text, word)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		end := i + len(word)
		if end < len(text) && unicode.IsLetter(rune(text[end])) {
			b.WriteString(text[:end])
			text = text[end:]
			continue
		}
		b.WriteString(text[:i])
		b.WriteString(body)
		text = text[end:]
	}
}

// ReplaceBackticks turns opening quotes into apostrophes.
func ReplaceBackticks(text string) string {
	return strings.ReplaceAll(text, "`", "'")
}

// ReplaceDoubleDollars rewrites $$...$$ as \[...\]. An unpaired trailing $$
// is left as it is.
func ReplaceDoubleDollars(text string) string {
	parts := strings.Split(text, "$$")
	if len(parts) < 3 {
		return text
	}
	var b strings.Builder
	for i, p := range parts {
		switch {
		case i == 0:
		case i%2 == 1 && i < len(parts)-1:
			b.WriteString(`\[`)
		case i%2 == 0:
			b.WriteString(`\]`)
		default:
			b.WriteString("$$")
		}
		b.WriteString(p)
	}
	return b.String()
}

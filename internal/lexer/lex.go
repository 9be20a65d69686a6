package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Pos is a byte offset into the source.
type Pos int

// item is a token returned from the scanner.
type item struct {
	typ  itemType
	pos  Pos
	val  string
	line int
}

func (i item) end() Pos {
	return i.pos + Pos(len(i.val))
}

func (i item) String() string {
	switch {
	case i.typ == itemEOF:
		return "EOF"
	case i.typ == itemError:
		return i.val
	case len(i.val) > 10:
		return fmt.Sprintf("%.10q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

type itemType int

const (
	itemError itemType = iota // error occurred; value is text of error
	itemEOF
	itemText         // run of ordinary characters, whitespace included
	itemComment      // '%' to end of line, newline included
	itemMacro        // backslash and control sequence name
	itemLeftBrace    // '{'
	itemRightBrace   // '}'
	itemLeftBracket  // '['
	itemRightBracket // ']'
	itemMathShift    // '$' or '$$'
)

const eof = -1

// special runes end a text run.
const special = "\\{}[]%$"

type stateFn func(*lexer) stateFn

// lexer holds the state of the scanner.
type lexer struct {
	input     string
	pos       Pos
	start     Pos
	atEOF     bool
	line      int
	startLine int
	item      item
}

func lex(input string) *lexer {
	return &lexer{
		input:     input,
		line:      1,
		startLine: 1,
	}
}

func (l *lexer) next() rune {
	if int(l.pos) >= len(l.input) {
		l.atEOF = true
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += Pos(w)
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) backup() {
	if !l.atEOF && l.pos > 0 {
		r, w := utf8.DecodeLastRuneInString(l.input[:l.pos])
		l.pos -= Pos(w)
		if r == '\n' {
			l.line--
		}
	}
}

func (l *lexer) thisItem(t itemType) item {
	i := item{t, l.start, l.input[l.start:l.pos], l.startLine}
	l.start = l.pos
	l.startLine = l.line
	return i
}

func (l *lexer) emit(t itemType) stateFn {
	l.item = l.thisItem(t)
	return nil
}

func (l *lexer) errorf(format string, args ...any) stateFn {
	l.item = item{itemError, l.start, fmt.Sprintf(format, args...), l.startLine}
	l.start = 0
	l.pos = 0
	l.input = l.input[:0]
	return nil
}

// jump moves the scanner forward to p, skipping input the reader consumed
// directly (verbatim bodies).
func (l *lexer) jump(p Pos) {
	l.line += strings.Count(l.input[l.pos:p], "\n")
	l.pos = p
	l.start = p
	l.startLine = l.line
	l.atEOF = false
}

// nextItem returns the next item from the input.
func (l *lexer) nextItem() item {
	l.item = item{itemEOF, l.pos, "", l.startLine}
	state := lexAny
	for state != nil {
		state = state(l)
	}
	return l.item
}

func lexAny(l *lexer) stateFn {
	switch r := l.next(); r {
	case eof:
		return l.emit(itemEOF)
	case '\\':
		return lexMacro
	case '%':
		return lexComment
	case '{':
		return l.emit(itemLeftBrace)
	case '}':
		return l.emit(itemRightBrace)
	case '[':
		return l.emit(itemLeftBracket)
	case ']':
		return l.emit(itemRightBracket)
	case '$':
		if l.peek() == '$' {
			l.next()
		}
		return l.emit(itemMathShift)
	default:
		return lexText
	}
}

// lexMacro scans a control sequence. The backslash has been consumed. A
// control word is a run of letters with an optional trailing star; a control
// symbol is any single other rune.
func lexMacro(l *lexer) stateFn {
	r := l.next()
	switch {
	case r == eof:
		return l.errorf("line %d: trailing backslash", l.line)
	case isLetter(r):
		for isLetter(l.peek()) {
			l.next()
		}
		if l.peek() == '*' {
			l.next()
		}
	}
	return l.emit(itemMacro)
}

// lexComment scans to the end of the line; the newline belongs to the comment.
func lexComment(l *lexer) stateFn {
	for {
		r := l.next()
		if r == '\n' || r == eof {
			break
		}
	}
	return l.emit(itemComment)
}

// lexText scans ordinary characters. The first has been consumed.
func lexText(l *lexer) stateFn {
	for {
		r := l.peek()
		if r == eof || strings.ContainsRune(special, r) {
			break
		}
		l.next()
	}
	return l.emit(itemText)
}

func isLetter(r rune) bool {
	return r < utf8.RuneSelf && unicode.IsLetter(r)
}

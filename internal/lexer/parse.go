package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/texgest/internal/taxonomy"
	"github.com/dgallion1/texgest/internal/texerr"
)

// Tokenize reads src into lexical nodes.
func Tokenize(src string) ([]Node, error) {
	r := &reader{lex: lex(src), input: src}
	return r.parseSeq(stopEOF)
}

// stop identifies what ends a node sequence.
type stop int

const (
	stopEOF stop = iota
	stopBrace
	stopBracket
	stopEnd
	stopMath
	stopDisplayMath
)

type reader struct {
	lex   *lexer
	input string
	buf   []item
	end   Pos // end of the last consumed item
}

func (r *reader) peek() item {
	if len(r.buf) == 0 {
		r.buf = append(r.buf, r.lex.nextItem())
	}
	return r.buf[len(r.buf)-1]
}

func (r *reader) next() item {
	i := r.peek()
	r.buf = r.buf[:len(r.buf)-1]
	r.end = i.end()
	return i
}

// split consumes the first rune of the pending text item.
func (r *reader) split() string {
	i := r.peek()
	_, w := utf8.DecodeRuneInString(i.val)
	head := i.val[:w]
	if w == len(i.val) {
		r.next()
		return head
	}
	r.buf[len(r.buf)-1] = item{itemText, i.pos + Pos(w), i.val[w:], i.line}
	r.end = i.pos + Pos(w)
	return head
}

func syntaxErr(i item, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", texerr.ErrSyntax, i.line, fmt.Sprintf(format, args...))
}

// parseSeq reads nodes until the stop condition. The closing token is
// consumed.
func (r *reader) parseSeq(until stop) ([]Node, error) {
	var nodes []Node
	depth := 0 // nested brackets inside an optional argument
	add := func(n Node) {
		if c, ok := n.(*Chars); ok && len(nodes) > 0 {
			if prev, ok := nodes[len(nodes)-1].(*Chars); ok {
				prev.Text += c.Text
				return
			}
		}
		nodes = append(nodes, n)
	}
	for {
		i := r.peek()
		switch i.typ {
		case itemError:
			return nil, fmt.Errorf("%w: %s", texerr.ErrSyntax, i.val)
		case itemEOF:
			if until != stopEOF {
				return nil, syntaxErr(i, "unexpected end of input")
			}
			return nodes, nil
		case itemText:
			r.next()
			add(&Chars{Text: i.val})
		case itemComment:
			r.next()
			text := strings.TrimPrefix(i.val, "%")
			add(&Comment{Text: strings.TrimSuffix(text, "\n")})
		case itemLeftBrace:
			r.next()
			body, err := r.parseSeq(stopBrace)
			if err != nil {
				return nil, err
			}
			add(&Group{Body: body})
		case itemRightBrace:
			if until != stopBrace {
				return nil, syntaxErr(i, "unexpected }")
			}
			r.next()
			return nodes, nil
		case itemLeftBracket:
			r.next()
			if until == stopBracket {
				depth++
			}
			add(&Chars{Text: i.val})
		case itemRightBracket:
			r.next()
			if until == stopBracket {
				if depth == 0 {
					return nodes, nil
				}
				depth--
			}
			add(&Chars{Text: i.val})
		case itemMathShift:
			r.next()
			if (until == stopMath && i.val == "$") || (until == stopDisplayMath && i.val == "$$") {
				return nodes, nil
			}
			n, err := r.parseMath(i)
			if err != nil {
				return nil, err
			}
			add(n)
		case itemMacro:
			r.next()
			name := i.val[1:]
			var (
				n   Node
				err error
			)
			switch name {
			case "begin":
				n, err = r.parseEnvironment(i)
			case "end":
				if until != stopEnd {
					return nil, syntaxErr(i, "unexpected \\end")
				}
				return nodes, nil
			default:
				n, err = r.parseMacro(i, name)
			}
			if err != nil {
				return nil, err
			}
			add(n)
		}
	}
}

func (r *reader) parseMath(open item) (Node, error) {
	until := stopMath
	if open.val == "$$" {
		until = stopDisplayMath
	}
	body, err := r.parseSeq(until)
	if err != nil {
		return nil, err
	}
	return &Math{
		Display: open.val == "$$",
		Body:    body,
		Raw:     r.input[open.pos:r.end],
	}, nil
}

func (r *reader) parseMacro(start item, name string) (Node, error) {
	m := &Macro{Name: name}
	for _, c := range taxonomy.ArgSpec(name) {
		switch c {
		case '[':
			if r.peek().typ != itemLeftBracket {
				continue
			}
			r.next()
			body, err := r.parseSeq(stopBracket)
			if err != nil {
				return nil, err
			}
			g := &Group{Body: body}
			if m.Opt == nil {
				m.Opt = g
			}
			m.Opts = append(m.Opts, g)
		case '{':
			g, err := r.parseArg()
			if err != nil {
				return nil, fmt.Errorf("\\%s (line %d): %w", name, start.line, err)
			}
			m.Args = append(m.Args, g)
		}
	}
	m.Raw = r.input[start.pos:r.end]
	return m, nil
}

// skipSpace discards whitespace and comments ahead of a mandatory argument.
func (r *reader) skipSpace() {
	for {
		i := r.peek()
		switch i.typ {
		case itemComment:
			r.next()
			continue
		case itemText:
			trimmed := strings.TrimLeft(i.val, " \t\r\n")
			if trimmed == "" {
				r.next()
				continue
			}
			if len(trimmed) != len(i.val) {
				skip := Pos(len(i.val) - len(trimmed))
				r.buf[len(r.buf)-1] = item{itemText, i.pos + skip, trimmed, i.line}
				r.end = i.pos + skip
			}
		}
		return
	}
}

// parseArg reads one mandatory argument: a braced group, or a single
// character or control sequence.
func (r *reader) parseArg() (*Group, error) {
	r.skipSpace()
	i := r.peek()
	switch i.typ {
	case itemLeftBrace:
		r.next()
		body, err := r.parseSeq(stopBrace)
		if err != nil {
			return nil, err
		}
		return &Group{Body: body}, nil
	case itemText:
		return &Group{Body: []Node{&Chars{Text: r.split()}}}, nil
	case itemMacro:
		if i.val == "\\begin" || i.val == "\\end" {
			break
		}
		r.next()
		n, err := r.parseMacro(i, i.val[1:])
		if err != nil {
			return nil, err
		}
		return &Group{Body: []Node{n}}, nil
	}
	return nil, fmt.Errorf("%w: missing argument before %s", texerr.ErrMacroArityMismatch, i)
}

// parseName reads the {name} following \begin or \end.
func (r *reader) parseName(cmd string) (string, error) {
	r.skipSpace()
	if i := r.next(); i.typ != itemLeftBrace {
		return "", syntaxErr(i, "\\%s needs an environment name", cmd)
	}
	var b strings.Builder
	for {
		i := r.next()
		switch i.typ {
		case itemRightBrace:
			name := strings.TrimSpace(b.String())
			if name == "" {
				return "", syntaxErr(i, "empty environment name")
			}
			return name, nil
		case itemText:
			b.WriteString(i.val)
		default:
			return "", syntaxErr(i, "bad environment name near %s", i)
		}
	}
}

func (r *reader) parseEnvironment(begin item) (Node, error) {
	name, err := r.parseName("begin")
	if err != nil {
		return nil, err
	}
	env := &Environment{Name: name}
	if taxonomy.RawEnvironment(name) {
		return r.parseRawEnvironment(begin, env)
	}
	if taxonomy.AcceptsOption(name) && r.peek().typ == itemLeftBracket {
		r.next()
		body, err := r.parseSeq(stopBracket)
		if err != nil {
			return nil, err
		}
		env.Options = append(env.Options, &Group{Body: body})
	}
	for n := taxonomy.EnvironmentArgs(name); n > 0; n-- {
		g, err := r.parseArg()
		if err != nil {
			return nil, fmt.Errorf("\\begin{%s} (line %d): %w", name, begin.line, err)
		}
		env.Args = append(env.Args, g)
	}
	bodyStart := r.end
	env.Body, err = r.parseSeq(stopEnd)
	if err != nil {
		return nil, err
	}
	endPos := r.end - Pos(len("\\end"))
	end, err := r.parseName("end")
	if err != nil {
		return nil, err
	}
	if end != name {
		return nil, fmt.Errorf("%w: line %d: \\end{%s} closes \\begin{%s}", texerr.ErrSyntax, begin.line, end, name)
	}
	env.RawBody = r.input[bodyStart:endPos]
	env.Raw = r.input[begin.pos:r.end]
	return env, nil
}

// parseRawEnvironment takes the body verbatim up to the matching \end.
func (r *reader) parseRawEnvironment(begin item, env *Environment) (Node, error) {
	pos := int(r.end)
	if strings.HasPrefix(r.input[pos:], "[") {
		if rb := strings.IndexByte(r.input[pos:], ']'); rb > 0 {
			opt := r.input[pos+1 : pos+rb]
			env.Options = append(env.Options, &Group{Body: []Node{&Chars{Text: opt}}})
			pos += rb + 1
		}
	}
	tag := "\\end{" + env.Name + "}"
	idx := strings.Index(r.input[pos:], tag)
	if idx < 0 {
		return nil, fmt.Errorf("%w: line %d: \\begin{%s} is never closed", texerr.ErrSyntax, begin.line, env.Name)
	}
	env.RawBody = r.input[pos : pos+idx]
	stop := Pos(pos + idx + len(tag))
	r.lex.jump(stop)
	r.end = stop
	env.Raw = r.input[begin.pos:stop]
	return env, nil
}

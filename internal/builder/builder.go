// Package builder reconstructs the document tree from a flat lexical node
// sequence.
//
// The builder is a stack machine: constructs open scopes on a Stack, and
// category-specific rules decide which open scopes a new construct closes.
// A build either returns a complete root or an error; a tree whose build
// failed must be discarded.
package builder

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/dgallion1/texgest/internal/bibtex"
	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/lexer"
	"github.com/dgallion1/texgest/internal/mathasm"
	"github.com/dgallion1/texgest/internal/taxonomy"
	"github.com/dgallion1/texgest/internal/texerr"
)

// BibLoader reads and parses the bibliography file at path.
type BibLoader func(path string) ([]bibtex.Entry, error)

// Options configure a build.
type Options struct {
	Math mathasm.Options

	// SourcePath is the path of the document being built. Bibliography
	// references are resolved relative to it.
	SourcePath string
	// Bibliography loads .bib files. Without one, \bibliography fails.
	Bibliography BibLoader
	// Tokenize re-tokenizes table cells. Defaults to lexer.Tokenize.
	Tokenize func(string) ([]lexer.Node, error)
	// LineWidthMM is the assumed text width for absolute media widths.
	// Defaults to 150.
	LineWidthMM float64

	Logger *slog.Logger
}

// Builder turns lexical nodes into tree nodes. A Builder is used for one
// build and is not safe for concurrent use.
type Builder struct {
	tree  *doctree.Tree
	opts  Options
	stack *Stack
	log   *slog.Logger

	// groupMark is the stack length when the innermost brace group opened.
	// Scopes at or below it belong to the enclosing text.
	groupMark int
}

// New returns a builder that allocates nodes in t.
func New(t *doctree.Tree, opts Options) *Builder {
	if opts.Tokenize == nil {
		opts.Tokenize = lexer.Tokenize
	}
	if opts.LineWidthMM <= 0 {
		opts.LineWidthMM = 150
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{tree: t, opts: opts, log: log}
}

// Build parses nodes under root and returns root once every scope is
// closed. On error the returned id is doctree.None.
func (b *Builder) Build(root doctree.NodeID, nodes []lexer.Node) (doctree.NodeID, error) {
	b.stack = NewStack(b.tree, root)
	b.groupMark = 1
	if err := b.parse(nodes); err != nil {
		return doctree.None, err
	}
	return b.stack.Finish(), nil
}

// Build is a convenience wrapper that creates a root of the given species in
// t and builds nodes under it.
func Build(t *doctree.Tree, rootSpecies string, nodes []lexer.Node, opts Options) (doctree.NodeID, error) {
	root := t.Create(rootSpecies, taxonomy.Content)
	t.Root = root
	id, err := New(t, opts).Build(root, nodes)
	if err != nil {
		t.Root = doctree.None
	}
	return id, err
}

func (b *Builder) parse(nodes []lexer.Node) error {
	for _, n := range merge(nodes) {
		if err := b.dispatch(n); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) dispatch(n lexer.Node) error {
	switch n := n.(type) {
	case *lexer.Chars:
		b.chars(n.Text)
	case *lexer.Comment:
		b.stack.Attach(b.tree.CreateContent(taxonomy.Comment, n.Text))
	case *lexer.Group:
		return b.group(n)
	case *lexer.Environment:
		return b.environment(n)
	case *lexer.Macro:
		return b.macro(n)
	case *lexer.Math:
		b.math(n)
	default:
		return fmt.Errorf("%w: unexpected node %T", texerr.ErrLexicalTypeMismatch, n)
	}
	return nil
}

var blankLine = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*)+`)

// chars splits text on blank lines into text and break leaves.
func (b *Builder) chars(text string) {
	last := 0
	for _, m := range blankLine.FindAllStringIndex(text, -1) {
		if m[0] > last {
			b.stack.Attach(b.tree.CreateContent(taxonomy.Text, text[last:m[0]]))
		}
		b.stack.Attach(b.tree.CreateContent(taxonomy.Break, text[m[0]:m[1]]))
		last = m[1]
	}
	if last < len(text) {
		b.stack.Attach(b.tree.CreateContent(taxonomy.Text, text[last:]))
	}
}

// group parses a brace group in the current scope. Switches opened inside
// the group end with it.
func (b *Builder) group(g *lexer.Group) error {
	mark, outer := b.stack.Len(), b.groupMark
	b.groupMark = mark
	defer func() { b.groupMark = outer }()
	if err := b.parse(g.Body); err != nil {
		return err
	}
	b.closeSwitches(mark)
	return nil
}

func (b *Builder) closeSwitches(mark int) {
	for b.stack.Len() > mark && b.stack.TopNode().Category == taxonomy.Switch {
		b.stack.Pop()
	}
}

// switchOn opens a switch scope, first closing an open switch of the same
// kind: \bf and \it are siblings, never nested. A switch opened outside the
// current group is left open and the new one nests inside it.
func (b *Builder) switchOn(name string) {
	top := b.stack.TopNode()
	if b.stack.Len() > b.groupMark && top.Category == taxonomy.Switch &&
		taxonomy.SwitchKind(top.Species) == taxonomy.SwitchKind(name) {
		b.stack.Pop()
	}
	b.stack.Push(b.tree.Create(name, taxonomy.Switch))
}

// parseInto opens id as a scope, parses nodes inside it and closes it,
// attaching it to the scope below.
func (b *Builder) parseInto(id doctree.NodeID, nodes []lexer.Node) error {
	b.stack.Push(id)
	if err := b.parse(nodes); err != nil {
		return err
	}
	b.stack.CloseTo(id)
	return nil
}

// title parses nodes into a title child of the innermost scope.
func (b *Builder) title(nodes []lexer.Node) error {
	return b.parseInto(b.tree.Create(taxonomy.Title, taxonomy.Content), nodes)
}

func (b *Builder) math(m *lexer.Math) {
	mode, species := mathasm.Inline, taxonomy.Math
	if m.Display {
		mode, species = mathasm.Display, "displaymath"
	}
	r := mathasm.Assemble(m.Body, mode, "", b.opts.Math)
	id := b.tree.CreateContent(species, r.String())
	b.tree.SetAttr(id, "mode", mode.String())
	b.stack.Attach(id)
}

// resolve returns the path of a file referenced from the document.
func (b *Builder) resolve(ref, ext string) (string, error) {
	if b.opts.SourcePath == "" {
		return "", fmt.Errorf("%w: %q: document location unknown", texerr.ErrUnresolvedExternalReference, ref)
	}
	if filepath.Ext(ref) == "" {
		ref += ext
	}
	if filepath.IsAbs(ref) {
		return ref, nil
	}
	return filepath.Join(filepath.Dir(b.opts.SourcePath), ref), nil
}

package builder

import (
	"fmt"
	"strings"

	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/lexer"
	"github.com/dgallion1/texgest/internal/markdown"
	"github.com/dgallion1/texgest/internal/mathasm"
	"github.com/dgallion1/texgest/internal/tabular"
	"github.com/dgallion1/texgest/internal/taxonomy"
	"github.com/dgallion1/texgest/internal/texerr"
)

func (b *Builder) environment(e *lexer.Environment) error {
	switch taxonomy.GenusOf(e.Name) {
	case "pre":
		id := b.tree.Create(e.Name, taxonomy.Environment)
		b.tree.Node(id).Content = e.RawBody
		b.envAttrs(id, e, false)
		b.stack.Attach(id)
		return nil
	case "markdown":
		id := b.tree.Create(e.Name, taxonomy.Environment)
		b.tree.Node(id).Content = e.RawBody
		markdown.Convert(b.tree, id, e.RawBody)
		b.stack.Attach(id)
		return nil
	case "dispmath":
		r := mathasm.Assemble(e.Body, mathasm.Named, e.Name, b.opts.Math)
		id := b.tree.Create(e.Name, taxonomy.Environment)
		b.tree.Node(id).Content = r.String()
		b.tree.SetAttr(id, "mode", mathasm.Named.String())
		b.stack.Attach(id)
		return nil
	case "tabular":
		return b.tabular(e)
	}

	id := b.tree.Create(e.Name, taxonomy.Environment)
	titled := taxonomy.InGenus(e.Name, "theorem") && len(e.Options) > 0
	b.envAttrs(id, e, titled)
	b.stack.Push(id)
	b.log.Debug("open environment", "species", e.Name, "depth", b.stack.Len())
	if titled {
		if err := b.title(e.Options[0].Body); err != nil {
			return err
		}
	}
	if err := b.parse(e.Body); err != nil {
		return err
	}
	// Closing the environment also flushes the final item of a list and any
	// switch still open inside it.
	b.stack.CloseTo(id)
	return nil
}

// envAttrs keeps the raw option and arguments of an environment so it can be
// written back out.
func (b *Builder) envAttrs(id doctree.NodeID, e *lexer.Environment, titled bool) {
	if len(e.Options) > 0 && !titled {
		b.tree.SetAttr(id, "options", e.Options[0].Inner())
	}
	if len(e.Args) > 0 {
		var args strings.Builder
		for _, g := range e.Args {
			args.WriteString(g.Latex())
		}
		b.tree.SetAttr(id, "args", args.String())
	}
}

func (b *Builder) tabular(e *lexer.Environment) error {
	var (
		spec string
		cols []tabular.Column
	)
	if taxonomy.EnvironmentArgs(e.Name) > 0 {
		if len(e.Args) == 0 {
			return fmt.Errorf("%w: \\begin{%s} needs a column specification", texerr.ErrMacroArityMismatch, e.Name)
		}
		spec = e.Args[0].Inner()
		var err error
		if cols, err = tabular.ParseSpec(spec); err != nil {
			return err
		}
	}
	id, err := tabular.Build(b.tree, e.Name, spec, cols, e.RawBody, b.fillCell)
	if err != nil {
		return fmt.Errorf("\\begin{%s}: %w", e.Name, err)
	}
	if len(e.Options) > 0 {
		b.tree.SetAttr(id, "options", e.Options[0].Inner())
	}
	b.stack.Attach(id)
	return nil
}

// fillCell re-tokenizes a cell and builds it with the cell as the innermost
// scope. The cell itself is owned by its row, so it is dropped from the
// stack rather than popped.
func (b *Builder) fillCell(cell doctree.NodeID, text string) error {
	nodes, err := b.opts.Tokenize(text)
	if err != nil {
		return err
	}
	mark := b.stack.Len()
	b.stack.Push(cell)
	if err := b.parse(nodes); err != nil {
		return err
	}
	b.stack.PopAbove(mark + 1)
	b.stack.Drop()
	return nil
}

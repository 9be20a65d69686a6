package builder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/lexer"
	"github.com/dgallion1/texgest/internal/taxonomy"
	"github.com/dgallion1/texgest/internal/texerr"
)

func (b *Builder) macro(m *lexer.Macro) error {
	if taxonomy.FamilyOf(m.Name) == taxonomy.Switch {
		b.switchOn(m.Name)
		return nil
	}
	species := taxonomy.StarredSpecies(m.Name)
	if base, ok := strings.CutSuffix(species, "*"); ok && taxonomy.IsRegistered(base) {
		species = base
	}
	switch genus := taxonomy.GenusOf(species); {
	case species == "label":
		return b.label(m)
	case genus == "pre":
		id := b.node(m, species)
		b.tree.Node(id).Content = m.Raw
		b.stack.Attach(id)
		return nil
	case species == "bibliography":
		return b.bibliography(m)
	case genus == "level":
		return b.level(m, species)
	case genus == "heading":
		return b.heading(m, species)
	case genus == "item":
		return b.item(m, species)
	case genus == "break" || genus == "space" || genus == "escaped":
		b.leaf(m, species, genus)
		return nil
	case genus == "accent":
		return b.accent(m, species)
	case species == "subfigure":
		return b.subfigure(m, species)
	case genus == "media":
		return b.media(m, species)
	case genus == "xref" || genus == "href":
		return b.xref(m, species)
	}
	return b.generic(m, species)
}

// node creates a macro node, remembering a star dropped from the name.
func (b *Builder) node(m *lexer.Macro, species string) doctree.NodeID {
	id := b.tree.Create(species, taxonomy.Macro)
	if strings.HasSuffix(m.Name, "*") && !strings.HasSuffix(species, "*") && !taxonomy.InGenus(species, "heading") {
		b.tree.SetAttr(id, "star", "true")
	}
	return id
}

func arity(m *lexer.Macro, n int) error {
	if len(m.Args) < n {
		return fmt.Errorf("%w: \\%s takes %d argument(s), got %d", texerr.ErrMacroArityMismatch, m.Name, n, len(m.Args))
	}
	return nil
}

// textArg returns argument i of m, which must be plain characters.
func textArg(m *lexer.Macro, i int) (string, error) {
	if err := arity(m, i+1); err != nil {
		return "", err
	}
	s, ok := m.Args[i].Text()
	if !ok {
		return "", fmt.Errorf("%w: \\%s expects text, got %q", texerr.ErrLexicalTypeMismatch, m.Name, m.Args[i].Inner())
	}
	return strings.TrimSpace(s), nil
}

// label sets the label of the nearest open numbered scope, or of the root
// when none is open.
func (b *Builder) label(m *lexer.Macro) error {
	text, err := textArg(m, 0)
	if err != nil {
		return err
	}
	id := b.stack.Find(func(n *doctree.Node) bool {
		return taxonomy.NodeIsNumbered(n.Species)
	})
	if id == doctree.None {
		id = b.stack.Root()
	}
	b.tree.Node(id).Label = text
	return nil
}

func (b *Builder) bibliography(m *lexer.Macro) error {
	ref, err := textArg(m, 0)
	if err != nil {
		return err
	}
	path, err := b.resolve(ref, ".bib")
	if err != nil {
		return err
	}
	if b.opts.Bibliography == nil {
		return fmt.Errorf("%w: %s: no bibliography reader configured", texerr.ErrUnresolvedExternalReference, path)
	}
	entries, err := b.opts.Bibliography(path)
	if err != nil {
		return fmt.Errorf("bibliography %s: %w", path, err)
	}
	b.log.Info("bibliography loaded", "path", path, "entries", len(entries))

	bib := b.node(m, "bibliography")
	b.tree.SetAttr(bib, "source", ref)
	for _, e := range entries {
		entry := b.tree.Create(taxonomy.BibEntry, taxonomy.Content)
		b.tree.Node(entry).Label = e.Key
		b.tree.SetAttr(entry, "type", e.Type)
		for _, f := range e.Fields {
			field := b.tree.CreateContent(taxonomy.BibField, f.Value)
			b.tree.SetAttr(field, "name", f.Name)
			b.tree.Append(entry, field)
		}
		b.tree.Append(bib, entry)
	}
	// The bibliography belongs to the document, not the current scope.
	b.tree.Append(b.stack.Root(), bib)
	return nil
}

// level closes open levels at the same or a deeper depth, then opens a new
// one with its title.
func (b *Builder) level(m *lexer.Macro, species string) error {
	depth, _ := taxonomy.LevelDepth(species)
	b.closeSwitches(1)
	b.stack.PopWhile(func(n *doctree.Node) bool {
		d, ok := taxonomy.LevelDepth(n.Species)
		return ok && d >= depth
	})
	id := b.node(m, species)
	if m.Opt != nil {
		b.tree.SetAttr(id, "options", m.Opt.Inner())
	}
	b.stack.Push(id)
	b.log.Debug("open level", "species", species, "depth", depth)
	if len(m.Args) > 0 {
		return b.title(m.Args[0].Body)
	}
	return nil
}

// heading is an unnumbered level: it carries a title but opens no scope.
func (b *Builder) heading(m *lexer.Macro, species string) error {
	id := b.node(m, species)
	if len(m.Args) == 0 {
		b.stack.Attach(id)
		return nil
	}
	b.stack.Push(id)
	if err := b.title(m.Args[0].Body); err != nil {
		return err
	}
	b.stack.CloseTo(id)
	return nil
}

// item closes the previous item of the same list, so items are siblings.
func (b *Builder) item(m *lexer.Macro, species string) error {
	b.closeSwitches(1)
	if b.stack.TopNode().Genus() == "item" {
		b.stack.Pop()
	}
	id := b.node(m, species)
	b.stack.Push(id)
	if m.Opt == nil {
		return nil
	}
	if s, ok := m.Opt.Text(); ok {
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			b.stack.Attach(b.tree.CreateContent(taxonomy.Points, strings.TrimSpace(s)))
			return nil
		}
	}
	b.tree.SetAttr(id, "marker", m.Opt.Inner())
	return nil
}

func (b *Builder) leaf(m *lexer.Macro, species, genus string) {
	id := b.node(m, species)
	var (
		glyph string
		ok    bool
	)
	switch genus {
	case "escaped":
		glyph, ok = taxonomy.DecodeEscaped(species)
	case "space":
		glyph, ok = taxonomy.DecodeSpace(species)
	}
	if ok {
		b.tree.SetAttr(id, "glyph", glyph)
	}
	if m.Opt != nil {
		b.tree.SetAttr(id, "options", m.Opt.Inner())
	}
	if len(m.Args) > 0 {
		b.tree.SetAttr(id, "args", groupsLatex(m.Args))
	}
	b.stack.Attach(id)
}

// accent decodes an accented character. Only the target character is read;
// the argument is never parsed as general content.
func (b *Builder) accent(m *lexer.Macro, species string) error {
	base, err := textArg(m, 0)
	if err != nil {
		return err
	}
	glyph, ok := taxonomy.DecodeAccent(species, base)
	if !ok {
		b.log.Warn("unknown accent", "accent", species, "base", base)
		glyph = base
	}
	id := b.node(m, species)
	b.tree.SetAttr(id, "base", base)
	b.tree.SetAttr(id, "glyph", glyph)
	b.stack.Attach(id)
	return nil
}

func (b *Builder) subfigure(m *lexer.Macro, species string) error {
	id := b.node(m, species)
	b.stack.Push(id)
	if m.Opt != nil {
		if err := b.title(m.Opt.Body); err != nil {
			return err
		}
	}
	for _, g := range m.Args {
		if err := b.parse(g.Body); err != nil {
			return err
		}
	}
	b.stack.CloseTo(id)
	return nil
}

func (b *Builder) media(m *lexer.Macro, species string) error {
	src, err := textArg(m, 0)
	if err != nil {
		return err
	}
	id := b.node(m, species)
	n := b.tree.Node(id)
	n.Content = src
	n.Width = defaultWidth
	if m.Opt != nil {
		opts := m.Opt.Inner()
		b.tree.SetAttr(id, "options", opts)
		n.Width = mediaWidth(opts, b.opts.LineWidthMM)
	}
	b.stack.Attach(id)
	return nil
}

// xref builds a reference or hyperlink. The target goes in the content;
// the anchor text of two-part links becomes children.
func (b *Builder) xref(m *lexer.Macro, species string) error {
	var (
		target string
		anchor *lexer.Group
		err    error
	)
	switch species {
	case "hyperref":
		if m.Opt == nil {
			return fmt.Errorf("%w: \\hyperref needs a [label]", texerr.ErrMacroArityMismatch)
		}
		s, ok := m.Opt.Text()
		if !ok {
			return fmt.Errorf("%w: \\hyperref label must be text", texerr.ErrLexicalTypeMismatch)
		}
		target = strings.TrimSpace(s)
		if len(m.Args) > 0 {
			anchor = m.Args[0]
		}
	case "href":
		if target, err = textArg(m, 0); err != nil {
			return err
		}
		if err := arity(m, 2); err != nil {
			return err
		}
		anchor = m.Args[1]
	default:
		if target, err = textArg(m, 0); err != nil {
			return err
		}
	}
	id := b.node(m, species)
	b.tree.Node(id).Content = target
	if m.Opt != nil && species != "hyperref" {
		b.tree.SetAttr(id, "options", m.Opt.Inner())
	}
	if anchor == nil {
		b.stack.Attach(id)
		return nil
	}
	return b.parseInto(id, anchor.Body)
}

// generic handles every other macro: its mandatory arguments are parsed as
// its children.
func (b *Builder) generic(m *lexer.Macro, species string) error {
	if !taxonomy.IsRegistered(species) {
		b.log.Debug("unregistered macro", "name", m.Name)
	}
	id := b.node(m, species)
	if m.Opt != nil {
		b.tree.SetAttr(id, "options", m.Opt.Inner())
	}
	if len(m.Args) == 0 {
		b.stack.Attach(id)
		return nil
	}
	b.stack.Push(id)
	for _, g := range m.Args {
		if err := b.parse(g.Body); err != nil {
			return err
		}
	}
	b.stack.CloseTo(id)
	return nil
}

func groupsLatex(gs []*lexer.Group) string {
	var s strings.Builder
	for _, g := range gs {
		s.WriteString(g.Latex())
	}
	return s.String()
}

const defaultWidth = 30

var (
	relativeWidth = regexp.MustCompile(`^([0-9]*\.?[0-9]*)\s*\\(?:linewidth|textwidth|columnwidth)$`)
	absoluteWidth = regexp.MustCompile(`^([0-9]*\.?[0-9]+)\s*(mm|cm|in|pt|em|ex)$`)
)

// millimetres per unit
var unitMM = map[string]float64{
	"mm": 1,
	"cm": 10,
	"in": 25.4,
	"pt": 0.3515,
	"em": 4.2,
	"ex": 1.9,
}

// mediaWidth estimates a width percentage from graphics options such as
// "scale=0.5" or "width=8cm". Unreadable options give the default.
func mediaWidth(opts string, lineMM float64) int {
	for _, kv := range strings.Split(opts, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.TrimSpace(k) {
		case "scale":
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return int(100 * f)
			}
		case "width":
			if m := relativeWidth.FindStringSubmatch(v); m != nil {
				f := 1.0
				if m[1] != "" {
					var err error
					if f, err = strconv.ParseFloat(m[1], 64); err != nil {
						return defaultWidth
					}
				}
				return int(100 * f)
			}
			if m := absoluteWidth.FindStringSubmatch(v); m != nil {
				f, err := strconv.ParseFloat(m[1], 64)
				if err != nil {
					return defaultWidth
				}
				return int(100 * f * unitMM[m[2]] / lineMM)
			}
		}
	}
	return defaultWidth
}

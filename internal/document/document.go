// Package document runs the whole pipeline from source file to finished
// tree: inclusion, preprocessing, tokenizing, preamble capture, building and
// post-processing.
package document

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/dgallion1/texgest/internal/bibtex"
	"github.com/dgallion1/texgest/internal/builder"
	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/include"
	"github.com/dgallion1/texgest/internal/lexer"
	"github.com/dgallion1/texgest/internal/markup"
	"github.com/dgallion1/texgest/internal/postprocess"
	"github.com/dgallion1/texgest/internal/preprocess"
	"github.com/dgallion1/texgest/internal/serialize"
	"github.com/dgallion1/texgest/internal/taxonomy"
	"github.com/dgallion1/texgest/internal/texerr"
)

// Options configure Parse and ParseFile.
type Options struct {
	// Build is passed to the builder. SourcePath and Bibliography are
	// filled in when left empty.
	Build builder.Options
	// ReadFile reads included files and bibliographies. Defaults to
	// os.ReadFile.
	ReadFile include.ReadFunc
	// MaxIncludeDepth caps \input nesting. Defaults to include.DefaultMaxDepth.
	MaxIncludeDepth int
	Logger          *slog.Logger
}

// Preamble holds the settings captured before \begin{document}.
type Preamble struct {
	DocumentClass string   `json:"documentclass,omitempty" yaml:"documentclass,omitempty"`
	Title         string   `json:"title,omitempty" yaml:"title,omitempty"`
	Author        string   `json:"author,omitempty" yaml:"author,omitempty"`
	Date          string   `json:"date,omitempty" yaml:"date,omitempty"`
	Institution   string   `json:"institution,omitempty" yaml:"institution,omitempty"`
	ModuleCode    string   `json:"modulecode,omitempty" yaml:"modulecode,omitempty"`
	ModuleTitle   string   `json:"moduletitle,omitempty" yaml:"moduletitle,omitempty"`
	AcademicYear  string   `json:"academicyear,omitempty" yaml:"academicyear,omitempty"`
	GraphicsPath  string   `json:"graphicspath,omitempty" yaml:"graphicspath,omitempty"`
	Packages      []string `json:"packages,omitempty" yaml:"packages,omitempty"`
	NewCommands   []string `json:"newcommands,omitempty" yaml:"newcommands,omitempty"`
}

// Document is a built LaTeX document.
type Document struct {
	Path     string
	Source   string // after inclusion and preprocessing
	Preamble Preamble
	Tree     *doctree.Tree
	Root     doctree.NodeID
	Xrefs    map[string]*doctree.Node
	Images   []*doctree.Node
	Videos   []*doctree.Node
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o *Options) resolver() *include.Resolver {
	return &include.Resolver{ReadFile: o.ReadFile, MaxDepth: o.MaxIncludeDepth, Logger: o.Logger}
}

// ParseFile reads the document at path, following inclusions, and builds it.
func ParseFile(path string, opts Options) (*Document, error) {
	src, err := opts.resolver().Read(path)
	if err != nil {
		return nil, err
	}
	return build(src, path, opts)
}

// Parse builds a document from source text. path locates the source for
// inclusions and bibliographies; it may be empty when the source refers to
// no other file.
func Parse(src, path string, opts Options) (*Document, error) {
	src, err := opts.resolver().Expand(src, path)
	if err != nil {
		return nil, err
	}
	return build(src, path, opts)
}

func build(src, path string, opts Options) (*Document, error) {
	log := opts.logger()
	src, err := preprocess.Source(src)
	if err != nil {
		return nil, err
	}
	nodes, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}

	bopts := opts.Build
	if bopts.SourcePath == "" {
		bopts.SourcePath = path
	}
	if bopts.Bibliography == nil {
		bopts.Bibliography = bibReader(opts.ReadFile)
	}
	if bopts.Logger == nil {
		bopts.Logger = opts.Logger
	}

	d := &Document{Path: path, Source: src, Preamble: capturePreamble(nodes), Tree: doctree.New()}
	species, body := taxonomy.Root, nodes
	if env := findDocument(nodes); env != nil {
		body = env.Body
		if taxonomy.InGenus(d.Preamble.DocumentClass, "document") {
			species = d.Preamble.DocumentClass
		}
	}
	log.Debug("building document", "path", path, "root", species, "nodes", len(body))

	d.Root, err = builder.Build(d.Tree, species, body, bopts)
	if err != nil {
		return nil, err
	}
	d.Xrefs = postprocess.Run(d.Tree, d.Root)
	d.Images = d.Tree.Phenotypes(d.Root, "includegraphics")
	d.Videos = d.Tree.Phenotypes(d.Root, "includevideo")
	log.Info("document built", "path", path, "nodes", d.Tree.Len(), "labels", len(d.Xrefs))
	return d, nil
}

func bibReader(read include.ReadFunc) builder.BibLoader {
	if read == nil {
		read = os.ReadFile
	}
	return func(path string) ([]bibtex.Entry, error) {
		data, err := read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", texerr.ErrUnresolvedExternalReference, path)
			}
			return nil, err
		}
		return bibtex.Parse(string(data))
	}
}

func findDocument(nodes []lexer.Node) *lexer.Environment {
	for _, n := range nodes {
		if env, ok := n.(*lexer.Environment); ok && env.Name == "document" {
			return env
		}
	}
	return nil
}

// capturePreamble records the settings macros found at the top level of the
// source. Later definitions win.
func capturePreamble(nodes []lexer.Node) Preamble {
	var p Preamble
	for _, n := range nodes {
		m, ok := n.(*lexer.Macro)
		if !ok {
			continue
		}
		switch m.Name {
		case "newcommand", "renewcommand", "providecommand":
			p.NewCommands = append(p.NewCommands, m.Raw)
		case "usepackage":
			for _, pkg := range strings.Split(argText(m), ",") {
				if pkg = strings.TrimSpace(pkg); pkg != "" {
					p.Packages = append(p.Packages, pkg)
				}
			}
		case "documentclass":
			p.DocumentClass = argText(m)
		case "title":
			p.Title = argText(m)
		case "author":
			p.Author = argText(m)
		case "date":
			p.Date = argText(m)
		case "institution":
			p.Institution = argText(m)
		case "modulecode":
			p.ModuleCode = argText(m)
		case "moduletitle":
			p.ModuleTitle = argText(m)
		case "academicyear":
			p.AcademicYear = argText(m)
		case "graphicspath":
			p.GraphicsPath = argText(m)
		}
	}
	return p
}

// argText is the text of the first mandatory argument. A group nested
// directly inside it, as in \graphicspath{{figures/}}, is unwrapped.
func argText(m *lexer.Macro) string {
	if len(m.Args) == 0 {
		return ""
	}
	g := m.Args[0]
	if len(g.Body) == 1 {
		if inner, ok := g.Body[0].(*lexer.Group); ok {
			g = inner
		}
	}
	if s, ok := g.Text(); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(g.Inner())
}

// Latex reconstructs the source of the document body.
func (d *Document) Latex() string {
	return serialize.Latex(d.Tree, d.Root)
}

// Outline is the nested view of the whole tree.
func (d *Document) Outline() *doctree.Outline {
	return d.Tree.Outline(d.Root)
}

// Markup renders the element dump of the tree.
func (d *Document) Markup() (string, error) {
	return markup.String(d.Tree, d.Root)
}

// Phenotypes lists the nodes of a species in document order.
func (d *Document) Phenotypes(species string) []*doctree.Node {
	return d.Tree.Phenotypes(d.Root, species)
}

// Xref describes one labelled node.
type Xref struct {
	Label   string `json:"label" yaml:"label"`
	Species string `json:"species" yaml:"species"`
	Number  int    `json:"number,omitempty" yaml:"number,omitempty"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
}

// XrefList returns the cross-reference table sorted by label.
func (d *Document) XrefList() []Xref {
	out := make([]Xref, 0, len(d.Xrefs))
	for label, n := range d.Xrefs {
		out = append(out, Xref{
			Label:   label,
			Species: n.Species,
			Number:  n.Number,
			Title:   d.Tree.TitleText(n.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Summary is the serializable result of a build.
type Summary struct {
	Path     string           `json:"path,omitempty" yaml:"path,omitempty"`
	Preamble Preamble         `json:"preamble" yaml:"preamble"`
	Xrefs    []Xref           `json:"xrefs,omitempty" yaml:"xrefs,omitempty"`
	Images   []string         `json:"images,omitempty" yaml:"images,omitempty"`
	Videos   []string         `json:"videos,omitempty" yaml:"videos,omitempty"`
	Tree     *doctree.Outline `json:"tree" yaml:"tree"`
}

// Summarize collects the preamble, xrefs, media sources and outline.
func (d *Document) Summarize() *Summary {
	s := &Summary{
		Path:     d.Path,
		Preamble: d.Preamble,
		Xrefs:    d.XrefList(),
		Tree:     d.Outline(),
	}
	for _, n := range d.Images {
		s.Images = append(s.Images, n.Content)
	}
	for _, n := range d.Videos {
		s.Videos = append(s.Videos, n.Content)
	}
	return s
}

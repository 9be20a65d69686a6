// Package taxonomy holds the static classification tables for LaTeX constructs.
//
// Constructs are partitioned into genera (e.g. "level", "list") and the
// constructs themselves are called species (e.g. "chapter", "itemize"). Each
// genus belongs to one family, the coarse capability tag carried by tree nodes.
// The tables are fixed at init and never mutated afterwards.
package taxonomy

import "strings"

// Category is the capability tag of a tree node.
type Category int

const (
	Unregistered Category = iota
	Macro
	Environment
	Switch
	Content
)

func (c Category) String() string {
	switch c {
	case Macro:
		return "macro"
	case Environment:
		return "environment"
	case Switch:
		return "switch"
	case Content:
		return "content"
	}
	return "unregistered"
}

// Species synthesized by the builder rather than named in the source.
const (
	Root     = "#root"
	Text     = "#text"
	Break    = "#break"
	Comment  = "#comment"
	Math     = "#math"
	Title    = "title"
	Points   = "points"
	Row      = "row"
	Cell     = "cell"
	BibEntry = "bibentry"
	BibField = "bibfield"
)

type genus struct {
	name    string
	species []string
}

// Order matters: a species listed in two genera belongs to the first one.
var contentGenera = []genus{
	{"text", []string{Text, Break, Comment}},
	{"latex", []string{Math}},
	{"title", []string{Title}},
	{"points", []string{Points}},
	{"grid", []string{Row, Cell}},
	{"bibentry", []string{BibEntry, BibField}},
	{"root", []string{Root}},
}

var macroGenera = []genus{
	{"level", []string{"chapter", "section", "subsection", "subsubsection", "bibliography"}},
	{"heading", []string{"chapterstar", "sectionstar", "subsectionstar", "subsubsectionstar"}},
	{"item", []string{"item", "bibitem", "question", "part", "subpart", "subsubpart", "correct", "incorrect"}},
	{"break", []string{"par", "vspace", "smallskip", "medskip", "bigskip", "newline", "\\"}},
	{"xref", []string{"ref", "pageref", "autoref", "nameref", "cite", "hyperref"}},
	{"href", []string{"url", "href"}},
	{"media", []string{"includegraphics", "includevideo"}},
	{"language", []string{"eng", "wel"}},
	{"style", []string{"emph", "textbf", "textit", "texttt", "textsl", "textsc", "underline"}},
	{"space", []string{"hspace", "quad", "qquad", " ", ","}},
	{"counter", []string{"newcounter", "setcounter"}},
	{"preamble", []string{"documentclass", "usepackage", "author", "date", "institution", "providecommand", "newcommand", "renewcommand"}},
	{"accent", []string{"'", "`", "\"", "^", "c", "~"}},
	{"escaped", []string{"$", "%", "&", "{", "}", "(", ")", "#", "_", "pounds"}},
	{"feedback", []string{"resp"}},
	{"pre", []string{"eqref"}},
	{"misc", []string{"subfigure", "caption", "footnote"}},
}

var environmentGenera = []genus{
	{"document", []string{"book", "article", "report", "standalone"}},
	{"list", []string{"itemize", "enumerate", "description", "thebibliography", "questions", "parts", "subparts", "choices", "checkboxes"}},
	{"theorem", []string{"theorem", "lemma", "proposition", "corollary", "definition", "remark", "example", "note"}},
	{"float", []string{"table", "figure", "video"}},
	{"hidden", []string{"proof", "solution", "answer", "hint"}},
	{"box", []string{"abstract", "framed", "center", "quote", "minipage", "response"}},
	{"task", []string{"exercise", "quiz"}},
	{"language", []string{"english", "welsh"}},
	{"tabular", []string{"tabular", "tabbing"}},
	{"picture", []string{"picture", "tikzpicture", "pspicture"}},
	{"dispmath", []string{"displaymath", "equation", "eqnarray", "align", "gather", "multline", "equation*", "eqnarray*", "align*", "gather*", "multline*"}},
	{"pre", []string{"verbatim", "lstlisting"}},
	{"markdown", []string{"markdown"}},
}

var switchGenera = []genus{
	{"style", []string{"bf", "it", "tt", "sl", "sc", "normalfont"}},
	{"language", []string{"cy", "en", "fr", "de", "bi"}},
}

// Genera and species that receive numbers and accept labels.
var (
	numberedGenera  = map[string]bool{"level": true, "theorem": true, "float": true, "item": true, "task": true}
	numberedSpecies = map[string]bool{"subfigure": true}
)

var counters = []string{
	"chapter",
	"section",
	"subsection",
	"theorem",
	"figure",
	"subfigure",
	"table",
	"subtable",
	"video",
	"task",
}

var levelDepth = map[string]int{
	"chapter":       0,
	"section":       1,
	"subsection":    2,
	"subsubsection": 3,
}

type entry struct {
	genus    string
	category Category
}

var registry = map[string]entry{}

func register(gs []genus, c Category) {
	for _, g := range gs {
		for _, s := range g.species {
			if _, ok := registry[s]; !ok {
				registry[s] = entry{genus: g.name, category: c}
			}
		}
	}
}

func init() {
	register(contentGenera, Content)
	register(macroGenera, Macro)
	register(environmentGenera, Environment)
	register(switchGenera, Switch)
}

// FamilyOf returns the category registered for species, or Unregistered.
func FamilyOf(species string) Category {
	return registry[species].category
}

// GenusOf returns the genus of species, or "" if it is not registered.
func GenusOf(species string) string {
	return registry[species].genus
}

// IsRegistered reports whether species appears in any table.
func IsRegistered(species string) bool {
	_, ok := registry[species]
	return ok
}

// InGenus reports whether species is registered under genus.
func InGenus(species, genus string) bool {
	e, ok := registry[species]
	return ok && e.genus == genus
}

// IsEnvironmentName reports whether name is a registered environment species.
func IsEnvironmentName(name string) bool {
	return FamilyOf(name) == Environment
}

// IsNumbered reports whether name, taken as a genus or a species, is numbered.
func IsNumbered(name string) bool {
	return numberedGenera[name] || numberedSpecies[name]
}

// NodeIsNumbered reports whether a node of the given species is a numbered
// construct, matching either its species or its genus.
func NodeIsNumbered(species string) bool {
	return numberedSpecies[species] || numberedGenera[GenusOf(species)]
}

// CounterKey returns the counter a node of the given species advances, or ""
// when it is not counter tracked. A species counter wins over a genus counter.
func CounterKey(species string) string {
	for _, c := range counters {
		if c == species {
			return c
		}
	}
	g := GenusOf(species)
	for _, c := range counters {
		if c == g {
			return c
		}
	}
	return ""
}

// Counters returns the counter-tracked names in declaration order.
func Counters() []string {
	out := make([]string, len(counters))
	copy(out, counters)
	return out
}

// LevelDepth returns the nesting depth of a sectioning species.
func LevelDepth(species string) (int, bool) {
	d, ok := levelDepth[species]
	return d, ok
}

// SwitchKind returns the switch subcategory ("style" or "language") of species.
func SwitchKind(species string) string {
	if FamilyOf(species) != Switch {
		return ""
	}
	return GenusOf(species)
}

// StarredSpecies maps a starred sectioning macro to its heading species,
// e.g. "section*" to "sectionstar". Other names are returned unchanged.
func StarredSpecies(name string) string {
	base, ok := strings.CutSuffix(name, "*")
	if !ok {
		return name
	}
	if InGenus(base, "level") {
		return base + "star"
	}
	return name
}

// UnstarredName reverses StarredSpecies for heading species.
func UnstarredName(species string) string {
	if InGenus(species, "heading") {
		return strings.TrimSuffix(species, "star") + "*"
	}
	return species
}

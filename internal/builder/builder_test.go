package builder

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/dgallion1/texgest/internal/bibtex"
	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/lexer"
	"github.com/dgallion1/texgest/internal/mathasm"
	"github.com/dgallion1/texgest/internal/taxonomy"
	"github.com/dgallion1/texgest/internal/texerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, src string, opts Options) (*doctree.Tree, doctree.NodeID) {
	t.Helper()
	nodes, err := lexer.Tokenize(src)
	require.NoError(t, err)
	tr := doctree.New()
	root, err := Build(tr, taxonomy.Root, nodes, opts)
	require.NoError(t, err)
	return tr, root
}

func buildErr(src string, opts Options) error {
	nodes, err := lexer.Tokenize(src)
	if err != nil {
		return err
	}
	_, err = Build(doctree.New(), taxonomy.Root, nodes, opts)
	return err
}

// structural returns the species of id's children, skipping text and breaks.
func structural(tr *doctree.Tree, id doctree.NodeID) []string {
	var out []string
	for _, c := range tr.Node(id).Children {
		s := tr.Node(c).Species
		if s == taxonomy.Text || s == taxonomy.Break {
			continue
		}
		out = append(out, s)
	}
	return out
}

func only(t *testing.T, tr *doctree.Tree, id doctree.NodeID, species string) []*doctree.Node {
	t.Helper()
	var out []*doctree.Node
	for _, c := range tr.Node(id).Children {
		if n := tr.Node(c); n.Species == species {
			out = append(out, n)
		}
	}
	return out
}

func TestCharsSplitOnBlankLines(t *testing.T) {
	tr, root := build(t, "one\ntwo\n\n  \nthree", Options{})
	kids := tr.Node(root).Children
	require.Len(t, kids, 3)
	assert.Equal(t, "one\ntwo", tr.Node(kids[0]).Content)
	assert.Equal(t, taxonomy.Break, tr.Node(kids[1]).Species)
	assert.Equal(t, "\n\n  \n", tr.Node(kids[1]).Content)
	assert.Equal(t, "three", tr.Node(kids[2]).Content)
}

func TestListFlushesLastItem(t *testing.T) {
	tr, root := build(t, "\\begin{itemize}\n\\item a\n\\item b\n\\item c\n\\end{itemize}", Options{})
	lists := only(t, tr, root, "itemize")
	require.Len(t, lists, 1)
	items := only(t, tr, lists[0].ID, "item")
	require.Len(t, items, 3)
	assert.Equal(t, " c\n", tr.Node(items[2].Children[0]).Content)
}

func TestNestedLists(t *testing.T) {
	src := `\begin{enumerate}\item a \begin{itemize}\item x \item y\end{itemize}\item b\end{enumerate}`
	tr, root := build(t, src, Options{})
	outer := only(t, tr, root, "enumerate")[0]
	items := only(t, tr, outer.ID, "item")
	require.Len(t, items, 2)
	inner := only(t, tr, items[0].ID, "itemize")
	require.Len(t, inner, 1)
	assert.Len(t, only(t, tr, inner[0].ID, "item"), 2)
}

func TestItemOptions(t *testing.T) {
	tr, root := build(t, `\begin{questions}\question[5] Q1 \item[a)] Q2\end{questions}`, Options{})
	list := only(t, tr, root, "questions")[0]
	kids := structural(tr, list.ID)
	require.Equal(t, []string{"question", "item"}, kids)

	q := tr.Node(list.Children[0])
	p := tr.FirstChild(q.ID, taxonomy.Points)
	require.NotEqual(t, doctree.None, p)
	assert.Equal(t, "5", tr.Node(p).Content)

	it := tr.Node(list.Children[1])
	assert.Equal(t, "a)", it.Attr("marker"))
}

func TestSwitchSiblings(t *testing.T) {
	tr, root := build(t, `{\bf bold \it italic}`, Options{})
	kids := tr.Node(root).Children
	require.Len(t, kids, 2)
	bf, it := tr.Node(kids[0]), tr.Node(kids[1])
	assert.Equal(t, "bf", bf.Species)
	assert.Equal(t, "it", it.Species)
	assert.Equal(t, taxonomy.Switch, bf.Category)
	assert.Equal(t, root, it.Parent)
	assert.Equal(t, " bold ", tr.Node(bf.Children[0]).Content)
}

func TestSwitchInGroupKeepsOuterSwitch(t *testing.T) {
	tr, root := build(t, `\bf a {\it b} c`, Options{})
	kids := tr.Node(root).Children
	require.Len(t, kids, 1)
	bf := tr.Node(kids[0])
	assert.Equal(t, "bf", bf.Species)
	require.Len(t, bf.Children, 3)
	assert.Equal(t, " a ", tr.Node(bf.Children[0]).Content)
	it := tr.Node(bf.Children[1])
	assert.Equal(t, "it", it.Species)
	require.Len(t, it.Children, 1)
	assert.Equal(t, " b", tr.Node(it.Children[0]).Content)
	after := tr.Node(bf.Children[2])
	assert.Equal(t, taxonomy.Text, after.Species)
	assert.Equal(t, " c", after.Content)
}

func TestSwitchKindsNest(t *testing.T) {
	tr, root := build(t, `{\bf x \cy y} z`, Options{})
	bf := tr.Node(tr.Node(root).Children[0])
	assert.Equal(t, "bf", bf.Species)
	assert.Equal(t, []string{"cy"}, structural(tr, bf.ID))
	assert.Equal(t, " z", tr.Node(tr.Node(root).Children[1]).Content)
}

func TestSwitchClosesAtEnvironmentEnd(t *testing.T) {
	tr, root := build(t, `\begin{center}\bf x\end{center} after`, Options{})
	center := only(t, tr, root, "center")[0]
	assert.Equal(t, []string{"bf"}, structural(tr, center.ID))
	assert.Equal(t, " after", tr.Node(tr.Node(root).Children[1]).Content)
}

func TestLevels(t *testing.T) {
	src := `\chapter{A}\section{A1}\subsection{A1a}\section{A2}\chapter{B}\section{B1}`
	tr, root := build(t, src, Options{})
	chapters := only(t, tr, root, "chapter")
	require.Len(t, chapters, 2)
	assert.Equal(t, []string{taxonomy.Title, "section", "section"}, structural(tr, chapters[0].ID))
	assert.Equal(t, []string{taxonomy.Title, "section"}, structural(tr, chapters[1].ID))
	a1 := only(t, tr, chapters[0].ID, "section")[0]
	assert.Equal(t, []string{taxonomy.Title, "subsection"}, structural(tr, a1.ID))
}

func TestLevelTitle(t *testing.T) {
	tr, root := build(t, `\section[Short]{A \emph{long} title}`, Options{})
	sec := only(t, tr, root, "section")[0]
	title := tr.FirstChild(sec.ID, taxonomy.Title)
	require.NotEqual(t, doctree.None, title)
	assert.Equal(t, "A long title", tr.PlainText(title))
	assert.Equal(t, "Short", sec.Attr("options"))
}

func TestStarredLevelIsHeading(t *testing.T) {
	tr, root := build(t, `\section{A}\section*{Notes} text`, Options{})
	sec := only(t, tr, root, "section")[0]
	assert.Equal(t, []string{taxonomy.Title, "sectionstar"}, structural(tr, sec.ID))
}

func TestLabelAttachment(t *testing.T) {
	t.Run("three groups inside theorem", func(t *testing.T) {
		tr, root := build(t, `\begin{theorem}{{{\label{deep}}}}\end{theorem}`, Options{})
		thm := only(t, tr, root, "theorem")[0]
		assert.Equal(t, "deep", thm.Label)
	})
	t.Run("caption inside figure", func(t *testing.T) {
		tr, root := build(t, `\begin{figure}\caption{Cap\label{fig:a}}\end{figure}`, Options{})
		assert.Equal(t, "fig:a", only(t, tr, root, "figure")[0].Label)
	})
	t.Run("section title", func(t *testing.T) {
		tr, root := build(t, `\section{Intro\label{sec:i}}`, Options{})
		assert.Equal(t, "sec:i", only(t, tr, root, "section")[0].Label)
	})
	t.Run("no numbered scope", func(t *testing.T) {
		tr, root := build(t, `\begin{center}\label{top}\end{center}`, Options{})
		assert.Equal(t, "top", tr.Node(root).Label)
	})
}

func TestTheoremTitle(t *testing.T) {
	tr, root := build(t, "\\begin{theorem}[Gauss]\nbody\n\\end{theorem}", Options{})
	thm := only(t, tr, root, "theorem")[0]
	title := tr.FirstChild(thm.ID, taxonomy.Title)
	require.NotEqual(t, doctree.None, title)
	assert.Equal(t, "Gauss", tr.PlainText(title))
	assert.Empty(t, thm.Attr("options"))
}

func TestMath(t *testing.T) {
	strict := Options{Math: mathasm.Options{StrictBraces: true}}

	tr, root := build(t, `$x_\alpha$`, strict)
	m := tr.Node(tr.Node(root).Children[0])
	assert.Equal(t, taxonomy.Math, m.Species)
	assert.Equal(t, `$x_{\alpha}$`, m.Content)

	tr, root = build(t, `$x_\alpha$`, Options{})
	assert.Equal(t, `$x_\alpha$`, tr.Node(tr.Node(root).Children[0]).Content)

	tr, root = build(t, `\[ a^2 \]`, Options{})
	d := tr.Node(tr.Node(root).Children[0])
	assert.Equal(t, "displaymath", d.Species)
	assert.Equal(t, `\[ a^2 \]`, d.Content)

	tr, root = build(t, `\begin{equation}E=mc^2\end{equation}`, Options{})
	e := tr.Node(tr.Node(root).Children[0])
	assert.Equal(t, "equation", e.Species)
	assert.Equal(t, `\begin{equation}E=mc^2\end{equation}`, e.Content)
	assert.Empty(t, e.Children)
}

func TestMacroFormEnvironment(t *testing.T) {
	tr, root := build(t, `\itemize \item a \item b \enditemize`, Options{})
	lists := only(t, tr, root, "itemize")
	require.Len(t, lists, 1)
	assert.Len(t, only(t, tr, lists[0].ID, "item"), 2)
}

func TestUnmatchedMathOpenerIsKept(t *testing.T) {
	tr, root := build(t, `\( x`, Options{})
	assert.Equal(t, "(", tr.Node(tr.Node(root).Children[0]).Species)
}

func TestTabular(t *testing.T) {
	src := "\\begin{table}\\begin{tabular}{|lc|cr|}\na & b & c & d \\\\\n\\hline\ne & \\textbf{f} & g & h \\\\\n\\end{tabular}\\label{tab:x}\\end{table}"
	tr, root := build(t, src, Options{})
	table := only(t, tr, root, "table")[0]
	assert.Equal(t, "tab:x", table.Label)
	tab := only(t, tr, table.ID, "tabular")[0]
	require.Len(t, tab.Children, 2)

	rows := []*doctree.Node{tr.Node(tab.Children[0]), tr.Node(tab.Children[1])}
	for _, r := range rows {
		assert.Equal(t, taxonomy.Row, r.Species)
		assert.Len(t, r.Children, 4)
	}
	assert.Equal(t, "", rows[0].Attr("top"))
	assert.Equal(t, "1", rows[1].Attr("top"))

	third := tr.Node(rows[0].Children[2])
	assert.Equal(t, "1", third.Attr("left"))

	f := tr.Node(rows[1].Children[1])
	assert.Equal(t, []string{"textbf"}, structural(tr, f.ID))
	assert.Equal(t, tab.Children[1], f.Parent)
}

func TestLeaves(t *testing.T) {
	tr, root := build(t, `caf\'e \$5 \\[2pt] x\quad y`, Options{})
	var got []*doctree.Node
	for _, c := range tr.Node(root).Children {
		if n := tr.Node(c); n.Category == taxonomy.Macro {
			got = append(got, n)
		}
	}
	require.Len(t, got, 4)
	assert.Equal(t, "é", got[0].Attr("glyph"))
	assert.Equal(t, "e", got[0].Attr("base"))
	assert.Equal(t, "$", got[1].Attr("glyph"))
	assert.Equal(t, `\`, got[2].Species)
	assert.Equal(t, "2pt", got[2].Attr("options"))
	assert.Equal(t, "quad", got[3].Species)
	assert.Contains(t, tr.PlainText(root), "café $5")
}

func TestMediaWidth(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{`\includegraphics{a.png}`, 30},
		{`\includegraphics[scale=0.5]{a.png}`, 50},
		{`\includegraphics[width=0.8\linewidth]{a.png}`, 80},
		{`\includegraphics[width=\textwidth]{a.png}`, 100},
		{`\includegraphics[width=6cm]{a.png}`, 40},
		{`\includegraphics[height=2cm]{a.png}`, 30},
		{`\includegraphics[width=big]{a.png}`, 30},
	}
	for _, tt := range tests {
		tr, root := build(t, tt.src, Options{})
		n := tr.Node(tr.Node(root).Children[0])
		assert.Equal(t, "a.png", n.Content, tt.src)
		assert.Equal(t, tt.want, n.Width, tt.src)
	}
}

func TestReferences(t *testing.T) {
	src := `\ref{sec:a} \href{http://x.org}{the \emph{site}} \hyperref[sec:b]{back} \url{http://y.org}`
	tr, root := build(t, src, Options{})
	kids := structural(tr, root)
	require.Equal(t, []string{"ref", "href", "hyperref", "url"}, kids)

	var nodes []*doctree.Node
	for _, c := range tr.Node(root).Children {
		if n := tr.Node(c); n.Category == taxonomy.Macro {
			nodes = append(nodes, n)
		}
	}
	assert.Equal(t, "sec:a", nodes[0].Content)
	assert.Equal(t, "http://x.org", nodes[1].Content)
	assert.Equal(t, "the site", tr.PlainText(nodes[1].ID))
	assert.Equal(t, "sec:b", nodes[2].Content)
	assert.Equal(t, "back", tr.PlainText(nodes[2].ID))
	assert.Empty(t, nodes[3].Children)
}

func TestSubfigure(t *testing.T) {
	src := `\begin{figure}\subfigure[Left]{\includegraphics{l.png}\label{sf:l}}\end{figure}`
	tr, root := build(t, src, Options{})
	fig := only(t, tr, root, "figure")[0]
	sf := only(t, tr, fig.ID, "subfigure")[0]
	assert.Equal(t, "sf:l", sf.Label)
	assert.Equal(t, []string{taxonomy.Title, "includegraphics"}, structural(tr, sf.ID))
}

func TestPreformatted(t *testing.T) {
	tr, root := build(t, "\\begin{verbatim}\n{\\bf x}\n\\end{verbatim} \\eqref{e1}", Options{})
	v := tr.Node(tr.Node(root).Children[0])
	assert.Equal(t, "verbatim", v.Species)
	assert.Equal(t, "\n{\\bf x}\n", v.Content)
	assert.Empty(t, v.Children)
	eq := tr.Node(tr.Node(root).Children[2])
	assert.Equal(t, "eqref", eq.Species)
	assert.Equal(t, `\eqref{e1}`, eq.Content)
}

func TestMarkdownEnvironment(t *testing.T) {
	tr, root := build(t, "\\begin{markdown}\n# Title\n\ntext\n\\end{markdown}", Options{})
	md := tr.Node(tr.Node(root).Children[0])
	assert.Equal(t, "markdown", md.Species)
	assert.Equal(t, "sectionstar", tr.Node(md.Children[0]).Species)
}

func TestBibliography(t *testing.T) {
	var asked string
	load := func(path string) ([]bibtex.Entry, error) {
		asked = path
		return []bibtex.Entry{{
			Type:   "book",
			Key:    "knuth",
			Fields: []bibtex.Field{{Name: "title", Value: "TAOCP"}},
		}}, nil
	}
	opts := Options{SourcePath: filepath.Join("docs", "main.tex"), Bibliography: load}
	tr, root := build(t, `\section{Refs}\bibliography{refs}`, opts)

	assert.Equal(t, filepath.Join("docs", "refs.bib"), asked)
	bib := only(t, tr, root, "bibliography")
	require.Len(t, bib, 1, "bibliography attaches to the root")
	assert.Equal(t, "refs", bib[0].Attr("source"))
	entry := tr.Node(bib[0].Children[0])
	assert.Equal(t, "knuth", entry.Label)
	assert.Equal(t, "TAOCP", tr.Node(entry.Children[0]).Content)
}

func TestDeterministicIDs(t *testing.T) {
	src := `\section{A}\label{a} text \begin{itemize}\item x\end{itemize}`
	tr1, _ := build(t, src, Options{})
	tr2, _ := build(t, src, Options{})
	require.Equal(t, tr1.Len(), tr2.Len())
	for i := 0; i < tr1.Len(); i++ {
		a, b := tr1.Node(doctree.NodeID(i)), tr2.Node(doctree.NodeID(i))
		assert.Equal(t, a.Species, b.Species)
		assert.Equal(t, a.Parent, b.Parent)
	}
}

type bogus struct{}

func (bogus) Latex() string { return "" }

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
		want error
	}{
		{"label with macro", `\label{\foo}`, Options{}, texerr.ErrLexicalTypeMismatch},
		{"accent on macro", `\'{\i}`, Options{}, texerr.ErrLexicalTypeMismatch},
		{"hyperref without target", `\hyperref{x}`, Options{}, texerr.ErrMacroArityMismatch},
		{"bibliography without location", `\bibliography{refs}`, Options{}, texerr.ErrUnresolvedExternalReference},
		{"bibliography without reader", `\bibliography{refs}`, Options{SourcePath: "main.tex"}, texerr.ErrUnresolvedExternalReference},
		{"bad column spec", `\begin{tabular}{lqz}a\end{tabular}`, Options{}, texerr.ErrMalformedTabularSpec},
		{"bad cell", "\\begin{tabular}{l}\\textbf\\end{tabular}", Options{}, texerr.ErrMacroArityMismatch},
		{"macro form tabular", `\tabular a \endtabular`, Options{}, texerr.ErrMacroArityMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := buildErr(tt.src, tt.opts)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	t.Run("unknown lexical node", func(t *testing.T) {
		root, err := Build(doctree.New(), taxonomy.Root, []lexer.Node{bogus{}}, Options{})
		assert.ErrorIs(t, err, texerr.ErrLexicalTypeMismatch)
		assert.Equal(t, doctree.None, root)
	})
	t.Run("label without argument", func(t *testing.T) {
		_, err := Build(doctree.New(), taxonomy.Root, []lexer.Node{&lexer.Macro{Name: "label"}}, Options{})
		assert.ErrorIs(t, err, texerr.ErrMacroArityMismatch)
	})
	t.Run("bibliography reader failure", func(t *testing.T) {
		boom := errors.New("missing file")
		opts := Options{SourcePath: "main.tex", Bibliography: func(string) ([]bibtex.Entry, error) { return nil, boom }}
		assert.ErrorIs(t, buildErr(`\bibliography{refs}`, opts), boom)
	})
}

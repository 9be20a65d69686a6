package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/taxonomy"
)

func TestString(t *testing.T) {
	tr := doctree.New()
	root := tr.Create(taxonomy.Root, taxonomy.Content)
	sec := tr.Create("section", taxonomy.Macro)
	title := tr.Create(taxonomy.Title, taxonomy.Content)
	tr.Append(title, tr.CreateContent(taxonomy.Text, "Getting Started"))
	tr.Append(sec, title)
	tr.Node(sec).Title = title
	tr.Node(sec).Number = 2
	tr.Node(sec).Label = "sec:start"
	tr.Append(sec, tr.CreateContent(taxonomy.Text, "a < b"))
	tr.Append(sec, tr.CreateContent(taxonomy.Comment, " note"))
	nl := tr.Create(`\\`, taxonomy.Macro)
	tr.Append(sec, nl)
	eq := tr.Create("equation*", taxonomy.Environment)
	tr.Node(eq).Content = "x^2"
	tr.Append(sec, eq)
	tr.Append(root, sec)

	got, err := String(tr, root)
	require.NoError(t, err)
	assert.Equal(t,
		`<root><section number="2" label="sec:start" title="getting-started"><title>Getting Started</title>a &lt; b<!-- note--><symbol name="\\"></symbol><equationstar>x^2</equationstar></section></root>`,
		got)
}

func TestAttrsSorted(t *testing.T) {
	tr := doctree.New()
	cell := tr.Create(taxonomy.Cell, taxonomy.Content)
	tr.SetAttr(cell, "right", "|")
	tr.SetAttr(cell, "align", "c")

	got, err := String(tr, cell)
	require.NoError(t, err)
	assert.Equal(t, `<cell align="c" right="|"></cell>`, got)
}

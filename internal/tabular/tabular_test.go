package tabular

import (
	"errors"
	"testing"

	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/taxonomy"
	"github.com/dgallion1/texgest/internal/texerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	cols, err := ParseSpec("|lc|cr|")
	require.NoError(t, err)
	require.Len(t, cols, 4)
	assert.Equal(t, Column{Align: "l", Left: 1}, cols[0])
	assert.Equal(t, Column{Align: "c"}, cols[1])
	assert.Equal(t, Column{Align: "c", Left: 1}, cols[2])
	assert.Equal(t, Column{Align: "r", Right: 1}, cols[3])
}

func TestParseSpecExtended(t *testing.T) {
	cols, err := ParseSpec("@{}p{3cm}||*{2}{c}@{}")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "p", cols[0].Align)
	assert.Equal(t, "3cm", cols[0].Width)
	assert.Equal(t, 2, cols[1].Left)
	assert.Equal(t, "c", cols[2].Align)
}

func TestParseSpecErrors(t *testing.T) {
	for _, spec := range []string{"", "||", "lqr", "p", "p{3cm", "*{x}{c}", "*{-1}{c}"} {
		_, err := ParseSpec(spec)
		assert.True(t, errors.Is(err, texerr.ErrMalformedTabularSpec), "spec %q: %v", spec, err)
	}
}

func TestParseSpecRepeatLimits(t *testing.T) {
	cols, err := ParseSpec("*{1000}{l}")
	require.NoError(t, err)
	assert.Len(t, cols, MaxRepeat)

	for _, spec := range []string{"*{20000000}{l}", "*{1001}{c}", "*{1000}{*{1000}{l}}"} {
		_, err := ParseSpec(spec)
		assert.ErrorIs(t, err, texerr.ErrMalformedTabularSpec, spec)
	}
}

func TestSplitRows(t *testing.T) {
	rows := SplitRows(`a & b & c & d \\ \hline e & f & g & h \\`)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b", "c", "d"}, rows[0].Cells)
	assert.Equal(t, 0, rows[0].Top)
	assert.Equal(t, 1, rows[1].Top)
	assert.Equal(t, []string{"e", "f", "g", "h"}, rows[1].Cells)
}

func TestSplitRowsTrailingRule(t *testing.T) {
	rows := SplitRows("\\hline\nx & y \\\\\n\\hline\\hline\n")
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Top)
	assert.Equal(t, 2, rows[0].Bottom)
}

func TestSplitRowsEscapesAndGroups(t *testing.T) {
	rows := SplitRows(`A \& B & {x & y} \\[2pt] z`)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{`A \& B`, `{x & y}`}, rows[0].Cells)
	assert.Equal(t, []string{"z"}, rows[1].Cells)
}

func TestBuild(t *testing.T) {
	tr := doctree.New()
	cols, err := ParseSpec("|lc|cr|")
	require.NoError(t, err)

	var seen []string
	fill := func(cell doctree.NodeID, text string) error {
		seen = append(seen, text)
		tr.Append(cell, tr.CreateContent(taxonomy.Text, text))
		return nil
	}
	tab, err := Build(tr, "tabular", "|lc|cr|", cols, `a & b & c & d \\ \hline e & f & g & h \\`, fill)
	require.NoError(t, err)

	n := tr.Node(tab)
	assert.Equal(t, taxonomy.Environment, n.Category)
	assert.Equal(t, "|lc|cr|", n.Attr("spec"))
	require.Len(t, n.Children, 2)
	for _, r := range n.Children {
		assert.Equal(t, taxonomy.Row, tr.Node(r).Species)
		assert.Len(t, tr.Node(r).Children, 4)
	}
	second := tr.Node(n.Children[1])
	assert.Equal(t, "1", second.Attr("top"))

	third := tr.Node(tr.Node(n.Children[0]).Children[2])
	assert.Equal(t, "1", third.Attr("left"))
	assert.Equal(t, "c", third.Attr("align"))
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, seen)
}

func TestBuildPropagatesCellErrors(t *testing.T) {
	tr := doctree.New()
	boom := errors.New("boom")
	_, err := Build(tr, "tabular", "l", []Column{{Align: "l"}}, "x", func(doctree.NodeID, string) error { return boom })
	assert.ErrorIs(t, err, boom)
}

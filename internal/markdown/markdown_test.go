package markdown

import (
	"testing"

	"github.com/dgallion1/texgest/internal/doctree"
	"github.com/dgallion1/texgest/internal/taxonomy"
)

func TestConvert(t *testing.T) {
	src := "# Overview\n\nSome *text* here.\n\n- one\n- two\n\n```go\nx := 1\n```\n"
	tr := doctree.New()
	root := tr.Create("markdown", taxonomy.Environment)
	Convert(tr, root, src)

	var species []string
	for _, c := range tr.Node(root).Children {
		species = append(species, tr.Node(c).Species)
	}
	want := []string{
		"sectionstar", taxonomy.Break,
		taxonomy.Text, taxonomy.Break,
		"itemize", taxonomy.Break,
		"verbatim",
	}
	if len(species) != len(want) {
		t.Fatalf("children = %v, want %v", species, want)
	}
	for i := range want {
		if species[i] != want[i] {
			t.Errorf("child %d = %s, want %s", i, species[i], want[i])
		}
	}

	heading := tr.Node(root).Children[0]
	title := tr.FirstChild(heading, taxonomy.Title)
	if title == doctree.None {
		t.Fatal("heading has no title")
	}
	if got := tr.PlainText(title); got != "Overview" {
		t.Errorf("title = %q", got)
	}

	para := tr.Node(tr.Node(root).Children[2])
	if para.Content != "Some text here." {
		t.Errorf("paragraph = %q", para.Content)
	}

	list := tr.Node(root).Children[4]
	if n := len(tr.Node(list).Children); n != 2 {
		t.Errorf("list items = %d, want 2", n)
	}

	code := tr.Node(tr.Node(root).Children[6])
	if code.Content != "\nx := 1\n" || code.Attr("language") != "go" {
		t.Errorf("code = %q lang %q", code.Content, code.Attr("language"))
	}
}

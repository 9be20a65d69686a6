package preprocess

import "testing"

func TestExpandDefs(t *testing.T) {
	src := "\\def\\bit{\\begin{itemize}}\n\\def\\eit {\\end{itemize}}\n\\def\\it{\\item}\\bit\n\\it apples \\item pears\n\\eit"
	got, err := ExpandDefs(src)
	if err != nil {
		t.Fatal(err)
	}
	want := "\n\n\\begin{itemize}\n\\item apples \\item pears\n\\end{itemize}"
	if got != want {
		t.Errorf("ExpandDefs() = %q, want %q", got, want)
	}
}

func TestExpandDefsErrors(t *testing.T) {
	for _, src := range []string{`\def\x y`, `\def\x{unclosed`} {
		if _, err := ExpandDefs(src); err == nil {
			t.Errorf("ExpandDefs(%q) succeeded", src)
		}
	}
}

func TestReplaceDoubleDollars(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a $$x$$ b", `a \[x\] b`},
		{"$$x$$ and $$y$$", `\[x\] and \[y\]`},
		{"odd $$x$$ $$y", `odd \[x\] $$y`},
		{"none $x$", "none $x$"},
	}
	for _, tt := range tests {
		if got := ReplaceDoubleDollars(tt.in); got != tt.want {
			t.Errorf("ReplaceDoubleDollars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSource(t *testing.T) {
	got, err := Source("``quoted'' $$x$$")
	if err != nil {
		t.Fatal(err)
	}
	if want := `''quoted'' \[x\]`; got != want {
		t.Errorf("Source() = %q, want %q", got, want)
	}
}

package taxonomy

import "strings"

// macroArgs describes the argument pattern of each known macro: '[' is an
// optional bracketed argument and '{' a mandatory braced one. Macros not
// listed take no arguments.
var macroArgs = map[string]string{
	"documentclass":       "[{",
	"usepackage":          "[{",
	"selectlanguage":      "[{",
	"setlength":           "{{",
	"addtolength":         "{{",
	"newcounter":          "{[",
	"setcounter":          "{{",
	"addtocounter":        "{{",
	"newcommand":          "{[{",
	"renewcommand":        "{[{",
	"providecommand":      "{[{",
	"DeclareMathOperator": "{{",
	"input":               "{",
	"include":             "{",
	"hspace":              "{",
	"vspace":              "{",
	"\\":                  "[",
	"title":               "[{",
	"author":              "{",
	"date":                "{",
	"institution":         "{",
	"modulecode":          "{",
	"moduletitle":         "{",
	"academicyear":        "{",
	"chapter":             "[{",
	"section":             "[{",
	"subsection":          "[{",
	"subsubsection":       "[{",
	"paragraph":           "[{",
	"item":                "[",
	"bibitem":             "[",
	"question":            "[",
	"part":                "[",
	"subpart":             "[",
	"subsubpart":          "[",
	"label":               "{",
	"ref":                 "{",
	"pageref":             "{",
	"autoref":             "{",
	"nameref":             "{",
	"eqref":               "{",
	"cite":                "[{",
	"nocite":              "{",
	"hyperref":            "[{",
	"url":                 "{",
	"href":                "{{",
	"includegraphics":     "[{",
	"includevideo":        "[{",
	"graphicspath":        "{",
	"caption":             "[{",
	"footnote":            "[{",
	"subfigure":           "[{",
	"bibliography":        "{",
	"bibliographystyle":   "{",
	"pagestyle":           "{",
	"thispagestyle":       "{",
	"emph":                "{",
	"textbf":              "{",
	"textit":              "{",
	"texttt":              "{",
	"textsl":              "{",
	"textsc":              "{",
	"underline":           "{",
	"text":                "{",
	"mathrm":              "{",
	"mathbb":              "{",
	"mathbf":              "{",
	"mathcal":             "{",
	"frac":                "{{",
	"dfrac":               "{{",
	"sqrt":                "[{",
	"eng":                 "{",
	"wel":                 "{",
	"resp":                "{",
	"'":                   "{",
	"`":                   "{",
	"\"":                  "{",
	"^":                   "{",
	"~":                   "{",
	"c":                   "{",
	"hypersetup":          "{",
}

// ArgSpec returns the argument pattern for a macro name. Starred forms share
// the pattern of their base macro.
func ArgSpec(name string) string {
	if spec, ok := macroArgs[name]; ok {
		return spec
	}
	return macroArgs[strings.TrimSuffix(name, "*")]
}

// environmentArgs is the number of mandatory braced arguments that follow
// \begin{name}.
var environmentArgs = map[string]int{
	"tabular":   1,
	"array":     1,
	"minipage":  1,
	"multicols": 1,
	"tabularx":  2,
}

// EnvironmentArgs returns the mandatory argument count of an environment.
func EnvironmentArgs(name string) int {
	return environmentArgs[name]
}

// RawEnvironment reports whether the body of the environment is taken
// verbatim rather than tokenized.
func RawEnvironment(name string) bool {
	return InGenus(name, "pre") || InGenus(name, "markdown")
}

// AcceptsOption reports whether \begin{name} may be followed by a bracketed
// option. Display math and verbatim bodies never take one so that a leading
// '[' in the body is not misread.
func AcceptsOption(name string) bool {
	g := GenusOf(name)
	return g != "dispmath" && g != "pre" && g != "markdown"
}

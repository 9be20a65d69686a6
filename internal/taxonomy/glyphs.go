package taxonomy

import "golang.org/x/net/html"

type accentKey struct {
	accent string
	base   string
}

var accentEntities = map[accentKey]string{
	{"'", "a"}: "&aacute;", {"'", "e"}: "&eacute;", {"'", "i"}: "&iacute;",
	{"'", "o"}: "&oacute;", {"'", "u"}: "&uacute;", {"'", "y"}: "&yacute;",
	{"'", "w"}: "&#7811;",
	{"'", "A"}: "&Aacute;", {"'", "E"}: "&Eacute;", {"'", "I"}: "&Iacute;",
	{"'", "O"}: "&Oacute;", {"'", "U"}: "&Uacute;", {"'", "Y"}: "&Yacute;",
	{"`", "a"}: "&agrave;", {"`", "e"}: "&egrave;", {"`", "i"}: "&igrave;",
	{"`", "o"}: "&ograve;", {"`", "u"}: "&ugrave;", {"`", "w"}: "&#7809;",
	{"`", "y"}: "&#7923;",
	{"`", "A"}: "&Agrave;", {"`", "E"}: "&Egrave;", {"`", "I"}: "&Igrave;",
	{"`", "O"}: "&Ograve;", {"`", "U"}: "&Ugrave;",
	{"\"", "a"}: "&auml;", {"\"", "e"}: "&euml;", {"\"", "i"}: "&iuml;",
	{"\"", "o"}: "&ouml;", {"\"", "u"}: "&uuml;", {"\"", "w"}: "&#7813;",
	{"\"", "y"}: "&yuml;",
	{"\"", "A"}: "&Auml;", {"\"", "E"}: "&Euml;", {"\"", "I"}: "&Iuml;",
	{"\"", "O"}: "&Ouml;", {"\"", "U"}: "&Uuml;",
	{"^", "a"}: "&acirc;", {"^", "e"}: "&ecirc;", {"^", "i"}: "&icirc;",
	{"^", "o"}: "&ocirc;", {"^", "u"}: "&ucirc;", {"^", "w"}: "&#373;",
	{"^", "y"}: "&#375;",
	{"^", "A"}: "&Acirc;", {"^", "E"}: "&Ecirc;", {"^", "I"}: "&Icirc;",
	{"^", "O"}: "&Ocirc;", {"^", "U"}: "&Ucirc;", {"^", "W"}: "&#372;",
	{"^", "Y"}: "&#374;",
	{"~", "a"}: "&atilde;", {"~", "n"}: "&ntilde;", {"~", "o"}: "&otilde;",
	{"~", "A"}: "&Atilde;", {"~", "N"}: "&Ntilde;", {"~", "O"}: "&Otilde;",
	{"c", "c"}: "&ccedil;", {"c", "C"}: "&Ccedil;",
}

var escapedEntities = map[string]string{
	"$":      "&#36;",
	"%":      "&#37;",
	"&":      "&#38;",
	"{":      "&#123;",
	"}":      "&#125;",
	"(":      "&#40;",
	")":      "&#41;",
	"#":      "&#35;",
	"_":      "&#95;",
	"pounds": "&#163;",
}

var spaceEntities = map[string]string{
	" ":     "&#32;",
	",":     "&#8201;",
	"quad":  "&#8195;",
	"qquad": "&#8195;&#8195;",
}

// DecodeAccent returns the precomposed character for an accent applied to a
// base letter.
func DecodeAccent(accent, base string) (string, bool) {
	e, ok := accentEntities[accentKey{accent, base}]
	if !ok {
		return "", false
	}
	return html.UnescapeString(e), true
}

// DecodeEscaped returns the literal character an escaped macro stands for.
func DecodeEscaped(name string) (string, bool) {
	e, ok := escapedEntities[name]
	if !ok {
		return "", false
	}
	return html.UnescapeString(e), true
}

// DecodeSpace returns the whitespace glyph for a fixed spacing macro.
func DecodeSpace(name string) (string, bool) {
	e, ok := spaceEntities[name]
	if !ok {
		return "", false
	}
	return html.UnescapeString(e), true
}

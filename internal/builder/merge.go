package builder

import (
	"github.com/dgallion1/texgest/internal/lexer"
	"github.com/dgallion1/texgest/internal/taxonomy"
)

// merge splices delimiter pairs written as separate macros into single
// nodes: \[ ... \] and \( ... \) become math regions, and \name ... \endname
// for a known environment name becomes that environment. An opener without
// its closer in the same sequence is left alone.
func merge(nodes []lexer.Node) []lexer.Node {
	out := make([]lexer.Node, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		m, ok := nodes[i].(*lexer.Macro)
		if !ok {
			out = append(out, nodes[i])
			continue
		}
		var closer string
		switch {
		case m.Name == "[":
			closer = "]"
		case m.Name == "(":
			closer = ")"
		case taxonomy.IsEnvironmentName(m.Name):
			closer = "end" + m.Name
		default:
			out = append(out, m)
			continue
		}
		j := findMacro(nodes, i+1, closer)
		if j < 0 {
			out = append(out, m)
			continue
		}
		body := nodes[i+1 : j]
		inner := lexer.Latex(body)
		raw := m.Raw + inner + nodes[j].Latex()
		if closer == "]" || closer == ")" {
			out = append(out, &lexer.Math{Display: closer == "]", Body: body, Raw: raw})
		} else {
			out = append(out, &lexer.Environment{Name: m.Name, Body: body, RawBody: inner, Raw: raw})
		}
		i = j
	}
	return out
}

func findMacro(nodes []lexer.Node, from int, name string) int {
	for j := from; j < len(nodes); j++ {
		if m, ok := nodes[j].(*lexer.Macro); ok && m.Name == name {
			return j
		}
	}
	return -1
}

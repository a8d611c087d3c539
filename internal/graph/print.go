// File: internal/graph/print.go
// Brief: Graph printing for plan debugging.

package graph

import (
	"fmt"
	"io"
	"strings"
)

func PrintDOT(w io.Writer, g *Graph) {
	fmt.Fprintln(w, "digraph stacks {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box];")
	for _, name := range g.Names() {
		fmt.Fprintf(w, "  \"%s\";\n", name)
	}
	for _, e := range g.Edges() {
		// Edge: from needs to => to -> from.
		fmt.Fprintf(w, "  \"%s\" -> \"%s\";\n", e[1], e[0])
	}
	fmt.Fprintln(w, "}")
}

func PrintMermaid(w io.Writer, g *Graph) {
	fmt.Fprintln(w, "graph TD")
	for _, name := range g.Names() {
		fmt.Fprintf(w, "  %s[\"%s\"]\n", safeID(name), name)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(w, "  %s --> %s\n", safeID(e[1]), safeID(e[0]))
	}
}

func safeID(s string) string {
	out := strings.Builder{}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out.WriteRune(r)
		default:
			out.WriteRune('_')
		}
	}
	return out.String()
}

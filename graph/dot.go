package graph

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"fortio.org/log"
	"github.com/ldemailly/amalgamate/amalgam"
)

var (
	headerColor     = "lightblue"
	sourceColor     = "lightgreen"
	cycleColor      = "red" // border of nodes on a loop
	violationColor  = "darkorange"
	unresolvedColor = "lightgrey"
)

// WriteDot writes the include graph in Graphviz DOT format. Nodes on a loop
// get a red border, forward includes are drawn dashed in orange.
func (g *Graph) WriteDot(w io.Writer, leftToRight bool) error {
	g.Cycles()
	bad := make(map[[2]string]bool)
	for _, v := range g.OrderViolations() {
		bad[[2]string{v.File, v.Target}] = true
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph includes {")
	rankDir := "TB"
	if leftToRight {
		rankDir = "LR"
	}
	fmt.Fprintf(bw, "  rankdir=\"%s\";\n", rankDir)
	fmt.Fprintln(bw, "  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\"];")
	fmt.Fprintln(bw, "  edge [fontname=\"Helvetica\", fontsize=10];")

	fmt.Fprintln(bw, "\n  // Files")
	for _, n := range g.order {
		color := sourceColor
		if n.Kind == amalgam.Header {
			color = headerColor
		}
		attrs := []string{
			fmt.Sprintf("label=\"%s\"", escape(n.Path)),
			fmt.Sprintf("fillcolor=\"%s\"", color),
		}
		if n.loop != 0 {
			log.LogVf("Highlighting cycle node in DOT: %s", n.Path)
			attrs = append(attrs, fmt.Sprintf("color=\"%s\"", cycleColor), "penwidth=2")
		}
		fmt.Fprintf(bw, "  \"%s\" [%s];\n", escape(n.Path), strings.Join(attrs, ", "))
		for _, u := range n.Unresolved {
			fmt.Fprintf(bw, "  \"%s\" [label=\"%s\", fillcolor=\"%s\", style=\"dashed\"];\n",
				escape("?"+u), escape(u), unresolvedColor)
		}
	}

	fmt.Fprintln(bw, "\n  // Includes")
	for _, e := range g.edges {
		attrs := []string{fmt.Sprintf("label=\"%s\"", escape(e.Include))}
		switch {
		case e.From.loop != 0 && e.From.loop == e.To.loop:
			attrs = append(attrs, fmt.Sprintf("color=\"%s\"", cycleColor), "penwidth=1.5")
		case bad[[2]string{e.From.Path, e.To.Path}]:
			attrs = append(attrs, fmt.Sprintf("color=\"%s\"", violationColor), "style=\"dashed\"")
		}
		fmt.Fprintf(bw, "  \"%s\" -> \"%s\" [%s];\n", escape(e.From.Path), escape(e.To.Path), strings.Join(attrs, ", "))
	}
	for _, n := range g.order {
		for _, u := range n.Unresolved {
			fmt.Fprintf(bw, "  \"%s\" -> \"%s\" [style=\"dotted\"];\n", escape(n.Path), escape("?"+u))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

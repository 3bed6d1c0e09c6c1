package graph

import (
	"fmt"

	"github.com/ldemailly/amalgamate/amalgam"
)

// Violation is an include whose target is concatenated after the includer,
// so the merged artifact sees the use before the declaration.
type Violation struct {
	File    string
	Include string
	Target  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s includes %q (%s) which is merged after it", v.File, v.Include, v.Target)
}

// OrderViolations lists includes that point forward in the artifacts. The
// merged source includes the merged header, so a source including a header
// is always fine; a header including a source never is.
func (g *Graph) OrderViolations() []Violation {
	var out []Violation
	for _, e := range g.edges {
		if forward(e.From, e.To) {
			out = append(out, Violation{File: e.From.Path, Include: e.Include, Target: e.To.Path})
		}
	}
	return out
}

func forward(from, to *Node) bool {
	switch {
	case from.Kind == to.Kind:
		return to.Index > from.Index
	case from.Kind == amalgam.Header && to.Kind == amalgam.Source:
		return true
	default:
		return false
	}
}

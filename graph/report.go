package graph

import "fortio.org/log"

// LogWarnings logs include loops, forward includes and includes of files
// outside the amalgamation, and returns how many problems it found.
func (g *Graph) LogWarnings() int {
	problems := 0
	if cycles := g.Cycles(); len(cycles) > 0 {
		log.Warnf("Include cycle between %d files:", len(cycles))
		for _, p := range cycles {
			log.Warnf("  - %s", p)
		}
		problems += len(cycles)
	}
	for _, v := range g.OrderViolations() {
		log.Warnf("Order: %s", v)
		problems++
	}
	for _, n := range g.order {
		for _, u := range n.Unresolved {
			// Elided anyway, so the merged artifact will miss whatever it declared.
			log.Warnf("%s includes %q which is not part of the amalgamation", n.Path, u)
			problems++
		}
	}
	return problems
}

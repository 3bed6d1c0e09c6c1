package graph

import (
	"sort"

	"fortio.org/log"
)

// Cycles returns the sorted paths of files that take part in an include
// loop. Nodes are tagged with their loop so WriteDot can highlight them.
func (g *Graph) Cycles() []string {
	loops := g.loops(g.detectCycles())
	var out []string
	for _, n := range g.order {
		n.loop = loops[n.Path]
		if n.loop != 0 {
			out = append(out, n.Path)
		}
	}
	sort.Strings(out)
	return out
}

// detectCycles runs Kahn's algorithm on the reversed include graph: a file
// is released once everything it includes has been released. Whatever is
// left holds at least one cycle, plus anything that only depends on one.
func (g *Graph) detectCycles() map[string]bool {
	reverseAdj := make(map[string][]string)
	inDegree := make(map[string]int)
	all := make([]string, 0, len(g.order))
	for _, n := range g.order {
		inDegree[n.Path] = 0
		all = append(all, n.Path)
	}
	sort.Strings(all)
	seen := make(map[[2]string]bool)
	for _, e := range g.edges {
		k := [2]string{e.From.Path, e.To.Path}
		if seen[k] {
			continue
		}
		seen[k] = true
		reverseAdj[e.To.Path] = append(reverseAdj[e.To.Path], e.From.Path)
		inDegree[e.From.Path]++
	}

	queue := []string{}
	remaining := make(map[string]int, len(inDegree))
	for p, d := range inDegree {
		remaining[p] = d
		if d == 0 {
			queue = append(queue, p)
		}
	}
	sort.Strings(queue)
	processed := 0
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		processed++
		neighbors := reverseAdj[u]
		sort.Strings(neighbors)
		for _, v := range neighbors {
			remaining[v]--
			if remaining[v] == 0 {
				queue = append(queue, v)
			}
		}
		sort.Strings(queue)
	}

	inCycles := make(map[string]bool)
	if processed < len(all) {
		log.LogVf("Include cycle candidates: processed %d of %d files", processed, len(all))
		for _, p := range all {
			if remaining[p] > 0 {
				inCycles[p] = true
			}
		}
	}
	return inCycles
}

// loops splits the Kahn leftovers into strongly connected components
// (Tarjan) and numbers those with more than one file from 1. Candidates that
// merely include a loop, or sit between two loops, get no number.
func (g *Graph) loops(candidates map[string]bool) map[string]int {
	res := make(map[string]int)
	if len(candidates) == 0 {
		return res
	}
	adj := make(map[string][]string)
	for _, e := range g.edges {
		if candidates[e.From.Path] && candidates[e.To.Path] {
			adj[e.From.Path] = append(adj[e.From.Path], e.To.Path)
		}
	}
	index := make(map[string]int)
	low := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	next, id := 0, 0
	var visit func(v string)
	visit = func(v string) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range adj[v] {
			if _, seen := index[w]; !seen {
				visit(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}
		if low[v] != index[v] {
			return
		}
		var comp []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		if len(comp) < 2 {
			return
		}
		id++
		log.LogVf("Include loop %d: %v", id, comp)
		for _, w := range comp {
			res[w] = id
		}
	}
	for _, n := range g.order {
		if _, seen := index[n.Path]; candidates[n.Path] && !seen {
			visit(n.Path)
		}
	}
	return res
}

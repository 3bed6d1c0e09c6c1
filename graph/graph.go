// Package graph reports on the local include structure of the files going
// into an amalgamation. It never reorders anything: the module order given
// by the user is the concatenation order, and this package only points out
// where that order cannot compile.
package graph

import (
	"bufio"
	"errors"
	"io"
	"path"
	"strings"

	"fortio.org/log"
	"github.com/ldemailly/amalgamate/amalgam"
)

// Node is one collected file.
type Node struct {
	Path       string
	Kind       amalgam.Kind
	Index      int      // position within its own artifact
	Unresolved []string // quoted includes that match no collected file
	loop       int      // include loop number, 0 when on none
}

// Edge is a quoted include from one collected file to another.
type Edge struct {
	From    *Node // never nil
	To      *Node // never nil
	Include string
}

type Graph struct {
	nodes map[string]*Node // path -> Node
	order []*Node          // headers then sources, as concatenated
	edges []Edge
}

// Nodes returns the nodes in concatenation order.
func (g *Graph) Nodes() []*Node { return g.order }

// Edges returns the edges in concatenation order of their source.
func (g *Graph) Edges() []Edge { return g.edges }

// Node returns the node for a collected path, or nil.
func (g *Graph) Node(p string) *Node { return g.nodes[p] }

// Build reads every collected file and links its quoted includes to the
// collected files they name. An include resolves to the file whose path ends
// with the include (after cleaning), else to the first file with the same
// base name.
func Build(fsys amalgam.FS, files amalgam.Files) (*Graph, error) {
	if fsys == nil {
		fsys = amalgam.OS{}
	}
	g := &Graph{nodes: make(map[string]*Node)}
	byBase := make(map[string][]*Node)
	add := func(paths []string, kind amalgam.Kind) {
		for i, p := range paths {
			n := &Node{Path: p, Kind: kind, Index: i}
			g.nodes[p] = n
			g.order = append(g.order, n)
			base := path.Base(p)
			byBase[base] = append(byBase[base], n)
		}
	}
	add(files.Headers, amalgam.Header)
	add(files.Sources, amalgam.Source)

	for _, from := range g.order {
		includes, err := readIncludes(fsys, from.Path)
		if err != nil {
			return nil, err
		}
		for _, inc := range includes {
			to := resolve(byBase, from.Path, inc)
			if to == nil {
				log.LogVf("Unresolved include %q in %s", inc, from.Path)
				from.Unresolved = append(from.Unresolved, inc)
				continue
			}
			if to == from {
				continue
			}
			g.edges = append(g.edges, Edge{From: from, To: to, Include: inc})
		}
	}
	log.LogVf("Include graph: %d files, %d edges", len(g.order), len(g.edges))
	return g, nil
}

func resolve(byBase map[string][]*Node, from, inc string) *Node {
	candidates := byBase[path.Base(inc)]
	if len(candidates) == 0 {
		return nil
	}
	// Relative to the including file first, then any suffix match.
	rel := path.Join(path.Dir(from), inc)
	for _, c := range candidates {
		if c.Path == rel {
			return c
		}
	}
	clean := path.Clean(inc)
	for _, c := range candidates {
		if strings.HasSuffix(c.Path, "/"+clean) {
			return c
		}
	}
	return candidates[0]
}

// readIncludes returns the quoted include targets of p. Lines have no length
// limit, matching what the amalgamator accepts.
func readIncludes(fsys amalgam.FS, p string) ([]string, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, &amalgam.PathError{Kind: amalgam.ErrFileRead, Path: p, Err: err}
	}
	defer f.Close()
	var includes []string
	r := bufio.NewReader(f)
	for {
		line, rerr := r.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, &amalgam.PathError{Kind: amalgam.ErrFileRead, Path: p, Err: rerr}
		}
		if inc, ok := amalgam.IncludeTarget(line); ok {
			includes = append(includes, inc)
		}
		if rerr != nil {
			return includes, nil
		}
	}
}

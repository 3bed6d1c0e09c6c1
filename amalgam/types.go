// Package amalgam collapses the headers and sources of a multi-module C/C++
// library into one header and one implementation file.
package amalgam

import "path/filepath"

// Kind is the classification of a module directory entry.
type Kind int

const (
	Ignored Kind = iota
	Header
	Source
)

func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case Source:
		return "source"
	default:
		return "ignored"
	}
}

// Layout says where the modules live. Modules order is the concatenation
// order and is never sorted.
type Layout struct {
	Root    string
	Modules []string
}

// Output names the two artifacts: <Dir>/<Name>.h and <Dir>/<Name>.<SourceExt>.
type Output struct {
	Dir       string
	Name      string
	SourceExt string // defaults to DefaultSourceExt
}

const DefaultSourceExt = "cpp"

// HeaderPath is the path of the merged header.
func (o Output) HeaderPath() string {
	return filepath.Join(o.Dir, o.Name+".h")
}

// SourcePath is the path of the merged implementation file.
func (o Output) SourcePath() string {
	ext := o.SourceExt
	if ext == "" {
		ext = DefaultSourceExt
	}
	return filepath.Join(o.Dir, o.Name+"."+ext)
}

// HeaderFileName is what the merged source includes.
func (o Output) HeaderFileName() string {
	return o.Name + ".h"
}

// Files are the ordered inputs of the two artifacts. The two lists never
// share a path.
type Files struct {
	Headers []string
	Sources []string
}

// All returns headers followed by sources.
func (f Files) All() []string {
	all := make([]string, 0, len(f.Headers)+len(f.Sources))
	all = append(all, f.Headers...)
	return append(all, f.Sources...)
}

// Result describes a completed run.
type Result struct {
	HeaderPath  string
	SourcePath  string
	HeaderFiles int
	SourceFiles int
	Elided      int // local include lines dropped across both artifacts
}

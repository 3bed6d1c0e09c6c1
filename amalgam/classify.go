package amalgam

import (
	"fmt"
	"strings"
)

// ClassifyMode selects how directory entry names are mapped to a Kind.
type ClassifyMode string

const (
	// ClassifySubstring: a name containing ".h" is a Header (this also covers
	// ".hpp"), else a name containing ".c" is a Source. Header wins when both
	// appear, so "cache.h.cpp" is a Header and "notes.c.bak" is a Source.
	ClassifySubstring ClassifyMode = "substring"
	// ClassifyExtension matches the final extension against fixed allow-lists.
	ClassifyExtension ClassifyMode = "extension"
)

var (
	headerExtensions = []string{".h", ".hh", ".hpp", ".hxx", ".inl"}
	sourceExtensions = []string{".c", ".cc", ".cpp", ".cxx"}
)

// ParseClassifyMode accepts "" (meaning substring), "substring" or "extension".
func ParseClassifyMode(s string) (ClassifyMode, error) {
	switch ClassifyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClassifySubstring:
		return ClassifySubstring, nil
	case ClassifyExtension:
		return ClassifyExtension, nil
	}
	return "", Configf("unknown classify mode %q (want %q or %q)", s, ClassifySubstring, ClassifyExtension)
}

// Classify returns the Kind of the entry called name.
func (m ClassifyMode) Classify(name string) Kind {
	switch m {
	case ClassifyExtension:
		return classifyExtension(name)
	case ClassifySubstring, "":
		return classifySubstring(name)
	}
	panic(fmt.Sprintf("amalgam: unknown classify mode %q", string(m)))
}

func classifySubstring(name string) Kind {
	if strings.Contains(name, ".h") {
		return Header
	}
	if strings.Contains(name, ".c") {
		return Source
	}
	return Ignored
}

func classifyExtension(name string) Kind {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return Ignored
	}
	ext := name[i:]
	for _, e := range headerExtensions {
		if ext == e {
			return Header
		}
	}
	for _, e := range sourceExtensions {
		if ext == e {
			return Source
		}
	}
	return Ignored
}

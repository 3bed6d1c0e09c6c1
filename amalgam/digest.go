package amalgam

import (
	"fmt"
	"io"

	"golang.org/x/mod/sumdb/dirhash"
)

// Digest returns an "h1:" hash over the merge position, name and content of
// every input file. Two runs with the same digest and the same Output
// produce identical artifacts.
func Digest(fsys FS, files Files) (string, error) {
	if fsys == nil {
		fsys = OS{}
	}
	// dirhash sorts the names it is given: prefix each one with its artifact
	// and position so the sorted order is the merge order.
	names := make([]string, 0, len(files.Headers)+len(files.Sources))
	paths := make(map[string]string, cap(names))
	add := func(tag string, list []string) {
		for i, p := range list {
			n := fmt.Sprintf("%s/%08d/%s", tag, i, p)
			names = append(names, n)
			paths[n] = p
		}
	}
	add("h", files.Headers)
	add("s", files.Sources)
	h, err := dirhash.Hash1(names, func(name string) (io.ReadCloser, error) {
		p := paths[name]
		rc, err := fsys.Open(p)
		if err != nil {
			return nil, readError(p, err)
		}
		return rc, nil
	})
	if err != nil {
		return "", err
	}
	return h, nil
}

package amalgam

import (
	"slices"

	"fortio.org/log"
)

// Collector walks Layout.Modules in order and sorts every non-directory entry
// of each module into the header or source list.
type Collector struct {
	FS     FS
	Layout Layout
	Mode   ClassifyMode
}

// Collect returns the ordered header and source paths. A missing module
// directory aborts with ErrDirectoryNotFound.
func (c *Collector) Collect() (Files, error) {
	fsys := c.FS
	if fsys == nil {
		fsys = OS{}
	}
	var files Files
	for _, module := range c.Layout.Modules {
		dir := JoinPath(c.Layout.Root, module)
		entries, err := fsys.ReadDir(dir)
		if err != nil {
			if isNotExist(err) {
				return Files{}, &PathError{Kind: ErrDirectoryNotFound, Path: dir, Err: err}
			}
			return Files{}, readError(dir, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			names = append(names, e.Name())
		}
		// Listing order differs across platforms and backends.
		slices.Sort(names)
		nh, ns := 0, 0
		for _, name := range names {
			p := JoinPath(dir, name)
			switch c.Mode.Classify(name) {
			case Header:
				files.Headers = append(files.Headers, p)
				nh++
			case Source:
				files.Sources = append(files.Sources, p)
				ns++
			default:
				log.LogVf("Ignoring %s", p)
			}
		}
		log.Infof("Module %s: %d headers, %d sources", module, nh, ns)
	}
	return files, nil
}

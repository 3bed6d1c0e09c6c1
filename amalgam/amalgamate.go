package amalgam

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"fortio.org/log"
)

// localInclude is searched for, not anchored: any trimmed line containing a
// quoted include is dropped. Angle-bracket includes never match.
var localInclude = regexp.MustCompile(`#include ".+"`)

var includeTarget = regexp.MustCompile(`#include "([^"]+)"`)

// IncludeTarget returns the quoted argument of a local include line.
func IncludeTarget(line string) (string, bool) {
	m := includeTarget.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsLocalInclude reports whether line is elided from the artifacts.
func IsLocalInclude(line string) bool {
	return localInclude.MatchString(strings.TrimSpace(line))
}

// Amalgamator writes the merged header and source for a set of Files.
type Amalgamator struct {
	FS  FS
	Out Output
	// Atomic writes each artifact to a temporary file in Out.Dir and renames
	// it into place. Without it the destination is truncated and written in
	// place, so a failed run can leave a partial artifact behind.
	Atomic bool
}

func (a *Amalgamator) fs() FS {
	if a.FS == nil {
		return OS{}
	}
	return a.FS
}

// WriteHeader streams the header artifact to w and returns the number of
// elided lines.
func (a *Amalgamator) WriteHeader(w io.Writer, headers []string) (int, error) {
	return a.concat(w, headers)
}

// WriteSource streams the source artifact to w: an include of the merged
// header first, then every source.
func (a *Amalgamator) WriteSource(w io.Writer, sources []string) (int, error) {
	if _, err := fmt.Fprintf(w, "#include \"%s\"\n", a.Out.HeaderFileName()); err != nil {
		return 0, err
	}
	return a.concat(w, sources)
}

func (a *Amalgamator) concat(w io.Writer, paths []string) (int, error) {
	fsys := a.fs()
	elided := 0
	for _, p := range paths {
		n, err := CopyFile(w, fsys, p)
		elided += n
		if err != nil {
			return elided, err
		}
	}
	return elided, nil
}

// CopyFile writes the banner for path followed by its lines, minus local
// includes. Nothing is written when path cannot be opened. CRLF line endings
// become LF; a last line without a newline is written without one. Returns
// the number of elided lines.
func CopyFile(w io.Writer, fsys FS, path string) (int, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return 0, readError(path, err)
	}
	defer f.Close()
	if err := writeBanner(w, path); err != nil {
		return 0, err
	}
	r := bufio.NewReader(f)
	elided := 0
	for {
		line, rerr := r.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return elided, readError(path, rerr)
		}
		if line != "" {
			if strings.HasSuffix(line, "\r\n") {
				line = line[:len(line)-2] + "\n"
			}
			if IsLocalInclude(line) {
				log.LogVf("Eliding %s: %s", path, strings.TrimSpace(line))
				elided++
			} else if _, err := io.WriteString(w, line); err != nil {
				return elided, err
			}
		}
		if rerr != nil {
			return elided, nil
		}
	}
}

// Render builds both artifacts in memory.
func (a *Amalgamator) Render(files Files) (header, source []byte, err error) {
	var hb, sb bytes.Buffer
	if _, err = a.WriteHeader(&hb, files.Headers); err != nil {
		return nil, nil, err
	}
	if _, err = a.WriteSource(&sb, files.Sources); err != nil {
		return nil, nil, err
	}
	return hb.Bytes(), sb.Bytes(), nil
}

// Write creates Out.Dir if needed and writes the header then the source
// artifact, overwriting existing files. The first error aborts the run.
func (a *Amalgamator) Write(files Files) (Result, error) {
	res := Result{
		HeaderPath:  a.Out.HeaderPath(),
		SourcePath:  a.Out.SourcePath(),
		HeaderFiles: len(files.Headers),
		SourceFiles: len(files.Sources),
	}
	if err := os.MkdirAll(a.Out.Dir, 0o755); err != nil {
		return res, writeError(a.Out.Dir, err)
	}
	n, err := a.writeArtifact(res.HeaderPath, func(w io.Writer) (int, error) {
		return a.WriteHeader(w, files.Headers)
	})
	res.Elided += n
	if err != nil {
		return res, err
	}
	log.Infof("Wrote %s (%d headers)", res.HeaderPath, res.HeaderFiles)
	n, err = a.writeArtifact(res.SourcePath, func(w io.Writer) (int, error) {
		return a.WriteSource(w, files.Sources)
	})
	res.Elided += n
	if err != nil {
		return res, err
	}
	log.Infof("Wrote %s (%d sources)", res.SourcePath, res.SourceFiles)
	return res, nil
}

func (a *Amalgamator) writeArtifact(dst string, fill func(io.Writer) (int, error)) (int, error) {
	var (
		f   *os.File
		err error
	)
	if a.Atomic {
		f, err = os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	} else {
		f, err = os.Create(dst)
	}
	if err != nil {
		return 0, writeError(dst, err)
	}
	tmp := f.Name()
	bw := bufio.NewWriter(f)
	fail := func(err error) error {
		if a.Atomic {
			f.Close()
			os.Remove(tmp)
		} else {
			// In place, keep what was merged up to the failure.
			bw.Flush()
			f.Close()
		}
		var pe *PathError
		if errors.As(err, &pe) {
			return err
		}
		return writeError(dst, err)
	}
	n, err := fill(bw)
	if err != nil {
		return n, fail(err)
	}
	if err := bw.Flush(); err != nil {
		return n, fail(err)
	}
	if a.Atomic {
		if err := f.Chmod(0o644); err != nil {
			return n, fail(err)
		}
	}
	if err := f.Close(); err != nil {
		if a.Atomic {
			os.Remove(tmp)
		}
		return n, writeError(dst, err)
	}
	if a.Atomic {
		if err := os.Rename(tmp, dst); err != nil {
			os.Remove(tmp)
			return n, writeError(dst, err)
		}
	}
	return n, nil
}

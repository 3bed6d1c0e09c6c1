// amsplit reads an amalgamated header or source on stdin and writes every
// banner delimited section back to the file the banner names, under -dir.
// Elided local includes are not restored.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"fortio.org/cli"
	"fortio.org/log"
	"github.com/ldemailly/amalgamate/amalgam"
)

var (
	dirFlag    = flag.String("dir", ".", "Directory the extracted files are written under")
	formatFlag = flag.Bool("format", false, "Run clang-format -i on each extracted file")
)

// runClangFormat executes "clang-format -i" on the specified file.
func runClangFormat(filename string) {
	log.Infof("  Running clang-format on %s...", filename)
	cmd := exec.Command("clang-format", "-i", filename)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Warnf("  clang-format failed for %s: %v\nOutput:\n%s", filename, err, string(output))
	} else if len(output) > 0 {
		log.LogVf("  clang-format output for %s:\n%s", filename, string(output))
	}
}

func main() {
	cli.Main()
	log.Printf("Reading from stdin... Paste an amalgamated file and signal EOF (Ctrl+D).")
	written, err := split(os.Stdin, *dirFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *formatFlag {
		for _, f := range written {
			runClangFormat(f)
		}
	}
	log.Infof("Done, %d files extracted.", len(written))
}

// section is one banner and the body that follows it.
type section struct {
	path string
	body strings.Builder
}

// split writes each section of r under dir and returns the written paths.
func split(r io.Reader, dir string) ([]string, error) {
	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed reading input: %w", err)
		}
	}

	var sections []*section
	var cur *section
	preamble := 0
	for i := 0; i < len(lines); i++ {
		if p, ok := amalgam.BannerPath(lines, i); ok {
			// The banner starts with a newline that belongs to it, not to
			// the previous body.
			if cur != nil {
				trimLastNewline(&cur.body)
			}
			cur = &section{path: p}
			sections = append(sections, cur)
			i += 2
			if i+1 < len(lines) && lines[i+1] == "\n" {
				i++
			}
			continue
		}
		if cur == nil {
			if strings.TrimSpace(lines[i]) != "" {
				log.LogVf("Skipping preamble line: %s", strings.TrimSpace(lines[i]))
			}
			preamble++
			continue
		}
		cur.body.WriteString(lines[i])
	}
	if preamble > 0 {
		log.Infof("Skipped %d lines before the first banner", preamble)
	}

	written := make([]string, 0, len(sections))
	for _, s := range sections {
		rel := filepath.FromSlash(s.path)
		if !filepath.IsLocal(rel) {
			log.Warnf("Skipping %s: not a local relative path", s.path)
			continue
		}
		dst := filepath.Join(dir, rel)
		log.Infof("  Extracting %s...", dst)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return written, fmt.Errorf("failed to create directory for %s: %w", dst, err)
		}
		if err := os.WriteFile(dst, []byte(s.body.String()), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}

func trimLastNewline(b *strings.Builder) {
	s := b.String()
	if strings.HasSuffix(s, "\n") {
		b.Reset()
		b.WriteString(s[:len(s)-1])
	}
}

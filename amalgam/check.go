package amalgam

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Check compares the artifact at path with want. It returns a line diff
// ("-" on disk, "+" expected) and whether the file is up to date. A missing
// file is reported as stale, not as an error.
func Check(path string, want []byte) (string, bool, error) {
	got, err := os.ReadFile(path)
	if err != nil {
		if isNotExist(err) {
			return fmt.Sprintf("%s: missing\n", path), false, nil
		}
		return "", false, readError(path, err)
	}
	if bytes.Equal(got, want) {
		return "", true, nil
	}
	return LineDiff(string(got), string(want)), false, nil
}

// LineDiff renders a minimal line oriented diff from before to after.
func LineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(l)
			if !strings.HasSuffix(l, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

package amalgam

import (
	"io"
	"strings"
)

// The banner framing is reproduced byte for byte from the historical
// amalgamation script so regenerated artifacts diff cleanly against old ones.
var (
	bannerOpen  = "/" + strings.Repeat("*", 56)
	bannerClose = " " + strings.Repeat("*", 56) + "/"
)

const bannerIndent = "   "

// Banner returns the comment block written before each input file.
func Banner(path string) string {
	return "\n" + bannerOpen + "\n" + bannerIndent + path + "\n" + bannerClose + "\n\n"
}

func writeBanner(w io.Writer, path string) error {
	_, err := io.WriteString(w, Banner(path))
	return err
}

// BannerPath reports whether the three lines starting at lines[i] form a
// banner, and if so returns the path it names.
func BannerPath(lines []string, i int) (string, bool) {
	if i+2 >= len(lines) {
		return "", false
	}
	if trimEOL(lines[i]) != bannerOpen || trimEOL(lines[i+2]) != bannerClose {
		return "", false
	}
	p := trimEOL(lines[i+1])
	if !strings.HasPrefix(p, bannerIndent) {
		return "", false
	}
	p = strings.TrimPrefix(p, bannerIndent)
	if p == "" {
		return "", false
	}
	return p, true
}

func trimEOL(s string) string {
	return strings.TrimRight(s, "\r\n")
}

package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {3,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-=─━│┃┌┐└┘├┤┬┴┼]{3,}\s*$`)
)

// Normalize collapses noisy whitespace and table rules.
// Keeps line breaks and two-space column gaps, since -layout output uses them to separate
// table cells; collapses >2 newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\f", "\n\n")
	s = reTabs.ReplaceAllString(s, "  ")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reMultiSpace.ReplaceAllString(s, "  ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

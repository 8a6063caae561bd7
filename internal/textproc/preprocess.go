package textproc

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBullets    = regexp.MustCompile(`[•●▪◦‣∙]\s*`)
)

// Preprocess normalizes extracted text before classification, caching, and
// LLM submission. Conservative: keeps line breaks, collapses noise. Must be
// idempotent; the cache fingerprint is computed over its output.
func Preprocess(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reBullets.ReplaceAllString(s, "- ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	// trim trailing spaces before collapsing blanks, or a line holding a
	// lone space hides the blank run and breaks idempotency
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

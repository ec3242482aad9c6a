// Package normalize rewrites raw OCR/PDF text into a cleaned, model-ready
// string. Cleaning is an ordered chain of pure rewrites; order matters, each
// rule operates on the output of the previous one.
package normalize

import (
	"regexp"
	"strings"
)

var (
	reNewlines   = regexp.MustCompile(`\r\n?|\n`)
	reMultiSpace = regexp.MustCompile(`\s{2,}`)
	rePrePunct   = regexp.MustCompile(`\s+([.,])`)
	reLowerUpper = regexp.MustCompile(`([a-z])([A-Z])`)
	reAcronym    = regexp.MustCompile(`([A-Z])([A-Z][a-z])`)
)

// Step is a single named text rewrite.
type Step struct {
	Name  string
	Apply func(string) string
}

// Steps is the cleaning chain, in application order.
var Steps = []Step{
	{"newlines-to-space", func(s string) string { return reNewlines.ReplaceAllString(s, " ") }},
	{"collapse-whitespace", func(s string) string { return reMultiSpace.ReplaceAllString(s, " ") }},
	{"strip-space-before-punct", func(s string) string { return rePrePunct.ReplaceAllString(s, "$1") }},
	// Recovers word boundaries lost by extraction paths that concatenate
	// runs without separators: "HemoglobinLevel" -> "Hemoglobin Level".
	{"split-lower-upper", func(s string) string { return reLowerUpper.ReplaceAllString(s, "$1 $2") }},
	// Acronym-to-word boundary: "WBCCount" -> "WBC Count".
	{"split-acronym-word", func(s string) string { return reAcronym.ReplaceAllString(s, "$1 $2") }},
	{"trim", strings.TrimSpace},
}

// Clean runs the full chain. Pure, deterministic, never fails; empty input
// yields empty output, which callers must treat as a "no data" condition.
func Clean(raw string) string {
	s := raw
	for _, st := range Steps {
		s = st.Apply(s)
	}
	return s
}
